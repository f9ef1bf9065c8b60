package uow

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/logger"
)

// UnitOfWork scopes a group of repository writes to one transaction.
// The callback's tx must be passed to every repo call inside it; an error
// return rolls everything back, nil commits.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormUnitOfWork struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) UnitOfWork {
	return &gormUnitOfWork{db: db, log: log.With("service", "UnitOfWork")}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := u.db.WithContext(ctx).Transaction(fn)
	if err != nil {
		u.log.Debug("Transaction rolled back", "error", err)
	}
	return err
}
