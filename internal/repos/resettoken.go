package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/types"
)

type PasswordResetTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tokens []*types.PasswordResetToken) ([]*types.PasswordResetToken, error)
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*types.PasswordResetToken, error)
	MarkUsed(ctx context.Context, tx *gorm.DB, token *types.PasswordResetToken) error
}

type passwordResetTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPasswordResetTokenRepo(db *gorm.DB, baseLog *logger.Logger) PasswordResetTokenRepo {
	return &passwordResetTokenRepo{db: db, log: baseLog.With("repo", "PasswordResetTokenRepo")}
}

func (rr *passwordResetTokenRepo) Create(ctx context.Context, tx *gorm.DB, tokens []*types.PasswordResetToken) ([]*types.PasswordResetToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(tokens) == 0 {
		return []*types.PasswordResetToken{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (rr *passwordResetTokenRepo) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*types.PasswordResetToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var result types.PasswordResetToken
	err := transaction.WithContext(ctx).
		Where("token = ?", token).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (rr *passwordResetTokenRepo) MarkUsed(ctx context.Context, tx *gorm.DB, token *types.PasswordResetToken) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	token.Used = true
	return transaction.WithContext(ctx).
		Model(&types.PasswordResetToken{}).
		Where("id = ?", token.ID).
		Update("used", true).Error
}
