package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/types"
	"storefront/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "storefront", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	if err := MigrateSearchVector(s.db); err != nil {
		return err
	}
	return nil
}

// MigrateSearchVector maintains the product full-text column: a tsvector
// kept in sync by trigger over name + description, plus a GIN index.
// Postgres only.
func MigrateSearchVector(gdb *gorm.DB) error {
	stmts := []string{
		`ALTER TABLE "product" ADD COLUMN IF NOT EXISTS search_vector tsvector;`,
		`CREATE OR REPLACE FUNCTION product_search_vector_update() RETURNS trigger AS $$
		BEGIN
			NEW.search_vector := to_tsvector('english', coalesce(NEW.name, '') || ' ' || coalesce(NEW.description, ''));
			RETURN NEW;
		END
		$$ LANGUAGE plpgsql;`,
		`DROP TRIGGER IF EXISTS product_search_vector_trigger ON "product";`,
		`CREATE TRIGGER product_search_vector_trigger
			BEFORE INSERT OR UPDATE OF name, description ON "product"
			FOR EACH ROW EXECUTE FUNCTION product_search_vector_update();`,
		`CREATE INDEX IF NOT EXISTS idx_product_search_vector ON "product" USING GIN (search_vector);`,
	}
	for _, stmt := range stmts {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to set up product search vector: %w", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// AutoMigrate migrates the storefront tables on any gorm dialect. The
// test helpers reuse it against sqlite.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.PasswordResetToken{},
		&types.Category{},
		&types.Product{},
		&types.Cart{},
		&types.CartItem{},
		&types.Order{},
		&types.OrderItem{},
	)
}
