package testutil

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront/internal/db"
	"storefront/internal/logger"
)

var dbSeq atomic.Int64

// OpenDB returns a migrated database for one test. By default each test
// gets its own in-memory sqlite database; set TEST_POSTGRES_DSN to run
// the suite against postgres instead (tables are wiped between tests).
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		gdb, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		if err := db.AutoMigrate(gdb); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		if err := db.MigrateSearchVector(gdb); err != nil {
			t.Fatalf("migrate search vector: %v", err)
		}
		wipeTables(t, gdb)
		t.Cleanup(func() { wipeTables(t, gdb) })
		return gdb
	}

	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(name), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// sqlite allows a single writer, so concurrent transactions in tests
	// must queue on one connection instead of failing with a lock error.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func wipeTables(t testing.TB, gdb *gorm.DB) {
	t.Helper()
	for _, table := range []string{
		"order_item", `"order"`, "cart_item", "cart",
		"password_reset_token", "user_token", "product", "category", `"user"`,
	} {
		if err := gdb.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("wipe %s: %v", table, err)
		}
	}
}

// NewLogger returns a quiet logger for tests.
func NewLogger(t testing.TB) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}
