package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

// OpenSQLite opens a SQLite database for local runs and tests. A path of
// ":memory:" gives a private in-memory database.
func OpenSQLite(log *logger.Logger, path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" || dsn == ":memory:" {
		dsn = "file::memory:?_foreign_keys=off"
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes
	// writers, which SQLite requires anyway.
	sqlDB.SetMaxOpenConns(1)
	if log != nil {
		log.With("service", "SQLite").Info("Opened SQLite database", "path", path)
	}
	return db, nil
}
