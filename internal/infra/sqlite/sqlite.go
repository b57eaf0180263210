package sqlite

import (
	"fmt"

	"github.com/tnrbusiness/outreach/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite opens the on-disk fallback store. It is the last-resort
// persistence path when the remote store is unreachable, so opening it must
// not depend on any network service.
func NewSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite at %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// sqlite handles one writer at a time.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate prepares the fallback store schema. The fallback only ever holds
// records, never credentials or post history.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&repository.RecordModel{})
}
