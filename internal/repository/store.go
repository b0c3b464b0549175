package repository

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"grow-sync/internal/domain"
)

// Open opens (creating if needed) a SQLite store and migrates the full
// schema: the seven synchronized tables, the tombstone table, and the
// non-synced control tables. The same store layout backs both the remote
// server and each device's local database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL keeps the UI thread readable while a merge transaction runs.
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Location{},
		&domain.Plot{},
		&domain.Crop{},
		&domain.Record{},
		&domain.RecordPhoto{},
		&domain.Observation{},
		&domain.ObservationEntry{},
		&domain.Tombstone{},
		&domain.User{},
		&domain.SyncState{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	return db, nil
}
