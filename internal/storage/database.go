// Package storage keeps fired alerts in a SQLite database so they outlive
// the in-memory recent list.
package storage

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskly/internal/config"
)

// Open connects to the SQLite file at path and migrates the schema
func Open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("alert database path is empty")
	}
	if path != ":memory:" {
		if err := config.EnsureDir(path); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open alert database: %w", err)
	}

	if err := db.AutoMigrate(&AlertRecord{}); err != nil {
		return nil, fmt.Errorf("migrate alert database: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
