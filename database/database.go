// Package database opens the relational store and migrates the referral schema.
package database

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"referral-rewards-system/config"
	"referral-rewards-system/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured store. Timestamps are written in UTC so window
// comparisons behave the same on postgres and sqlite.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  NewLogger(os.Stdout),
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.URL)
	case "postgres", "":
		dialector = postgres.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Type == "sqlite" {
		// sqlite allows one writer; serializing the pool turns concurrent winner runs
		// into queued transactions instead of SQLITE_BUSY failures.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewLogger logs slow queries and real errors to w. Lookups that find nothing
// are an expected outcome here, not an error worth a log line.
func NewLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates the tables, including the (type, period_end) unique
// index on winners.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Referral{},
		&models.Winner{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
