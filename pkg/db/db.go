package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
)

// SetupDatabase opens the wallet database, runs migrations and returns the connection
func SetupDatabase(logger *logrus.Logger, cfg Config) (*gorm.DB, error) {
	logger.WithField("driver", cfg.Driver).Debug("Starting database setup")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		if err := RunMigrations(logger, cfg); err != nil {
			return nil, err
		}
		_, dirty, err := MigrationStatus(logger, cfg)
		if err != nil {
			return nil, err
		}
		if dirty {
			return nil, fmt.Errorf("database schema is dirty, fix the failed migration first")
		}
		dialector = postgres.Open(cfg.dsn())
	default:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Path + "?_busy_timeout=5000")
	}

	logger.Debug("Establishing GORM database connection")

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogrusLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.Wallet{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}

	logger.Info("Database setup completed successfully")
	return db, nil
}
