package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"weathersub.app/internal/config"
)

// Open connects to the store selected by cfg.Driver. Driver errors such as unique
// violations are translated into gorm's portable errors.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DatabaseDriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	case config.DatabaseDriverPostgres, "":
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.Driver == config.DatabaseDriverSQLite {
		// SQLite allows one writer; a single connection keeps conditional updates serial.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SubscriptionModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
