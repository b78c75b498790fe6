package database

import (
	"context"
	"fmt"
	"log"

	"wellness/config"
	"wellness/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQL is the global GORM handle when DB_DRIVER is postgres or sqlite.
var SQL *gorm.DB

// InitSQL opens the relational store selected by DB_DRIVER and migrates the schema.
func InitSQL() error {
	var dialector gorm.Dialector
	switch config.AppConfig.DBDriver {
	case "postgres":
		if config.AppConfig.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		dialector = postgres.Open(config.AppConfig.PostgresDSN)
	case "sqlite":
		dialector = sqlite.Open(config.AppConfig.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", config.AppConfig.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", config.AppConfig.DBDriver, err)
	}
	if config.AppConfig.DBDriver == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY between transactions.
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return err
	}
	SQL = db
	log.Printf("Connected to %s successfully!", config.AppConfig.DBDriver)
	return nil
}

// Migrate creates or updates every table the engine uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Provider{},
		&models.ProviderCalendar{},
		&models.AvailabilitySlot{},
		&models.SessionAllocation{},
		&models.SessionUsageRecord{},
		&models.Booking{},
		&models.RecurringBookingTemplate{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

type gormPinger struct{ db *gorm.DB }

func (p gormPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// GormPinger adapts a GORM handle for the health monitor.
func GormPinger(db *gorm.DB) interface{ Ping(context.Context) error } {
	return gormPinger{db: db}
}
