package db

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"laundry-admin-backend/config"
	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/store"
)

// Init opens the configured database and runs migrations.
func Init(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Store.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("driver %q has no database", cfg.Store.Driver)
	}

	level := logger.Warn
	if log.IsLevelEnabled(log.DebugLevel) {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if cfg.Database.Seed {
		if err := Seed(db, store.DemoData()); err != nil {
			return nil, err
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Company{},
		&model.Client{},
		&model.Service{},
		&model.Machine{},
		&model.Order{},
		&model.OrderLineItem{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// Seed loads demo into a database that has no companies yet.
func Seed(db *gorm.DB, demo store.Demo) error {
	var companies int64
	if err := db.Model(&model.Company{}).Count(&companies).Error; err != nil {
		return fmt.Errorf("failed to count companies: %w", err)
	}
	if companies > 0 {
		return nil
	}

	log.Printf("Seeding %d demo companies", len(demo.Companies))
	return db.Transaction(func(tx *gorm.DB) error {
		rows := []any{&demo.Companies, &demo.Clients, &demo.Services, &demo.Machines, &demo.Orders}
		for _, r := range rows {
			if err := tx.Create(r).Error; err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
		}
		if tx.Dialector.Name() == "postgres" {
			return resetSequences(tx)
		}
		return nil
	})
}

// resetSequences moves the id sequences past the seeded rows.
func resetSequences(tx *gorm.DB) error {
	for _, table := range []string{"clients", "services", "machines", "orders", "order_line_items"} {
		q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 1)) FROM %[1]s", table)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("failed to reset sequence of %s: %w", table, err)
		}
	}
	return nil
}
