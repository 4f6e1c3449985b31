// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/leaselink/leaselink-backend/internal/config"
	"github.com/leaselink/leaselink-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension (postgres only; the sqlite test database relies on
	// the BeforeCreate hooks instead)
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			return fmt.Errorf("failed to create UUID extension: %w", err)
		}
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Profile{},
		&models.Property{},
		&models.PropertyImage{},
		&models.PropertyViewing{},
		&models.Negotiation{},
		&models.Message{},
		&models.RentalAgreement{},
		&models.AgreementVersion{},
		&models.AgreementComment{},
		&models.Notification{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Property indexes
		"CREATE INDEX IF NOT EXISTS idx_properties_landlord ON properties(landlord_id)",
		"CREATE INDEX IF NOT EXISTS idx_properties_city_status ON properties(city, status)",
		"CREATE INDEX IF NOT EXISTS idx_properties_rent ON properties(rent_amount)",
		"CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC)",

		// Negotiation indexes. The partial unique index backs the invariant of
		// at most one active negotiation per (tenant, property).
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_negotiations_one_active ON negotiations(property_id, tenant_id) WHERE status = 'active' AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_negotiations_updated_at ON negotiations(updated_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_messages_negotiation_created ON messages(negotiation_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(negotiation_id, read) WHERE read = false",

		// Agreement indexes
		"CREATE INDEX IF NOT EXISTS idx_agreements_tenant ON rental_agreements(tenant_id)",
		"CREATE INDEX IF NOT EXISTS idx_agreements_landlord ON rental_agreements(landlord_id)",
		"CREATE INDEX IF NOT EXISTS idx_agreements_status ON rental_agreements(status)",
		"CREATE INDEX IF NOT EXISTS idx_agreements_updated_at ON rental_agreements(updated_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_agreement_comments_agreement ON agreement_comments(agreement_id, created_at)",

		// Notification indexes
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, read, created_at DESC)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// Full-text search index
		"CREATE INDEX IF NOT EXISTS idx_properties_search ON properties USING GIN(to_tsvector('english', title || ' ' || description))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// LockForUpdate adds a row lock on dialects that support it. The sqlite test
// database serializes writers on its own and rejects FOR UPDATE syntax.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
