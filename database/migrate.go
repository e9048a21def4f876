package database

import (
	"fmt"

	"medimind_backend/internal/config"
	"medimind_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

// ConnectGorm opens the GORM connection using the configured DSN.
// TranslateError maps driver unique-violation errors onto
// gorm.ErrDuplicatedKey, which the ledger idempotency check relies on.
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate migrates every model and the extensions they need.
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}
	return Migrate(db)
}

func Migrate(db *gorm.DB) error {
	// uuid_generate_v4 backs the primary key defaults.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Plan{},
		&models.Subscription{},
		&models.Transaction{},
		&models.CreditLedgerEntry{},
		&models.ConsultationSession{},
		&models.AdminSetting{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	return nil
}
