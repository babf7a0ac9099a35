package database

import (
	"fmt"

	"github.com/ReberMislem/Exchange-app/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Settings{},
		&models.Currency{},
		&models.ExchangeDiff{},
		&models.Transaction{},
		&models.Expense{},
		&models.Adjustment{},
		&models.CashboxEntry{},
		&models.Debt{},
		&models.AuditLog{},
		&models.Backup{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
