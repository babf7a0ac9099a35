package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt is money owed by or to a person. It does not move the cashbox.
type Debt struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	PersonName string          `gorm:"size:100;not null" json:"person_name"`
	Amount     decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	CurrencyID uint            `gorm:"index;not null" json:"currency_id"`
	DueDate    *time.Time      `json:"due_date"`
	Notes      string          `gorm:"size:255" json:"notes"`
	IsPaid     bool            `gorm:"index;not null;default:false" json:"is_paid"`
	Date       time.Time       `gorm:"index" json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Currency Currency `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
