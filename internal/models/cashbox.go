package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashboxEntry is the balance snapshot written for one ledger event.
type CashboxEntry struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CurrencyID   uint            `gorm:"index:idx_cashbox_currency_time,priority:1;not null" json:"currency_id"`
	OccurredAt   time.Time       `gorm:"index:idx_cashbox_currency_time,priority:2;not null" json:"occurred_at"`
	EventKind    string          `gorm:"size:16;index:idx_cashbox_event,priority:1" json:"event_kind"`
	EventID      uint            `gorm:"index:idx_cashbox_event,priority:2" json:"event_id"`
	Inflow       decimal.Decimal `gorm:"type:text;not null" json:"inflow"`
	Outflow      decimal.Decimal `gorm:"type:text;not null" json:"outflow"`
	BalanceAfter decimal.Decimal `gorm:"type:text;not null" json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Currency Currency `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName keeps the original table name.
func (CashboxEntry) TableName() string { return "cashbox" }
