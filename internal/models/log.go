package models

import "time"

// AuditLog records mutating API calls.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    *uint     `gorm:"index"`
	Method    string    `gorm:"size:16"`
	PathEnc   string    `gorm:"size:1024"` // encrypted request path
	ActionEnc string    `gorm:"size:4096"` // encrypted method + path + body summary
	Status    int
	IP        string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"index"`
}
