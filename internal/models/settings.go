package models

import "time"

// Settings holds company-wide display settings. There is a single row.
type Settings struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyName string `gorm:"size:100;not null"`
	CompanyLogo string `gorm:"size:200"`
	UpdatedAt   time.Time
}

// Backup is an encrypted snapshot file of the ledger tables.
type Backup struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	FileName  string `gorm:"size:255;not null"`
	FilePath  string `gorm:"size:1024;not null"`
	Size      int64
	CreatedAt time.Time
}
