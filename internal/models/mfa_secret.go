package models

import "time"

// MFASecret holds a sealed TOTP secret for a user.
type MFASecret struct {
	BaseModel

	UserID       string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Secret       string     `gorm:"not null" json:"-"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
	LastUsedStep int64      `gorm:"default:0" json:"-"`
}
