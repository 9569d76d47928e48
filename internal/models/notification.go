package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationConnectionRequested = "connection.requested"
	NotificationConnectionAccepted  = "connection.accepted"
	NotificationApprovalDecided     = "profile.approval_decided"
	NotificationRegistrationPending = "profile.registration_pending"
)

// Notification is an in-app notification for a user.
type Notification struct {
	BaseModel

	UserID    string         `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Type      string         `gorm:"type:varchar(64);not null" json:"type"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	ActionURL string         `gorm:"type:text" json:"action_url"`
	Metadata  datatypes.JSON `json:"metadata"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
