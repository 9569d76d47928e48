package models

import "time"

// User is an authenticated identity. Display data lives on Profile.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;size:320;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	MFAEnabled bool       `gorm:"default:false" json:"mfa_enabled"`
	MFASecret  *MFASecret `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Roles    []Role    `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	Profile  *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Sessions []Session `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	LastLoginAt    *time.Time `json:"last_login_at"`
	LastLoginIP    string     `json:"-"`
	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`
}

// RoleIDs lists the identifiers of the preloaded roles.
func (u *User) RoleIDs() []string {
	ids := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		ids = append(ids, role.ID)
	}
	return ids
}

// HasRole reports whether the preloaded roles include roleID.
func (u *User) HasRole(roleID string) bool {
	for _, role := range u.Roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}
