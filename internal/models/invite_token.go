package models

import "time"

// InviteToken gates registration. Only the sha256 of the secret is stored.
type InviteToken struct {
	BaseModel

	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	TokenHint string     `gorm:"size:8" json:"token_hint"`
	Label     string     `json:"label"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	CreatedBy *string    `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	UsedBy    *string    `gorm:"type:varchar(36)" json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

type InviteState string

const (
	InviteStateActive   InviteState = "active"
	InviteStateUsed     InviteState = "used"
	InviteStateExpired  InviteState = "expired"
	InviteStateInactive InviteState = "inactive"
)

// State reports the token's lifecycle state at now. Used wins over inactive, which wins over expired.
func (t *InviteToken) State(now time.Time) InviteState {
	switch {
	case t.UsedAt != nil:
		return InviteStateUsed
	case !t.IsActive:
		return InviteStateInactive
	case !now.Before(t.ExpiresAt):
		return InviteStateExpired
	default:
		return InviteStateActive
	}
}

// Usable reports whether the token can still admit a registration at now.
func (t *InviteToken) Usable(now time.Time) bool {
	return t.State(now) == InviteStateActive
}
