package models

import "time"

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection links two profiles. PairKey is unique per unordered pair so the
// database rejects a second row between the same two profiles in either direction.
type Connection struct {
	BaseModel

	SenderID    string           `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	ReceiverID  string           `gorm:"type:varchar(36);not null;index" json:"receiver_id"`
	PairKey     string           `gorm:"size:80;uniqueIndex;not null" json:"-"`
	Status      ConnectionStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`

	Sender   *Profile `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender_profile,omitempty"`
	Receiver *Profile `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"receiver_profile,omitempty"`
}

// ConnectionPairKey orders a and b so both directions map to the same key.
func ConnectionPairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// Involves reports whether profileID is either party.
func (c *Connection) Involves(profileID string) bool {
	return c.SenderID == profileID || c.ReceiverID == profileID
}

// Counterpart returns the other party's profile ID.
func (c *Connection) Counterpart(profileID string) string {
	if c.SenderID == profileID {
		return c.ReceiverID
	}
	return c.SenderID
}
