package models

import "time"

// AuditLog records session events on the terminal for security review.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	BusinessID *uint     `json:"business_id,omitempty"`
	Action     string    `gorm:"not null;index" json:"action"`
	IPAddress  string    `json:"ip_address"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LocalEntry is one slot of the terminal's client-side key/value storage.
type LocalEntry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
