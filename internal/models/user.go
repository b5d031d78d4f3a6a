package models

import (
	"strings"
	"time"
)

// Roles known to the terminal. The set is open: rows created by older clients
// may carry capitalised variants ("Owner", "Admin"), so compare with HasRole.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

// User represents one login identity in the users relation. JSON tags use the
// relation's column names so the same struct travels over the REST store.
type User struct {
	ID             uint       `gorm:"column:user_id;primaryKey" json:"user_id"`
	Username       string     `gorm:"not null;index" json:"username"`
	Email          *string    `gorm:"uniqueIndex" json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	PasswordHash   string     `gorm:"not null" json:"password_hash"`
	PIN            *string    `gorm:"column:pin" json:"pin"`
	PINHash        *string    `gorm:"column:pin_hash" json:"pin_hash"`
	Role           string     `gorm:"not null" json:"role"`
	Active         bool       `gorm:"not null" json:"active"`
	BusinessID     *uint      `gorm:"index" json:"business_id"`
	Icon           *string    `json:"icon"`
	LastUsedAt     *time.Time `gorm:"column:last_used" json:"last_used"`
	PrivatePreview bool       `gorm:"not null" json:"private_preview"`
	Timestamps
}

// TableName pins the relation name used by the hosted store.
func (User) TableName() string { return "users" }

// HasRole reports whether the user's role matches role, ignoring case.
func (u *User) HasRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), role)
}

// RequiresApproval reports whether the user's role is gated by the private
// preview flag.
func (u *User) RequiresApproval() bool {
	return u.HasRole(RoleOwner) || u.HasRole(RoleAdmin)
}

// AwaitingApproval is true for owner/admin accounts that have not been let into
// the private preview yet. Such users must never obtain a session.
func (u *User) AwaitingApproval() bool {
	return u.RequiresApproval() && !u.PrivatePreview
}

// HasPIN reports whether the user has any PIN credential, hashed or legacy.
func (u *User) HasPIN() bool {
	return (u.PINHash != nil && *u.PINHash != "") || (u.PIN != nil && *u.PIN != "")
}

// Snapshot is the plain cached projection of a user kept alongside the session
// token. It never carries credential material.
type Snapshot struct {
	UserID     uint       `json:"user_id"`
	Username   string     `json:"username"`
	Email      *string    `json:"email,omitempty"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Role       string     `json:"role"`
	Active     bool       `json:"active"`
	Icon       *string    `json:"icon,omitempty"`
	BusinessID *uint      `json:"business_id"`
	HasPIN     bool       `json:"has_pin"`
	LastUsedAt *time.Time `json:"last_used,omitempty"`
}

// Snapshot returns the cacheable projection of u.
func (u *User) Snapshot() *Snapshot {
	return &Snapshot{
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		Active:     u.Active,
		Icon:       u.Icon,
		BusinessID: u.BusinessID,
		HasPIN:     u.HasPIN(),
		LastUsedAt: u.LastUsedAt,
	}
}

// DisplayName prefers the first/last name and falls back to the username.
func (s *Snapshot) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Username
	}
	return name
}
