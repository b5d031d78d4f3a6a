package services

import (
	"context"
	"time"

	"tillpoint/internal/models"
	"tillpoint/internal/pagination"
)

// Session is the authenticated state handed to callers.
type Session struct {
	User      *models.Snapshot `json:"user"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// RegisterInput carries the fields of a new tenant owner.
type RegisterInput struct {
	Username     string
	Password     string
	BusinessName string
	Email        string
	FirstName    string
	LastName     string
	BusinessType string
	Address      string
	PhoneNumber  string
}

// SessionServicer is the terminal's single source of truth for who is signed in.
type SessionServicer interface {
	RestoreSession(ctx context.Context) (*Session, error)
	Register(ctx context.Context, in RegisterInput) (*models.Snapshot, error)
	Login(ctx context.Context, identifier, password string) (*Session, error)
	SwitchUser(ctx context.Context, targetUserID uint, credential string, usePIN bool) bool
	RefreshUser(ctx context.Context) (*Session, error)
	Logout(ctx context.Context)

	Current() *Session
	CurrentUser() *models.Snapshot
	Token() string
	IsAuthenticated() bool
	ListSwitchCandidates(ctx context.Context) ([]models.Snapshot, error)
}

// ApprovalServicer is the back-office surface for the private preview gate.
type ApprovalServicer interface {
	ListPending(ctx context.Context, page pagination.PageRequest) (*pagination.Page[models.Snapshot], error)
	Approve(ctx context.Context, userID uint) (*models.Snapshot, error)
	Deactivate(ctx context.Context, userID uint) (*models.Snapshot, error)
}

// AuditEntry is one audit event before it is stored.
type AuditEntry struct {
	UserID     uint
	BusinessID *uint
	Action     string
	Details    map[string]any
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, entry AuditEntry)
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}
