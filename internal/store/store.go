// Package store is the terminal's view of the hosted data store: the users,
// business_info and branches relations.
package store

import (
	"context"
	"errors"
	"time"

	"tillpoint/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("store: duplicate")
)

// Store is the CRUD surface the session core needs from the hosted relations.
type Store interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	// FindActiveUsersByIdentifier returns active users whose email or username
	// equals identifier, ordered by id. Usernames are not unique.
	FindActiveUsersByIdentifier(ctx context.Context, identifier string) ([]models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListActiveUsersByBusiness(ctx context.Context, businessID uint) ([]models.User, error)
	// ListPendingApprovals returns active owner/admin users still outside the
	// private preview, with the total count.
	ListPendingApprovals(ctx context.Context, offset, limit int) ([]models.User, int64, error)

	CreateBusiness(ctx context.Context, business *models.Business) error
	CreateBranch(ctx context.Context, branch *models.Branch) error
	CreateUser(ctx context.Context, user *models.User) error

	UpdatePasswordHash(ctx context.Context, userID uint, hash string) error
	// UpdatePINHash stores hash and clears the legacy plaintext PIN.
	UpdatePINHash(ctx context.Context, userID uint, hash string) error
	TouchLastUsed(ctx context.Context, userID uint, at time.Time) error
	SetPrivatePreview(ctx context.Context, userID uint, approved bool) error
	SetActive(ctx context.Context, userID uint, active bool) error
}
