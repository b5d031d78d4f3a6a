package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tillpoint/internal/models"
	"tillpoint/internal/password"
)

// DefaultPassword satisfies the password strength policy.
const DefaultPassword = "Str0ng!pw"

var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// HashForTest returns a bcrypt hash at the minimum cost.
func HashForTest(t *testing.T, plaintext string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	return string(hash)
}

// UserOption customises a fixture user before it is inserted.
type UserOption func(t *testing.T, u *models.User)

// WithRole sets the role.
func WithRole(role string) UserOption {
	return func(_ *testing.T, u *models.User) { u.Role = role }
}

// WithBusiness places the user in a tenant.
func WithBusiness(businessID uint) UserOption {
	return func(_ *testing.T, u *models.User) { u.BusinessID = &businessID }
}

// WithEmail sets the email address.
func WithEmail(email string) UserOption {
	return func(_ *testing.T, u *models.User) { u.Email = &email }
}

// Approved lets the user into the private preview.
func Approved() UserOption {
	return func(_ *testing.T, u *models.User) { u.PrivatePreview = true }
}

// Inactive deactivates the user.
func Inactive() UserOption {
	return func(_ *testing.T, u *models.User) { u.Active = false }
}

// WithPassword stores a bcrypt hash of plaintext.
func WithPassword(plaintext string) UserOption {
	return func(t *testing.T, u *models.User) { u.PasswordHash = HashForTest(t, plaintext) }
}

// WithLegacyPassword stores the deprecated digest of plaintext.
func WithLegacyPassword(plaintext string) UserOption {
	return func(_ *testing.T, u *models.User) { u.PasswordHash = password.Legacy(plaintext) }
}

// WithPINHash stores a bcrypt hash of pin.
func WithPINHash(pin string) UserOption {
	return func(t *testing.T, u *models.User) {
		h := HashForTest(t, pin)
		u.PINHash = &h
	}
}

// WithLegacyPIN stores pin in the deprecated plaintext column.
func WithLegacyPIN(pin string) UserOption {
	return func(_ *testing.T, u *models.User) { u.PIN = &pin }
}

// CreateTestBusiness creates a tenant with a unique name.
func CreateTestBusiness(t *testing.T, db *gorm.DB) *models.Business {
	t.Helper()

	n := nextID()
	business := &models.Business{
		Name:         fmt.Sprintf("Shop %d", n),
		BusinessName: fmt.Sprintf("Shop %d", n),
		BusinessType: "retail",
		Address:      "1 High Street",
	}
	if err := db.Create(business).Error; err != nil {
		t.Fatalf("failed to create test business: %v", err)
	}
	return business
}

// CreateTestUser creates an active cashier with DefaultPassword unless
// options say otherwise.
func CreateTestUser(t *testing.T, db *gorm.DB, username string, opts ...UserOption) *models.User {
	t.Helper()

	user := &models.User{
		Username:  username,
		FirstName: username,
		Role:      models.RoleCashier,
		Active:    true,
	}
	for _, opt := range opts {
		opt(t, user)
	}
	if user.PasswordHash == "" {
		user.PasswordHash = HashForTest(t, DefaultPassword)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// ReloadUser reads the user row back from db.
func ReloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("failed to reload user %d: %v", id, err)
	}
	return &user
}
