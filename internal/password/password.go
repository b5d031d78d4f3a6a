// Package password hashes and checks credentials.
//
// New credentials are always bcrypt hashes. A deprecated string hash is kept
// only so accounts created before the bcrypt migration can still sign in once
// and be upgraded.
package password

import (
	"crypto/subtle"
	"errors"
	"strconv"
	"unicode"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/validator"
)

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 10

// Result is the outcome of checking a plaintext against a stored hash.
type Result int

const (
	// Invalid means the hash was understood and the plaintext does not match it.
	Invalid Result = iota
	// Valid means the plaintext matches.
	Valid
	// UnrecognizedFormat means the stored value is not a bcrypt hash; the caller
	// may fall back to the legacy digest.
	UnrecognizedFormat
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unrecognized_format"
	}
}

// Hasher produces and checks bcrypt hashes at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of plaintext. Inputs bcrypt refuses (over
// 72 bytes) surface as ErrHashing.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrHashing, err)
	}
	return string(hashed), nil
}

// Verify checks plaintext against a stored bcrypt hash.
func (h *Hasher) Verify(plaintext, hash string) Result {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return Valid
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return Invalid
	default:
		return UnrecognizedFormat
	}
}

// Legacy computes the deprecated digest: a 31-multiplier rolling hash over the
// UTF-16 code units of plaintext, wrapped to a signed 32-bit integer and
// rendered in decimal.
func Legacy(plaintext string) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(plaintext)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	return strconv.FormatInt(int64(hash), 10)
}

// MatchesLegacy reports whether plaintext hashes to the stored legacy digest.
func MatchesLegacy(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Legacy(plaintext)), []byte(digest)) == 1
}

// ValidationResult lists every strength rule a password breaks.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// Password strength messages, in the order they are reported.
const (
	MsgTooShort     = "Password must be at least 8 characters long"
	MsgNoLowercase  = "Password must contain at least one lowercase letter"
	MsgNoUppercase  = "Password must contain at least one uppercase letter"
	MsgNoDigit      = "Password must contain at least one number"
	MinPasswordSize = 8
)

// Validate checks plaintext against the strength policy.
func Validate(plaintext string) ValidationResult {
	var lower, upper, digit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	var errs []string
	if len([]rune(plaintext)) < MinPasswordSize {
		errs = append(errs, MsgTooShort)
	}
	if !lower {
		errs = append(errs, MsgNoLowercase)
	}
	if !upper {
		errs = append(errs, MsgNoUppercase)
	}
	if !digit {
		errs = append(errs, MsgNoDigit)
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateUsername checks the username charset and length.
func ValidateUsername(username string) error {
	if err := validator.Var(username, "required,username"); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"Username must be 3-50 characters and contain only letters, numbers, dots, underscores or hyphens")
	}
	return nil
}

// ValidateEmail checks that email is a well-formed address.
func ValidateEmail(email string) error {
	if err := validator.Var(email, "required,email,max=255"); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Please enter a valid email address")
	}
	return nil
}

// ValidatePIN checks that pin is 4 to 6 digits.
func ValidatePIN(pin string) error {
	if err := validator.Var(pin, "required,pin"); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "PIN must be 4 to 6 digits")
	}
	return nil
}
