// Package token issues and verifies the signed session tokens held by a
// terminal. Verification never returns an error to the caller: any failure is
// "no session".
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/logger"
)

// Defaults for a terminal session token.
const (
	DefaultIssuer   = "tillpoint-pos"
	DefaultAudience = "tillpoint-users"
	DefaultTTL      = 24 * time.Hour
)

// Identity is the user identity embedded in a token.
type Identity struct {
	UserID     uint
	Username   string
	Role       string
	BusinessID *uint
}

// Claims represents the claims in a session token.
type Claims struct {
	UserID     uint   `json:"userId"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	BusinessID *uint  `json:"businessId"`
	jwt.RegisteredClaims
}

// Identity returns the identity part of the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:     c.UserID,
		Username:   c.Username,
		Role:       c.Role,
		BusinessID: c.BusinessID,
	}
}

// Config configures a Service.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests that need to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service signs and verifies HS256 session tokens.
type Service struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// New creates a token Service. An empty secret is a configuration error.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Secret == "" {
		return nil, apperrors.WithMessage(apperrors.ErrToken, "token signing secret is not configured")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	s := &Service{
		key:      []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	return s, nil
}

// Generate signs a token for id, valid from now for the configured TTL.
func (s *Service) Generate(id Identity) (string, error) {
	signed, _, err := s.Issue(id)
	return signed, err
}

// Issue signs a token for id and returns it with the claims it carries, so
// callers can report the exact expiry.
func (s *Service) Issue(id Identity) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID:     id.UserID,
		Username:   id.Username,
		Role:       id.Role,
		BusinessID: id.BusinessID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrToken, err)
	}
	return signed, claims, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry, returning
// the claims or nil. Expired and invalid tokens are told apart only in the
// debug log.
func (s *Service) Verify(tokenString string) *Claims {
	if tokenString == "" {
		return nil
	}

	claims := &Claims{}
	tok, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil || !tok.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debugw("Session token expired")
		} else {
			logger.Get().Debugw("Session token rejected", "error", err)
		}
		return nil
	}
	return claims
}

// DecodeUnsafe decodes claims without checking the signature or any
// registered claim. Never use the result for an authentication decision; it
// exists for diagnostics such as showing who a stale token belonged to.
func DecodeUnsafe(tokenString string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}
