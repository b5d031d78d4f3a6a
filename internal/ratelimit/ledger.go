// Package ratelimit keeps the sliding-window ledger of failed login attempts.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tillpoint/internal/logger"
	"tillpoint/internal/storage"
)

// Defaults match the terminal's lockout policy: 5 failures in 5 minutes.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 5 * time.Minute
)

// Ledger records failed attempts per identity in the terminal's local storage.
// Each ledger is a JSON array of unix-millisecond timestamps stored under
// <prefix><identity>, with prefix login_attempts: unless WithPrefix says
// otherwise. Unreadable ledgers count as empty, and storage failures are
// logged and let the attempt through.
type Ledger struct {
	kv     storage.KV
	max    int
	window time.Duration
	prefix string
	now    func() time.Time
	log    *zap.SugaredLogger

	mu sync.Mutex
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithPrefix stores the ledgers under another key namespace.
func WithPrefix(prefix string) Option {
	return func(l *Ledger) { l.prefix = prefix }
}

// New returns a Ledger allowing maxAttempts failures per window.
func New(kv storage.KV, maxAttempts int, window time.Duration, opts ...Option) *Ledger {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Ledger{
		kv:     kv,
		max:    maxAttempts,
		window: window,
		prefix: storage.KeyAttemptsPrefix,
		now:    time.Now,
		log:    logger.Named("ratelimit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the storage key of identity's ledger. Identities are compared
// case-insensitively, so "Alice" and "alice" share a ledger.
func (l *Ledger) Key(identity string) string {
	return l.prefix + normalize(identity)
}

func normalize(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Allow reports whether identity may attempt a login now.
func (l *Ledger) Allow(ctx context.Context, identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(ctx, identity)) < l.max
}

// Attempts returns the failures of identity inside the current window.
func (l *Ledger) Attempts(ctx context.Context, identity string) []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.recent(ctx, identity)
	out := make([]time.Time, len(recent))
	for i, ms := range recent {
		out[i] = time.UnixMilli(ms)
	}
	return out
}

// RecordFailure appends a failure for identity, dropping entries that have
// aged out of the window.
func (l *Ledger) RecordFailure(ctx context.Context, identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	attempts := append(l.recent(ctx, identity), l.now().UnixMilli())
	raw, err := json.Marshal(attempts)
	if err != nil {
		l.log.Errorw("Failed to encode login attempts", "error", err)
		return
	}
	if err := l.kv.Set(ctx, l.Key(identity), string(raw)); err != nil {
		l.log.Errorw("Failed to record login attempt", "error", err)
	}
}

// Reset clears identity's ledger.
func (l *Ledger) Reset(ctx context.Context, identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kv.Delete(ctx, l.Key(identity)); err != nil {
		l.log.Errorw("Failed to clear login attempts", "error", err)
	}
}

func (l *Ledger) recent(ctx context.Context, identity string) []int64 {
	raw, err := l.kv.Get(ctx, l.Key(identity))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.log.Errorw("Failed to read login attempts", "error", err)
		}
		return nil
	}

	var attempts []int64
	if err := json.Unmarshal([]byte(raw), &attempts); err != nil {
		l.log.Warnw("Discarding unreadable login attempt ledger", "error", err)
		return nil
	}

	cutoff := l.now().Add(-l.window).UnixMilli()
	kept := attempts[:0]
	for _, ts := range attempts {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}
