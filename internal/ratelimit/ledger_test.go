package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"tillpoint/internal/storage"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLedger() (*Ledger, *storage.MemoryKV, *clock) {
	kv := storage.NewMemoryKV()
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(kv, 5, 5*time.Minute, WithClock(c.now)), kv, c
}

func TestLedger_blocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	for i := 0; i < 5; i++ {
		if !l.Allow(ctx, "alice") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		l.RecordFailure(ctx, "alice")
	}
	if l.Allow(ctx, "alice") {
		t.Fatal("6th attempt should be blocked")
	}
	if got := len(l.Attempts(ctx, "alice")); got != 5 {
		t.Errorf("expected 5 attempts, got %d", got)
	}
}

func TestLedger_perIdentity(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	for i := 0; i < 5; i++ {
		l.RecordFailure(ctx, "Alice")
	}
	if l.Allow(ctx, "ALICE ") {
		t.Error("identities should be case-insensitive")
	}
	if !l.Allow(ctx, "bob") {
		t.Error("another identity must not be locked out")
	}
}

func TestLedger_windowSlides(t *testing.T) {
	ctx := context.Background()
	l, _, c := newTestLedger()

	for i := 0; i < 5; i++ {
		l.RecordFailure(ctx, "alice")
		c.t = c.t.Add(30 * time.Second)
	}
	if l.Allow(ctx, "alice") {
		t.Fatal("expected block inside the window")
	}

	// The first failure was 2.5 minutes ago; move just it out of the window.
	c.t = c.t.Add(2*time.Minute + 31*time.Second)
	if !l.Allow(ctx, "alice") {
		t.Fatal("expected the oldest failure to have expired")
	}
	if got := len(l.Attempts(ctx, "alice")); got != 4 {
		t.Errorf("expected 4 attempts left in window, got %d", got)
	}
}

func TestLedger_reset(t *testing.T) {
	ctx := context.Background()
	l, kv, _ := newTestLedger()

	l.RecordFailure(ctx, "alice")
	l.Reset(ctx, "alice")

	if _, err := kv.Get(ctx, l.Key("alice")); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ledger to be removed, got %v", err)
	}

	// After a reset, five more failures are needed before blocking.
	for i := 0; i < 4; i++ {
		l.RecordFailure(ctx, "alice")
	}
	if !l.Allow(ctx, "alice") {
		t.Error("4 failures after reset must not block")
	}
}

func TestLedger_corruptDataReadsEmpty(t *testing.T) {
	ctx := context.Background()
	l, kv, _ := newTestLedger()

	_ = kv.Set(ctx, l.Key("alice"), "{not json")
	if !l.Allow(ctx, "alice") {
		t.Fatal("corrupt ledger should read as empty")
	}
	l.RecordFailure(ctx, "alice")
	if got := len(l.Attempts(ctx, "alice")); got != 1 {
		t.Errorf("expected ledger to restart at 1, got %d", got)
	}
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) { return "", errors.New("disk full") }
func (failingKV) Set(context.Context, string, string) error   { return errors.New("disk full") }
func (failingKV) Delete(context.Context, ...string) error     { return errors.New("disk full") }

func TestLedger_storageFailureFailsOpen(t *testing.T) {
	ctx := context.Background()
	l := New(failingKV{}, 5, time.Minute)

	for i := 0; i < 10; i++ {
		l.RecordFailure(ctx, "alice")
	}
	if !l.Allow(ctx, "alice") {
		t.Error("storage failure should not lock users out")
	}
	l.Reset(ctx, "alice")
}

func TestKey(t *testing.T) {
	l, _, _ := newTestLedger()
	if got := l.Key("  Alice@Shop.Example "); got != "login_attempts:alice@shop.example" {
		t.Errorf("unexpected key %s", got)
	}
}

func TestLedger_prefixSeparatesNamespaces(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	logins := New(kv, 1, time.Minute)
	switches := New(kv, 1, time.Minute, WithPrefix(storage.KeySwitchAttemptsPrefix))

	if got := switches.Key("7"); got != "switch_attempts:7" {
		t.Errorf("unexpected key %s", got)
	}

	switches.RecordFailure(ctx, "7")
	if switches.Allow(ctx, "7") {
		t.Error("expected the switch ledger to block target 7")
	}
	if !logins.Allow(ctx, "7") {
		t.Error("the login ledger must not see switch failures")
	}
	if _, err := kv.Get(ctx, "switch_attempts:7"); err != nil {
		t.Errorf("expected the switch ledger under its prefix, got %v", err)
	}
}
