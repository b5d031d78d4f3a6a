// Package storage is the terminal's client-side key/value storage: the slot
// that holds the session token, the cached user snapshot and the login-attempt
// ledgers.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tillpoint/internal/models"
)

// Fixed keys.
const (
	KeyToken    = "auth_token"
	KeySnapshot = "pos_user"
	// KeyAttemptsPrefix namespaces the per-identity login-attempt ledgers.
	KeyAttemptsPrefix = "login_attempts:"
	// KeySwitchAttemptsPrefix namespaces the per-target switch-user ledgers.
	KeySwitchAttemptsPrefix = "switch_attempts:"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is a string key/value store. Absence of a key means "no value"; it is
// never treated as corruption.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// DBKV persists values in the local_entries table of the terminal database so
// a session survives restarts.
type DBKV struct {
	db *gorm.DB
}

// NewDBKV returns a KV backed by db. The local_entries table must exist.
func NewDBKV(db *gorm.DB) *DBKV {
	return &DBKV{db: db}
}

func (s *DBKV) Get(ctx context.Context, key string) (string, error) {
	var entry models.LocalEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return entry.Value, nil
}

func (s *DBKV) Set(ctx context.Context, key, value string) error {
	entry := models.LocalEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *DBKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.LocalEntry{}).Error
}
