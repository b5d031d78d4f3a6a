package database

import (
	"path/filepath"
	"testing"

	"tillpoint/internal/config"
	"tillpoint/internal/models"
)

func TestNewLocalManager_createsTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	m, err := NewLocalManager(path, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	if !m.DB().Migrator().HasTable(&models.LocalEntry{}) {
		t.Error("expected local_entries table")
	}
	if !m.DB().Migrator().HasTable(&models.AuditLog{}) {
		t.Error("expected audit_logs table")
	}
	if err := m.RunMigrations(); err != nil {
		t.Errorf("sqlite migrations should be a no-op, got %v", err)
	}
}

func TestNewHostedManager_sqlite(t *testing.T) {
	cfg := &config.Config{
		Env:          "test",
		StoreBackend: config.BackendSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "hosted.db"),
	}

	m, err := NewHostedManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	for _, model := range []interface{}{&models.User{}, &models.Business{}, &models.Branch{}} {
		if !m.DB().Migrator().HasTable(model) {
			t.Errorf("expected table for %T", model)
		}
	}
}

func TestNewHostedManager_restHasNoSQL(t *testing.T) {
	_, err := NewHostedManager(&config.Config{StoreBackend: config.BackendREST})
	if err == nil {
		t.Fatal("expected error for rest backend")
	}
}
