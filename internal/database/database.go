package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tillpoint/internal/config"
	"tillpoint/internal/logger"
	"tillpoint/internal/models"
)

// MigrationsSource is where cmd/migrate and RunMigrations read SQL files from.
const MigrationsSource = "file://migrations"

// Manager owns a GORM connection to one database.
type Manager struct {
	db     *gorm.DB
	pgURL  string
	driver string
}

func gormConfig(env string) *gorm.Config {
	level := gormlogger.Warn
	if env == "production" || env == "test" {
		level = gormlogger.Silent
	}
	return &gorm.Config{Logger: gormlogger.Default.LogMode(level)}
}

// NewHostedManager connects to the hosted data store selected by
// STORE_BACKEND. The rest backend has no SQL connection; callers use the
// postgrest client instead.
func NewHostedManager(cfg *config.Config) (*Manager, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.PostgresDSN(),
			PreferSimpleProtocol: true, // Required for Supabase Supavisor; harmless for direct connections
		}), gormConfig(cfg.Env))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying DB: %w", err)
		}
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(time.Hour)

		return &Manager{db: db, pgURL: cfg.PostgresURL(), driver: config.BackendPostgres}, nil

	case config.BackendSQLite:
		db, err := openSQLite(cfg.SQLitePath, cfg.Env)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.Business{}, &models.Branch{}, &models.User{}); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
		return &Manager{db: db, driver: config.BackendSQLite}, nil

	default:
		return nil, fmt.Errorf("store backend %q has no SQL connection", cfg.StoreBackend)
	}
}

// NewLocalManager opens the terminal-local SQLite file that holds session
// material and the audit trail, creating its tables if needed.
func NewLocalManager(path, env string) (*Manager, error) {
	db, err := openSQLite(path, env)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.LocalEntry{}, &models.AuditLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}
	return &Manager{db: db, driver: config.BackendSQLite}, nil
}

func openSQLite(path, env string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), gormConfig(env))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	return db, nil
}

// RunMigrations applies pending SQL migrations. It is a no-op for SQLite,
// whose schema comes from AutoMigrate.
func (m *Manager) RunMigrations() error {
	if m.driver != config.BackendPostgres {
		return nil
	}
	logger.Get().Info("Running database migrations...")

	mig, err := migrate.New(MigrationsSource, m.pgURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
