package config

import (
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTIssuer != "tillpoint-pos" {
		t.Errorf("expected issuer tillpoint-pos, got %s", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "tillpoint-users" {
		t.Errorf("expected audience tillpoint-users, got %s", cfg.JWTAudience)
	}
	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("expected 24h expiry, got %s", cfg.JWTExpirationDur)
	}
	if cfg.LoginMaxAttempts != 5 || cfg.LoginWindow != 5*time.Minute {
		t.Errorf("expected 5 attempts per 5m, got %d per %s", cfg.LoginMaxAttempts, cfg.LoginWindow)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("expected bcrypt cost 10, got %d", cfg.BcryptCost)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Errorf("expected postgres backend, got %s", cfg.StoreBackend)
	}
}

func TestLoad_invalid_values_fall_back(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRES_IN", "tomorrow")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("expected fallback to 24h, got %s", cfg.JWTExpirationDur)
	}
	if cfg.LoginMaxAttempts != 5 {
		t.Errorf("expected fallback to 5, got %d", cfg.LoginMaxAttempts)
	}
}

func TestLoad_secret_rules(t *testing.T) {
	t.Run("dev_fallback", func(t *testing.T) {
		t.Setenv("ENV", "development")
		t.Setenv("JWT_SECRET", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.JWTSecret != devJWTSecret {
			t.Errorf("expected development fallback secret")
		}
	})

	t.Run("production_requires_secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("JWT_SECRET", "")

		if _, err := Load(); err == nil {
			t.Fatal("expected error without JWT_SECRET in production")
		}
	})
}

func TestLoad_backends(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("rest_requires_url", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", BackendREST)
		t.Setenv("REST_URL", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for rest backend without REST_URL")
		}
	})

	t.Run("unknown_backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "mongo")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})

	t.Run("rest_ok", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", BackendREST)
		t.Setenv("REST_URL", "https://example.supabase.co")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RESTURL != "https://example.supabase.co" {
			t.Errorf("unexpected REST_URL %s", cfg.RESTURL)
		}
	})
}

func TestPostgresURL(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	if got := cfg.PostgresURL(); got != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Errorf("unexpected url %s", got)
	}
}

func TestLoad_httpExposure(t *testing.T) {
	t.Run("defaults to loopback and no browser origins", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("HOST", "")
		t.Setenv("CORS_ALLOWED_ORIGINS", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Host != "127.0.0.1" {
			t.Errorf("expected 127.0.0.1, got %s", cfg.Host)
		}
		if len(cfg.CORSAllowedOrigins) != 0 {
			t.Errorf("expected no allowed origins, got %v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("parses the origin list", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("HOST", "0.0.0.0")
		t.Setenv("CORS_ALLOWED_ORIGINS", " http://localhost:5173, ,https://till.example ")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Host != "0.0.0.0" {
			t.Errorf("expected 0.0.0.0, got %s", cfg.Host)
		}
		want := []string{"http://localhost:5173", "https://till.example"}
		if len(cfg.CORSAllowedOrigins) != len(want) {
			t.Fatalf("expected %v, got %v", want, cfg.CORSAllowedOrigins)
		}
		for i := range want {
			if cfg.CORSAllowedOrigins[i] != want[i] {
				t.Errorf("origin %d: expected %s, got %s", i, want[i], cfg.CORSAllowedOrigins[i])
			}
		}
	})
}
