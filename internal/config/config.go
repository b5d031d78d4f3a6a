package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendREST     = "rest"
)

const devJWTSecret = "dev-fallback-secret-change-in-production"

// Config holds application configuration
type Config struct {
	Env  string
	Host string
	Port string

	// Origins whose pages may call the API from a browser
	CORSAllowedOrigins []string

	// Hosted data store
	StoreBackend string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	SQLitePath   string
	RESTURL      string
	RESTAPIKey   string
	RESTTimeout  time.Duration

	// Terminal-local database holding session material and the audit trail
	LocalDBPath string

	// JWT
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	JWTExpirationDur time.Duration

	// Credentials
	BcryptCost       int
	LoginMaxAttempts int
	LoginWindow      time.Duration

	// Back office
	AdminAPIKey string

	// Events
	RabbitMQURL string
	EventsQueue string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Host: getEnv("HOST", "127.0.0.1"),
		Port: getEnv("PORT", "8080"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),

		StoreBackend: getEnv("STORE_BACKEND", BackendPostgres),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "tillpoint"),
		DBPassword:   getEnv("DB_PASSWORD", "tillpoint"),
		DBName:       getEnv("DB_NAME", "tillpoint"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath:   getEnv("SQLITE_PATH", "tillpoint.db"),
		RESTURL:      getEnv("REST_URL", ""),
		RESTAPIKey:   getEnv("REST_API_KEY", ""),
		RESTTimeout:  getDuration("REST_TIMEOUT", 10*time.Second),

		LocalDBPath: getEnv("LOCAL_DB_PATH", "tillpoint-local.db"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "tillpoint-pos"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "tillpoint-users"),
		JWTExpirationDur: getDuration("JWT_EXPIRES_IN", 24*time.Hour),

		BcryptCost:       getInt("BCRYPT_COST", 10),
		LoginMaxAttempts: getInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getDuration("LOGIN_WINDOW", 5*time.Minute),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		EventsQueue: getEnv("EVENTS_QUEUE", "tillpoint.auth-events"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.Env == "production" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		log.Println("WARNING: JWT_SECRET not set, using the development fallback secret")
		c.JWTSecret = devJWTSecret
	}

	switch c.StoreBackend {
	case BackendPostgres, BackendSQLite:
	case BackendREST:
		if c.RESTURL == "" {
			return fmt.Errorf("REST_URL is required when STORE_BACKEND=rest")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (use postgres, sqlite or rest)", c.StoreBackend)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string for the hosted store.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// PostgresURL returns the URL form used by golang-migrate.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping empty items.
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
