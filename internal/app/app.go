// Package app wires one terminal process together: the hosted store, the
// terminal-local database, the session manager and the HTTP router.
package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"tillpoint/internal/config"
	"tillpoint/internal/database"
	"tillpoint/internal/events"
	"tillpoint/internal/handlers"
	"tillpoint/internal/logger"
	"tillpoint/internal/middleware"
	"tillpoint/internal/password"
	"tillpoint/internal/ratelimit"
	"tillpoint/internal/services"
	"tillpoint/internal/storage"
	"tillpoint/internal/store"
	"tillpoint/internal/store/postgrest"
	"tillpoint/internal/token"
	"tillpoint/internal/validator"

	_ "tillpoint/internal/docs" // Import swagger docs
)

// App holds the wired components of one terminal.
type App struct {
	Config    *config.Config
	Store     store.Store
	Local     storage.KV
	Tokens    *token.Service
	Session   *services.SessionManager
	Approvals services.ApprovalServicer
	Audit     services.AuditServicer
	Events    events.Publisher
	Router    *gin.Engine

	closers []func() error
}

// New opens every connection cfg names and assembles the terminal.
func New(cfg *config.Config) (*App, error) {
	log := logger.Get()

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	localDB, err := database.NewLocalManager(cfg.LocalDBPath, cfg.Env)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	publisher := openPublisher(cfg)

	a, err := Assemble(cfg, st, localDB.DB(), publisher)
	if err != nil {
		_ = publisher.Close()
		_ = localDB.Close()
		_ = closeStore()
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close, localDB.Close, closeStore)

	log.Infow("Terminal assembled", "store_backend", cfg.StoreBackend, "local_db", cfg.LocalDBPath)
	return a, nil
}

func openStore(cfg *config.Config) (store.Store, func() error, error) {
	if cfg.StoreBackend == config.BackendREST {
		client := postgrest.NewClient(cfg.RESTURL, cfg.RESTAPIKey, cfg.RESTTimeout, nil)
		return client, func() error { return nil }, nil
	}

	mgr, err := database.NewHostedManager(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to the hosted store: %w", err)
	}
	if err := mgr.RunMigrations(); err != nil {
		_ = mgr.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return store.NewGormStore(mgr.DB()), mgr.Close, nil
}

// openPublisher connects to RabbitMQ when configured. A broker that cannot be
// reached degrades to log-only events.
func openPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.NewLogPublisher()
	}
	p, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.EventsQueue)
	if err != nil {
		logger.Get().Warnw("RabbitMQ unavailable, events will only be logged", "error", err)
		return events.NewLogPublisher()
	}
	return p
}

// Assemble builds the services and router over already-open connections.
func Assemble(cfg *config.Config, st store.Store, localDB *gorm.DB, publisher events.Publisher) (*App, error) {
	tokens, err := token.New(token.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTExpirationDur,
	})
	if err != nil {
		return nil, err
	}

	local := storage.NewDBKV(localDB)
	audit := services.NewAuditService(localDB)

	a := &App{
		Config: cfg,
		Store:  st,
		Local:  local,
		Tokens: tokens,
		Audit:  audit,
		Events: publisher,
		Session: services.NewSessionManager(services.SessionDeps{
			Store:        st,
			Local:        local,
			Hasher:       password.NewHasher(cfg.BcryptCost),
			Tokens:       tokens,
			Ledger:       ratelimit.New(local, cfg.LoginMaxAttempts, cfg.LoginWindow),
			SwitchLedger: ratelimit.New(local, cfg.LoginMaxAttempts, cfg.LoginWindow, ratelimit.WithPrefix(storage.KeySwitchAttemptsPrefix)),
			Audit:        audit,
			Events:       publisher,
		}),
		Approvals: services.NewApprovalService(st, audit, publisher),
	}
	a.Router = NewRouter(a)
	return a, nil
}

// NewRouter mounts the terminal's HTTP API.
func NewRouter(a *App) *gin.Engine {
	if a.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	sessionHandler := handlers.NewSessionHandler(a.Session)
	adminHandler := handlers.NewAdminHandler(a.Approvals, a.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(a.Config.CORSAllowedOrigins))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "authenticated": a.Session.IsAuthenticated()})
	})

	v1 := router.Group("/api/v1")

	session := v1.Group("/session")
	session.GET("", sessionHandler.Get)
	session.POST("/restore", sessionHandler.Restore)
	session.POST("/login", sessionHandler.Login)
	session.POST("/register", sessionHandler.Register)
	session.POST("/switch", sessionHandler.Switch)
	session.POST("/refresh", sessionHandler.Refresh)
	session.POST("/logout", sessionHandler.Logout)
	session.GET("/users", sessionHandler.Users)

	v1.GET("/me", middleware.AuthMiddleware(a.Tokens, a.Store), sessionHandler.Me)

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(a.Config.AdminAPIKey))
	admin.GET("/registrations", adminHandler.ListRegistrations)
	admin.POST("/users/:id/approve", adminHandler.Approve)
	admin.POST("/users/:id/deactivate", adminHandler.Deactivate)
	admin.GET("/audit", adminHandler.Audit)

	return router
}

// Close releases every connection New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
