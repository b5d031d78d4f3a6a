package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tillpoint/internal/app"
	"tillpoint/internal/config"
	"tillpoint/internal/logger"
)

// @title           Tillpoint Terminal API
// @version         1.0
// @description     Session API of a Tillpoint point-of-sale terminal: sign-in, user switching and back-office approval.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-API-Key
// @description Back-office API key.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	terminal, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := terminal.Close(); err != nil {
			log.Warnw("Failed to close connections", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s, err := terminal.Session.RestoreSession(ctx); err != nil {
		log.Warnw("Could not restore the previous session", "error", err)
	} else if s != nil {
		log.Infow("Restored session", "user_id", s.User.UserID, "username", s.User.Username)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           terminal.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Tillpoint terminal on %s", srv.Addr)
		log.Infof("Swagger documentation available at http://%s/swagger/index.html", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
