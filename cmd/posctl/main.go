// Command posctl drives a terminal's session from the shell. It shares the
// terminal's local database, so a session started here is picked up by the
// terminal process and the other way round.
package main

import (
	"fmt"
	"os"

	"tillpoint/internal/app"
	"tillpoint/internal/config"
	"tillpoint/internal/logger"
)

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = "production"
	}
	logger.Init(env)
	defer logger.Sync()

	c := &cli{open: func() (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return app.New(cfg)
	}}

	err := execute(newRootCmd(c))
	c.close()
	if err != nil {
		os.Exit(1)
	}
}
