// Package commands implements the balproc subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/finreport-labs/balproc/internal/cli/config"
	"github.com/finreport-labs/balproc/internal/db"
	"github.com/finreport-labs/balproc/internal/engine"
)

// Shared state populated by the root command before a subcommand runs.
var (
	cfg    *config.Config
	logger *slog.Logger
)

// SetConfig stores the loaded configuration for the subcommands.
func SetConfig(c *config.Config) { cfg = c }

// SetLogger stores the CLI logger for the subcommands.
func SetLogger(l *slog.Logger) { logger = l }

func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{
			DBHost:    config.DefaultDBHost,
			DBPort:    config.DefaultDBPort,
			DBSSLMode: config.DefaultSSLMode,
			StatePath: config.DefaultStateFile,
			Output:    config.DefaultOutput,
		}
	}
	return cfg
}

func getLogger() *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

// createEngine validates the database configuration and connects.
func createEngine(ctx context.Context) (*engine.Engine, error) {
	c := getConfig()
	if err := config.Validate(c); err != nil {
		return nil, err
	}

	// Ensure state directory exists
	stateDir := filepath.Dir(c.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	return engine.New(ctx, engine.Config{
		DB: db.Config{
			Host:     c.DBHost,
			Port:     c.DBPort,
			Database: c.DBName,
			User:     c.DBUser,
			Password: c.DBPassword,
			SSLMode:  c.DBSSLMode,
		},
		StatePath: c.StatePath,
	}, getLogger())
}
