package database

import (
	"context"
	"fmt"
	"os"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/database/embedded"
	"github.com/Rana718/sqlir/internal/database/postgres"
)

// Open connects to the database cfg describes. A literal url wins, then the
// url_env variable, and without either an embedded engine is started.
func Open(ctx context.Context, cfg config.Database) (Introspector, error) {
	url, err := ConnectionURL(cfg)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return embedded.Start(ctx, cfg.Embedded)
	}

	adapter := postgres.New()
	if err := adapter.Connect(ctx, url); err != nil {
		return nil, err
	}
	return adapter, nil
}

// ConnectionURL returns the networked connection string, or "" when the
// embedded engine should be used.
func ConnectionURL(cfg config.Database) (string, error) {
	switch {
	case cfg.URL != "":
		return cfg.URL, nil
	case cfg.URLEnv != "":
		url := os.Getenv(cfg.URLEnv)
		if url == "" {
			return "", fmt.Errorf("database URL not found in environment variable %s", cfg.URLEnv)
		}
		return url, nil
	default:
		return "", nil
	}
}
