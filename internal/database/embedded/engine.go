package embedded

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/database/postgres"
)

const startTimeout = 45 * time.Second

// Engine is a throwaway PostgreSQL server living in its own runtime
// directory, plus the connection to it.
type Engine struct {
	*postgres.Adapter

	db         *embeddedpostgres.EmbeddedPostgres
	runtimeDir string
	logs       *bytes.Buffer
}

// Start boots a fresh server and connects to it. The server and its data are
// gone after Close.
func Start(ctx context.Context, cfg config.Embedded) (*Engine, error) {
	runtimeDir := filepath.Join(os.TempDir(), "sqlir-"+uuid.NewString())
	logs := &bytes.Buffer{}

	db := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Username(cfg.Username).
		Password(cfg.Password).
		Database(cfg.Database).
		Port(cfg.Port).
		Version(Version(cfg.Version)).
		RuntimePath(runtimeDir).
		DataPath(filepath.Join(runtimeDir, "data")).
		StartTimeout(startTimeout).
		Logger(logs))

	if err := db.Start(); err != nil {
		os.RemoveAll(runtimeDir)
		return nil, fmt.Errorf("failed to start embedded postgres: %w\n%s", err, strings.TrimSpace(logs.String()))
	}

	engine := &Engine{
		Adapter:    postgres.New(),
		db:         db,
		runtimeDir: runtimeDir,
		logs:       logs,
	}
	if err := engine.Connect(ctx, ConnectionURL(cfg)); err != nil {
		return nil, errors.Join(err, engine.stop())
	}
	return engine, nil
}

// Close drops the connection, stops the server and removes its files.
func (e *Engine) Close() error {
	return errors.Join(e.Adapter.Close(), e.stop())
}

func (e *Engine) stop() error {
	err := e.db.Stop()
	if rmErr := os.RemoveAll(e.runtimeDir); rmErr != nil {
		err = errors.Join(err, rmErr)
	}
	return err
}

// ConnectionURL is the address of the embedded server cfg describes.
func ConnectionURL(cfg config.Embedded) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("localhost:%d", cfg.Port),
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Version maps a major version ("16") to a released binary version. Anything
// else is passed through as a full version string.
func Version(v string) embeddedpostgres.PostgresVersion {
	switch strings.TrimPrefix(v, "v") {
	case "", "16":
		return embeddedpostgres.V16
	case "15":
		return embeddedpostgres.V15
	case "14":
		return embeddedpostgres.V14
	case "13":
		return embeddedpostgres.V13
	default:
		return embeddedpostgres.PostgresVersion(v)
	}
}
