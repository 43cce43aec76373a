package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobRoot(t *testing.T) {
	assert.Equal(t, "queries", globRoot("queries/*.sql"))
	assert.Equal(t, "queries", globRoot("queries/**/*.sql"))
	assert.Equal(t, "/app/db", globRoot("/app/db/migrations-*/up.sql"))
	assert.Equal(t, ".", globRoot("*.sql"))
}

func TestWatchDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "queries", "users"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "migrations"), 0o755))

	dirs := watchDirs([]string{
		filepath.Join(root, "queries/**/*.sql"),
		filepath.Join(root, "migrations/*.sql"),
		filepath.Join(root, "missing/*.sql"),
	})

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "queries"),
		filepath.Join(root, "queries", "users"),
		filepath.Join(root, "migrations"),
	}, dirs)
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"/app/queries/**/*.sql", "/app/migrations/*.sql"}

	assert.True(t, matchesAny(patterns, "/app/queries/users/get.sql"))
	assert.True(t, matchesAny(patterns, "/app/migrations/001_init.sql"))
	assert.False(t, matchesAny(patterns, "/app/migrations/README.md"))
	assert.False(t, matchesAny(patterns, "/app/gen/models.go"))
}

func TestInitializeProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlir.yaml")

	require.NoError(t, initializeProject(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "url_env: DATABASE_URL")
	assert.NotContains(t, string(content), "cache_dir")

	assert.ErrorContains(t, initializeProject(path), "already exists")
}
