package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "sqlir.yaml", `
version: "1"
queries: ["queries/*.sql"]
database:
  migrations: ["migrations/*.sql"]
  url: postgres://localhost/app
codegen:
  out: gen
  options:
    package: db
  enums:
    - user_roles
    - status: [active, inactive]
  exclude_models: [audit.log]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, []string{filepath.Join(dir, "queries/*.sql")}, cfg.QueryPatterns())
	assert.Equal(t, []string{filepath.Join(dir, "migrations/*.sql")}, cfg.MigrationPatterns())
	assert.Equal(t, filepath.Join(dir, "gen"), cfg.OutDir())
	assert.Equal(t, "postgres://localhost/app", cfg.Database.URL)
	assert.Equal(t, "db", cfg.Codegen.Options["package"])
	assert.Equal(t, []string{"audit.log"}, cfg.Codegen.ExcludeModels)

	overrides, err := cfg.Codegen.EnumOverrides()
	require.NoError(t, err)
	assert.Equal(t, []EnumOverride{
		{Name: "user_roles", Table: "user_roles"},
		{Name: "status", Values: []string{"active", "inactive"}},
	}, overrides)
}

func TestLoadJSONAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "sqlir.json", `{"queries": ["q.sql"], "codegen": {"out": "out"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Version)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.Equal(t, Embedded{
		Username: "postgres",
		Password: "postgres",
		Database: "postgres",
		Port:     54329,
		Version:  "16",
	}, cfg.Database.Embedded)
	assert.NotNil(t, cfg.Codegen.Options)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Codegen.Plugin.URL = "https://example.com/gen.wasm"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unsupported version", func(c *Config) { c.Version = "2" }, "version"},
		{"no queries", func(c *Config) { c.Queries = nil }, "queries"},
		{"no out", func(c *Config) { c.Codegen.Out = "" }, "codegen.out"},
		{"url and url_env", func(c *Config) { c.Database.URL = "postgres://x" }, "database"},
		{"short sha256", func(c *Config) { c.Codegen.Plugin.SHA256 = "abc" }, "codegen.plugin.sha256"},
		{"bad enum entry", func(c *Config) { c.Codegen.Enums = []interface{}{42} }, "codegen.enums[0]"},
		{"enum with two names", func(c *Config) {
			c.Codegen.Enums = []interface{}{map[string]interface{}{"a": []interface{}{"x"}, "b": []interface{}{"y"}}}
		}, "codegen.enums[0]"},
		{"enum with non-string value", func(c *Config) {
			c.Codegen.Enums = []interface{}{map[string]interface{}{"a": []interface{}{1}}}
		}, "codegen.enums[0]"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateAcceptsVersionSpellings(t *testing.T) {
	for _, v := range []string{"1", "1.0", "1.0.0"} {
		cfg := DefaultConfig()
		cfg.Version = v
		assert.NoError(t, cfg.Validate(), v)
	}
}

func TestValidateAcceptsUppercaseSHA256(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Codegen.Plugin.URL = "https://example.com/gen.wasm"
	cfg.Codegen.Plugin.SHA256 = "ABCDEF0123456789abcdef0123456789ABCDEF0123456789abcdef0123456789"
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "sqlir.yaml", "version: \"9\"\nqueries: [a.sql]\ncodegen: {out: gen}\n")

	_, err := Load(path)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "version", cfgErr.Field)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SQLIR_TEST_ENV_URL=postgres://from-file/db\n"), 0o644))
	path := filepath.Join(dir, "sqlir.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queries: [q.sql]
env_file: [.env]
database:
  url_env: SQLIR_TEST_ENV_URL
codegen: {out: gen}
`), 0o644))

	t.Setenv("SQLIR_TEST_ENV_URL", "")
	os.Unsetenv("SQLIR_TEST_ENV_URL")

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-file/db", os.Getenv("SQLIR_TEST_ENV_URL"))
}

func TestResolve(t *testing.T) {
	cfg := &Config{dir: "/project"}
	assert.Equal(t, "/project/queries/a.sql", cfg.Resolve("queries/a.sql"))
	assert.Equal(t, "/abs/x", cfg.Resolve("/abs/x"))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache/sqlir"), cfg.Resolve("~/.cache/sqlir"))
}
