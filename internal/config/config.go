package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultFile = "sqlir.yaml"

var supportedVersions = []string{"1", "1.0", "1.0.0"}

type Config struct {
	Version      string   `json:"version" yaml:"version" mapstructure:"version"`
	EnvFile      []string `json:"env_file,omitempty" yaml:"env_file,omitempty" mapstructure:"env_file"`
	CacheDir     string   `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty" mapstructure:"cache_dir"`
	DisableCache bool     `json:"disable_cache,omitempty" yaml:"disable_cache,omitempty" mapstructure:"disable_cache"`
	Queries      []string `json:"queries" yaml:"queries" mapstructure:"queries"`
	Database     Database `json:"database" yaml:"database" mapstructure:"database"`
	Codegen      Codegen  `json:"codegen" yaml:"codegen" mapstructure:"codegen"`

	// dir is the directory relative paths are resolved against.
	dir string
}

type Database struct {
	Migrations []string `json:"migrations,omitempty" yaml:"migrations,omitempty" mapstructure:"migrations"`
	URL        string   `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	URLEnv     string   `json:"url_env,omitempty" yaml:"url_env,omitempty" mapstructure:"url_env"`
	Embedded   Embedded `json:"embedded" yaml:"embedded,omitempty" mapstructure:"embedded"`
}

type Embedded struct {
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	Database string `json:"database" yaml:"database" mapstructure:"database"`
	Port     uint32 `json:"port" yaml:"port" mapstructure:"port"`
	Version  string `json:"version" yaml:"version" mapstructure:"version"`
}

// Codegen is handed to the generator as-is, so its JSON shape is part of the
// plugin contract.
type Codegen struct {
	Out           string                 `json:"out" yaml:"out" mapstructure:"out"`
	Plugin        Plugin                 `json:"plugin" yaml:"plugin,omitempty" mapstructure:"plugin"`
	Options       map[string]interface{} `json:"options" yaml:"options,omitempty" mapstructure:"options"`
	Types         map[string]interface{} `json:"types" yaml:"types,omitempty" mapstructure:"types"`
	Enums         []interface{}          `json:"enums" yaml:"enums,omitempty" mapstructure:"enums"`
	ExcludeModels []string               `json:"exclude_models" yaml:"exclude_models,omitempty" mapstructure:"exclude_models"`
}

// Plugin locates the generator. URL is a local path or an http(s) address.
type Plugin struct {
	URL    string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty" mapstructure:"sha256"`
}

// EnumOverride declares an enum either by listing its values or by naming a
// table whose first column holds them.
type EnumOverride struct {
	Name   string
	Table  string
	Values []string
}

// ConfigError reports an invalid configuration before any database work.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid config: " + e.Message
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
}

// DefaultConfig is the configuration written by init.
func DefaultConfig() *Config {
	cfg := &Config{
		Version: "1",
		Queries: []string{"queries/**/*.sql"},
		Database: Database{
			Migrations: []string{"migrations/*.sql"},
			URLEnv:     "DATABASE_URL",
		},
		Codegen: Codegen{Out: "gen"},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the config file at path (YAML or JSON by extension), applies
// defaults, validates it and loads its env files.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(abs)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.LoadEnvFiles(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.CacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.CacheDir = filepath.Join(dir, "sqlir")
		} else {
			c.CacheDir = filepath.Join(os.TempDir(), "sqlir-cache")
		}
	}
	e := &c.Database.Embedded
	if e.Username == "" {
		e.Username = "postgres"
	}
	if e.Password == "" {
		e.Password = "postgres"
	}
	if e.Database == "" {
		e.Database = "postgres"
	}
	if e.Port == 0 {
		e.Port = 54329
	}
	if e.Version == "" {
		e.Version = "16"
	}
	if c.Codegen.Options == nil {
		c.Codegen.Options = map[string]interface{}{}
	}
	if c.Codegen.Types == nil {
		c.Codegen.Types = map[string]interface{}{}
	}
}

var sha256Regex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

func (c *Config) Validate() error {
	supported := false
	for _, v := range supportedVersions {
		if c.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported version %q (supported: %s)", c.Version, strings.Join(supportedVersions, ", "))}
	}

	if len(c.Queries) == 0 {
		return &ConfigError{Field: "queries", Message: "at least one query pattern is required"}
	}

	if c.Codegen.Out == "" {
		return &ConfigError{Field: "codegen.out", Message: "cannot be empty"}
	}

	if c.Database.URL != "" && c.Database.URLEnv != "" {
		return &ConfigError{Field: "database", Message: "url and url_env are mutually exclusive"}
	}

	if sum := c.Codegen.Plugin.SHA256; sum != "" && !sha256Regex.MatchString(sum) {
		return &ConfigError{Field: "codegen.plugin.sha256", Message: "must be 64 hexadecimal characters"}
	}
	if c.Codegen.Plugin.SHA256 != "" && c.Codegen.Plugin.URL == "" {
		return &ConfigError{Field: "codegen.plugin.sha256", Message: "set without codegen.plugin.url"}
	}

	if _, err := c.Codegen.EnumOverrides(); err != nil {
		return err
	}
	return nil
}

// EnumOverrides decodes codegen.enums. Each entry is a table name or a
// single-key map from enum name to its values.
func (g *Codegen) EnumOverrides() ([]EnumOverride, error) {
	overrides := make([]EnumOverride, 0, len(g.Enums))
	for i, entry := range g.Enums {
		field := fmt.Sprintf("codegen.enums[%d]", i)
		switch e := entry.(type) {
		case string:
			if e == "" {
				return nil, &ConfigError{Field: field, Message: "table name cannot be empty"}
			}
			overrides = append(overrides, EnumOverride{Name: e, Table: e})
		case map[string]interface{}:
			if len(e) != 1 {
				return nil, &ConfigError{Field: field, Message: "expected exactly one enum name"}
			}
			for name, raw := range e {
				values, ok := stringList(raw)
				if !ok {
					return nil, &ConfigError{Field: field, Message: fmt.Sprintf("values of %q must be a list of strings", name)}
				}
				overrides = append(overrides, EnumOverride{Name: name, Values: values})
			}
		default:
			return nil, &ConfigError{Field: field, Message: "expected a table name or a map of values"}
		}
	}
	return overrides, nil
}

func stringList(raw interface{}) ([]string, bool) {
	switch list := raw.(type) {
	case []string:
		return list, true
	case []interface{}:
		values := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			values[i] = s
		}
		return values, true
	default:
		return nil, false
	}
}

// LoadEnvFiles loads every env_file into the process environment. Variables
// already set are not overridden.
func (c *Config) LoadEnvFiles() error {
	if len(c.EnvFile) == 0 {
		return nil
	}
	files := make([]string, len(c.EnvFile))
	for i, f := range c.EnvFile {
		files[i] = c.Resolve(f)
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// Dir is the directory holding the config file.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

// Resolve makes a relative path relative to the config file. "~/" expands to
// the home directory.
func (c *Config) Resolve(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func (c *Config) ResolveAll(paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		resolved[i] = c.Resolve(p)
	}
	return resolved
}

func (c *Config) QueryPatterns() []string {
	return c.ResolveAll(c.Queries)
}

func (c *Config) MigrationPatterns() []string {
	return c.ResolveAll(c.Database.Migrations)
}

func (c *Config) OutDir() string {
	return c.Resolve(c.Codegen.Out)
}

func (c *Config) PluginCacheDir() string {
	return c.Resolve(c.CacheDir)
}
