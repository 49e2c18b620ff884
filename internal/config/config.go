package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
)

// Embedding providers.
const (
	ProviderFastEmbed = "fastembed"
	ProviderOpenAI    = "openai"
)

// Config holds the bookmarkd configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig selects and configures the bookmark store.
// postgres/sqlite use DSN; redis/valkey use Addrs.
type DatabaseConfig struct {
	Driver           string     `yaml:"driver"`
	DSN              string     `yaml:"dsn"`
	Addrs            []string   `yaml:"addrs"`
	Password         string     `yaml:"password"`
	Pool             PoolConfig `yaml:"pool"`
	ReadinessTimeout int        `yaml:"readiness_timeout_sec"`
}

// PoolConfig holds SQL connection pool settings. Enabled=false means a
// single connection with no idle reuse.
type PoolConfig struct {
	Enabled            *bool `yaml:"enabled"`
	MaxOpenConns       int   `yaml:"max_open_conns"`
	MaxIdleConns       int   `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int   `yaml:"conn_max_lifetime_sec"`
	ConnMaxIdleTimeSec int   `yaml:"conn_max_idle_time_sec"`
}

// IsEnabled reports whether pooling is on (default true).
func (p PoolConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider   string      `yaml:"provider"` // fastembed (default), openai
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	CacheDir   string      `yaml:"cache_dir"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig holds the query-embedding cache settings.
// Addrs falls back to database.addrs when the store is redis/valkey.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// AnalyzerConfig holds the query analyzer settings.
type AnalyzerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds listing page sizes.
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML with ${VAR} expansion, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.DSN == "" {
		c.Database.DSN = "bookmarks.db"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.Pool.MaxOpenConns <= 0 {
		c.Database.Pool.MaxOpenConns = 25
	}
	if c.Database.Pool.MaxIdleConns <= 0 {
		c.Database.Pool.MaxIdleConns = 5
	}
	if c.Database.Pool.ConnMaxLifetimeSec <= 0 {
		c.Database.Pool.ConnMaxLifetimeSec = 300
	}
	if c.Database.Pool.ConnMaxIdleTimeSec <= 0 {
		c.Database.Pool.ConnMaxIdleTimeSec = 60
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderFastEmbed
	}
	if c.Embedding.Model == "" && c.Embedding.Provider == ProviderFastEmbed {
		c.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 && c.Embedding.Provider == ProviderFastEmbed {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.CacheDir == "" {
		c.Embedding.CacheDir = "local_cache"
	}
	if c.Embedding.Cache.Enabled && len(c.Embedding.Cache.Addrs) == 0 && c.UsesKVStore() {
		c.Embedding.Cache.Addrs = c.Database.Addrs
		if c.Embedding.Cache.Password == "" {
			c.Embedding.Cache.Password = c.Database.Password
		}
	}
	if c.Analyzer.BaseURL == "" {
		c.Analyzer.BaseURL = "https://api.x.ai/v1"
	}
	if c.Analyzer.Model == "" {
		c.Analyzer.Model = "grok-beta"
	}
	if c.Analyzer.TimeoutSec <= 0 {
		c.Analyzer.TimeoutSec = 5
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 100
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 1000
	}
}

// UsesKVStore reports whether bookmarks live in redis/valkey.
func (c *Config) UsesKVStore() bool {
	return c.Database.Driver == DriverRedis || c.Database.Driver == DriverValkey
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, redis, valkey, got %q", c.Database.Driver)
	}

	switch c.Embedding.Provider {
	case ProviderFastEmbed:
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("embedding.provider must be fastembed or openai, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.Cache.Enabled && len(c.Embedding.Cache.Addrs) == 0 {
		return fmt.Errorf("embedding.cache.addrs is required when the cache is enabled with driver %q",
			c.Database.Driver)
	}

	if c.Analyzer.Enabled && c.Analyzer.APIKey == "" {
		return fmt.Errorf("analyzer.api_key is required when the analyzer is enabled")
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
