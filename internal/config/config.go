// Package config loads server settings from environment variables.
// Mandatory values are checked up front so a misconfigured process never
// starts serving.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds all configuration for the server.
type Config struct {
	Env           string
	Port          int
	AllowedOrigin string
	LogLevel      string
	MetricsAddr   string // empty disables the metrics listener
	Database      DatabaseConfig
	RateLimit     RateLimitConfig
}

// DatabaseConfig holds connection and pool settings. Either URL or the
// NeonAPIKey/NeonProjectID pair must be set.
type DatabaseConfig struct {
	URL string

	NeonAPIKey    string
	NeonProjectID string
	NeonDatabase  string
	NeonRole      string
	NeonAPIURL    string

	MaxConns         int32
	MinConns         int32
	AcquireTimeout   time.Duration
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
	IdleTimeout      time.Duration
	ConnectRetries   int
	RetryDelay       time.Duration
}

// RateLimitConfig holds the windowed per-IP limits.
type RateLimitConfig struct {
	Window            time.Duration
	GlobalMax         int
	StrictMax         int
	TrustedProxyCount int
}

// IsProduction reports whether diagnostic output must be suppressed.
func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

// UsesRemoteConnectionString reports whether the connection string has to be
// fetched from the Neon API.
func (d *DatabaseConfig) UsesRemoteConnectionString() bool {
	return d.URL == "" && d.NeonAPIKey != "" && d.NeonProjectID != ""
}

// LoadFromEnv is Load over the process environment.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv)
}

// Load reads configuration through getenv. Every missing or malformed value
// is reported in the returned error.
func Load(getenv func(string) string) (*Config, error) {
	e := &env{getenv: getenv}

	appEnv := strings.ToLower(e.str("APP_ENV", EnvDevelopment))
	prod := appEnv == EnvProduction

	cfg := &Config{
		Env:           appEnv,
		Port:          e.int("PORT", 3000),
		AllowedOrigin: strings.TrimSpace(getenv("ALLOWED_ORIGIN")),
		LogLevel:      e.str("LOG_LEVEL", "INFO"),
		MetricsAddr:   e.strAllowEmpty("METRICS_ADDR", ":9090"),
		Database:      e.database(prod),
		RateLimit: RateLimitConfig{
			Window:            e.duration("RATE_LIMIT_WINDOW", 15*time.Minute),
			GlobalMax:         e.int("RATE_LIMIT_MAX", 100),
			StrictMax:         e.int("RATE_LIMIT_STRICT_MAX", 50),
			TrustedProxyCount: e.int("TRUSTED_PROXY_COUNT", 1),
		},
	}

	errs := e.errs
	if cfg.AllowedOrigin == "" {
		errs = append(errs, errors.New("ALLOWED_ORIGIN environment variable is required"))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port))
	}
	errs = append(errs, cfg.Database.validate()...)
	if cfg.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if cfg.RateLimit.GlobalMax < 1 || cfg.RateLimit.StrictMax < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_STRICT_MAX must be at least 1"))
	}
	if cfg.RateLimit.TrustedProxyCount < 0 {
		errs = append(errs, errors.New("TRUSTED_PROXY_COUNT must not be negative"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// LoadDatabaseFromEnv is LoadDatabase over the process environment.
func LoadDatabaseFromEnv() (DatabaseConfig, error) {
	return LoadDatabase(os.Getenv)
}

// LoadDatabase reads only the database settings. The migrate and admin
// commands use it so they run without the HTTP settings.
func LoadDatabase(getenv func(string) string) (DatabaseConfig, error) {
	e := &env{getenv: getenv}
	db := e.database(strings.EqualFold(e.str("APP_ENV", EnvDevelopment), EnvProduction))
	errs := append(e.errs, db.validate()...)
	if len(errs) > 0 {
		return DatabaseConfig{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return db, nil
}

// database reads the DatabaseConfig. Production gets a larger pool and a
// longer acquire timeout.
func (e *env) database(prod bool) DatabaseConfig {
	defaultMaxConns, defaultAcquire := 5, 2*time.Second
	if prod {
		defaultMaxConns, defaultAcquire = 20, 10*time.Second
	}
	return DatabaseConfig{
		URL:              strings.TrimSpace(e.getenv("DATABASE_URL")),
		NeonAPIKey:       strings.TrimSpace(e.getenv("NEON_API_KEY")),
		NeonProjectID:    strings.TrimSpace(e.getenv("NEON_PROJECT_ID")),
		NeonDatabase:     e.str("NEON_DATABASE", "neondb"),
		NeonRole:         e.str("NEON_ROLE", "neondb_owner"),
		NeonAPIURL:       strings.TrimRight(e.str("NEON_API_URL", "https://console.neon.tech/api/v2"), "/"),
		MaxConns:         int32(e.int("DB_POOL_MAX", defaultMaxConns)),
		MinConns:         int32(e.int("DB_POOL_MIN", 0)),
		AcquireTimeout:   e.duration("DB_ACQUIRE_TIMEOUT", defaultAcquire),
		ConnectTimeout:   e.duration("DB_CONNECT_TIMEOUT", 10*time.Second),
		StatementTimeout: e.duration("DB_STATEMENT_TIMEOUT", 0),
		IdleTimeout:      e.duration("DB_IDLE_TIMEOUT", 30*time.Second),
		ConnectRetries:   e.int("DB_CONNECT_RETRIES", 3),
		RetryDelay:       e.duration("DB_RETRY_DELAY", 2*time.Second),
	}
}

func (d *DatabaseConfig) validate() []error {
	var errs []error
	if d.URL == "" && !d.UsesRemoteConnectionString() {
		errs = append(errs, errors.New("DATABASE_URL (or NEON_API_KEY and NEON_PROJECT_ID) environment variable is required"))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_POOL_MAX must be at least 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, fmt.Errorf("DB_POOL_MIN must be between 0 and DB_POOL_MAX, got %d", d.MinConns))
	}
	if d.ConnectRetries < 1 {
		errs = append(errs, fmt.Errorf("DB_CONNECT_RETRIES must be at least 1, got %d", d.ConnectRetries))
	}
	return errs
}

// env wraps a lookup function and accumulates parse errors.
type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

// strAllowEmpty distinguishes "unset" from "set to empty" only through the
// literal value "off".
func (e *env) strAllowEmpty(key, def string) string {
	v := strings.TrimSpace(e.getenv(key))
	switch {
	case v == "":
		return def
	case strings.EqualFold(v, "off"):
		return ""
	default:
		return v
	}
}

func (e *env) int(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be an integer: %q", key, v))
		return def
	}
	return n
}

// duration accepts Go duration strings ("15m") or a bare number of
// milliseconds ("2000").
func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be a duration: %q", key, v))
		return def
	}
	return d
}
