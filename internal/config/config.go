// Package config handles application configuration. Values are layered, last
// wins: built-in defaults, an optional YAML file, an optional .env file, and
// PAGECRAFT_-prefixed environment variables where "__" separates sections
// (PAGECRAFT_DATABASE__HOST sets database.host).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "PAGECRAFT_"

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration values.
type Config struct {
	Env      string   `koanf:"env" validate:"oneof=development production testing"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`
	Valkey   Valkey   `koanf:"valkey"`
	Storage  Storage  `koanf:"storage"`
	Log      Log      `koanf:"log"`
	Site     Site     `koanf:"site"`
}

// Server settings.
type Server struct {
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// WriteLimit caps pipeline writes per actor within WriteWindow. Zero
	// disables the limiter.
	WriteLimit  int           `koanf:"write_limit" validate:"gte=0"`
	WriteWindow time.Duration `koanf:"write_window" validate:"gt=0"`
}

// Database holds the PostgreSQL connection and pool settings. Driver
// "memory" runs against the in-process store and ignores the rest.
type Database struct {
	Driver          string        `koanf:"driver" validate:"oneof=postgres memory"`
	Host            string        `koanf:"host" validate:"required_if=Driver postgres"`
	Port            string        `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"gte=0"`
}

// Valkey (Redis-compatible cache). An empty Host disables the site cache.
type Valkey struct {
	Host     string        `koanf:"host"`
	Port     string        `koanf:"port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0,lte=15"`
	SiteTTL  time.Duration `koanf:"site_ttl" validate:"gte=0"`
}

// Storage configures the S3-compatible snapshot archive. It is disabled
// unless Endpoint, credentials, and Bucket are all set.
type Storage struct {
	Endpoint  string `koanf:"endpoint" validate:"omitempty,url"`
	Region    string `koanf:"region"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	Prefix    string `koanf:"prefix"`
}

// Log settings. Format defaults to text in development and json otherwise.
// A non-empty File adds a rotating file sink next to stdout.
type Log struct {
	Level      string `koanf:"level" validate:"oneof=debug info warn error"`
	Format     string `koanf:"format" validate:"omitempty,oneof=text json"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
}

// Site settings for the publish pipeline.
type Site struct {
	BaseDomain   string `koanf:"base_domain"`
	Scheme       string `koanf:"scheme" validate:"oneof=http https"`
	SlugAttempts int    `koanf:"slug_attempts" validate:"gte=1"`
	HistoryLimit int    `koanf:"history_limit" validate:"gte=1"`
}

var defaults = map[string]any{
	"env": "development",

	"server.host":             "0.0.0.0",
	"server.port":             "8080",
	"server.read_timeout":     "5s",
	"server.write_timeout":    "30s",
	"server.idle_timeout":     "120s",
	"server.shutdown_timeout": "30s",
	"server.write_limit":      60,
	"server.write_window":     "1m",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               "5432",
	"database.user":               "pagecraft",
	"database.password":           "changeme",
	"database.name":               "pagecraft",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     10,
	"database.conn_max_lifetime":  "30m",
	"database.conn_max_idle_time": "5m",

	"valkey.host":     "localhost",
	"valkey.port":     "6379",
	"valkey.db":       0,
	"valkey.site_ttl": "5m",

	"storage.region": "us-east-1",
	"storage.prefix": "snapshots",

	"log.level":        "info",
	"log.max_size_mb":  100,
	"log.max_backups":  5,
	"log.max_age_days": 30,

	"site.base_domain":   "localhost",
	"site.scheme":        "https",
	"site.slug_attempts": 20,
	"site.history_limit": 300,
}

var validate = validator.New()

// Options tells Load where to find optional files. Missing files are
// skipped.
type Options struct {
	File    string
	EnvFile string
}

// Load builds the configuration from defaults, opts.File, opts.EnvFile, and
// the environment, then validates it. Returns an error if critical values
// are missing in production mode.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("config default %s: %w", key, err)
		}
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", opts.File, err)
		}
	}

	if opts.EnvFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config env file %s: %w", opts.EnvFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}

	if cfg.Env == "production" && cfg.Database.Driver == DriverPostgres {
		if cfg.Database.Password == "changeme" {
			return nil, fmt.Errorf("%sDATABASE__PASSWORD must be set in production", EnvPrefix)
		}
	}

	return &cfg, nil
}

// envKey maps PAGECRAFT_DATABASE__MAX_OPEN_CONNS to database.max_open_conns.
func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// ValkeyAddr returns the Valkey address, or "" when the cache is disabled.
func (c *Config) ValkeyAddr() string {
	if c.Valkey.Host == "" {
		return ""
	}
	return net.JoinHostPort(c.Valkey.Host, c.Valkey.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// LogFormat resolves the effective log format.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsDev() {
		return "text"
	}
	return "json"
}

// EnvFileFromEnviron returns the .env path named by PAGECRAFT_ENV_FILE, or
// ".env".
func EnvFileFromEnviron() string {
	if p := os.Getenv(EnvPrefix + "ENV_FILE"); p != "" {
		return p
	}
	return ".env"
}
