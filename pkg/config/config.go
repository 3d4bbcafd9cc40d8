package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config captures service level configuration loaded from config.yaml and the environment.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	CORS     CORSConfig     `mapstructure:"cors" yaml:"cors"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Import   ImportConfig   `mapstructure:"import" yaml:"import"`
}

// ServerConfig defines HTTP server options.
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig defines the database backend configuration.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	// URL takes precedence over the per-driver settings (DATABASE_URL).
	URL      string         `mapstructure:"url" yaml:"url"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	MySQL    MySQLConfig    `mapstructure:"mysql" yaml:"mysql"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`

	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

// SQLiteConfig contains SQLite specific settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MySQLConfig contains MySQL specific connection details.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// PostgresConfig contains PostgreSQL specific connection details.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or console
}

// CORSConfig defines CORS middleware settings.
type CORSConfig struct {
	AllowOrigin      string `mapstructure:"allow_origin" yaml:"allow_origin"`
	AllowMethods     string `mapstructure:"allow_methods" yaml:"allow_methods"`
	AllowHeaders     string `mapstructure:"allow_headers" yaml:"allow_headers"`
	AllowCredentials bool   `mapstructure:"allow_credentials" yaml:"allow_credentials"`
}

// AuthConfig configures the bearer token gate in front of /api/v1.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Secret  string `mapstructure:"secret" yaml:"secret"`
	Issuer  string `mapstructure:"issuer" yaml:"issuer"`
}

// StorageConfig selects where uploaded import files and export snapshots are archived.
type StorageConfig struct {
	Type  string             `mapstructure:"type" yaml:"type"` // none, local or s3
	Local LocalStorageConfig `mapstructure:"local" yaml:"local"`
	S3    S3StorageConfig    `mapstructure:"s3" yaml:"s3"`
}

// LocalStorageConfig holds local storage configuration.
type LocalStorageConfig struct {
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// S3StorageConfig holds S3-compatible storage configuration.
type S3StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
}

// RedisConfig defines Redis connection settings for the import lock.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Address  string `mapstructure:"address" yaml:"address"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// ImportConfig tunes the spreadsheet reconciliation import.
type ImportConfig struct {
	// ReactivateRetired makes import revive retired assets holding the row's serial,
	// the same way interactive creation does. When false a serial present on any row
	// (active or retired) is skipped as a duplicate.
	ReactivateRetired bool          `mapstructure:"reactivate_retired" yaml:"reactivate_retired"`
	MaxUploadSize     int64         `mapstructure:"max_upload_size" yaml:"max_upload_size"`
	// MaxConcurrent caps in-flight uploads per process; 0 disables the cap.
	MaxConcurrent     int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	LockTTL           time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	LockWait          time.Duration `mapstructure:"lock_wait" yaml:"lock_wait"`
}

const (
	minOpenConns = 1
	maxOpenConns = 20
)

// Load reads a YAML configuration file and applies environment overrides.
// It searches in the current working directory first, then next to the binary executable.
// Environment variables use the upper-cased key path, e.g. DATABASE_URL or LOG_LEVEL.
func Load(name string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configPath := findConfigFile(name); configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks for configuration errors that would only surface at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "sqlite3", "mysql", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Auth.Enabled && len(c.Auth.Secret) < 16 {
		return fmt.Errorf("auth.secret must be at least 16 characters when auth is enabled")
	}
	switch c.Storage.Type {
	case "", "none", "local", "s3":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	return nil
}

// YAML renders the effective configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	masked.Auth.Secret = mask(masked.Auth.Secret)
	masked.Redis.Password = mask(masked.Redis.Password)
	masked.Storage.S3.SecretKey = mask(masked.Storage.S3.SecretKey)
	masked.Database.URL = mask(masked.Database.URL)
	return yaml.Marshal(&masked)
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return "******"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite.path", "data/assets.db")
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allow_origin", "*")
	v.SetDefault("cors.allow_methods", "GET,POST,PUT,DELETE,OPTIONS")
	v.SetDefault("cors.allow_headers", "*")
	v.SetDefault("cors.allow_credentials", false)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "asset_tracker")

	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.local.base_path", "data/archive")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.path_style", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("import.reactivate_retired", true)
	v.SetDefault("import.max_upload_size", 10*1024*1024)
	v.SetDefault("import.max_concurrent", 1)
	v.SetDefault("import.lock_ttl", "5m")
	v.SetDefault("import.lock_wait", "10s")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	// Hosting platforms hand out the listen port through PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("SERVER_ADDRESS") == "" {
		cfg.Server.Address = ":" + port
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.URL != "" && isPostgresURL(cfg.Database.URL) {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "data/assets.db"
	}
	cfg.Database.MaxOpenConns = clamp(cfg.Database.MaxOpenConns, minOpenConns, maxOpenConns)
	cfg.Database.MaxIdleConns = clamp(cfg.Database.MaxIdleConns, 0, cfg.Database.MaxOpenConns)
	if cfg.Import.MaxUploadSize <= 0 {
		cfg.Import.MaxUploadSize = 10 * 1024 * 1024
	}
}

func isPostgresURL(raw string) bool {
	return strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://")
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// findConfigFile searches for a config file in the current directory first,
// then next to the binary executable. Returns the full path or empty string.
func findConfigFile(name string) string {
	if name == "" {
		return ""
	}
	if _, err := os.Stat(name); err == nil {
		abs, _ := filepath.Abs(name)
		return abs
	}

	exe, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
