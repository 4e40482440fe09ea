// Package config loads vrste settings from VRSTE_* environment variables.
// Command line flags override what is loaded here.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "VRSTE_"

// Image store backends.
const (
	ImageStoreDB = "db"
	ImageStoreS3 = "s3"
)

// Config holds all application configuration.
type Config struct {
	DBPath    string `env:"DB" envDefault:"vrste.sqlite3"`
	Addr      string `env:"ADDR" envDefault:":8080"`
	AdminUser string `env:"ADMIN_USER" envDefault:"Admin"`

	// Logging
	LogPath   string `env:"LOG"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Optional Redis cache for author display names.
	RedisURL string `env:"REDIS_URL"`

	// Species photo storage.
	ImageStore  string `env:"IMAGE_STORE" envDefault:"db"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// Server timeouts
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Upload size limit in bytes for species photos.
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`

	// Secure marks auth cookies Secure; enable behind TLS.
	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"false"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	return load(nil)
}

// load parses environ when non-nil, else the process environment.
func load(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.ImageStore {
	case ImageStoreDB:
	case ImageStoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%sS3_BUCKET is required when %sIMAGE_STORE=s3", EnvPrefix, EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown image store %q (want %q or %q)", c.ImageStore, ImageStoreDB, ImageStoreS3)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// JSONLogs reports whether logs are written as JSON.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}
