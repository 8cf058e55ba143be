// Package config loads server settings from defaults, an optional .env file,
// an optional YAML file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Mode string `yaml:"mode" env:"DROPIN_MODE"` // debug | release

	HTTP struct {
		Addr            string        `yaml:"addr" env:"HTTP_ADDR"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
	} `yaml:"http"`

	GRPC struct {
		Addr       string `yaml:"addr" env:"GRPC_ADDR"` // empty disables the ops endpoint
		Reflection bool   `yaml:"reflection" env:"GRPC_REFLECTION"`
	} `yaml:"grpc"`

	Database struct {
		DSN      string `yaml:"dsn" env:"DATABASE_URL"`
		MaxConns int32  `yaml:"max_conns" env:"DATABASE_MAX_CONNS"`
		Migrate  bool   `yaml:"migrate" env:"DATABASE_MIGRATE"`
	} `yaml:"database"`

	Admin struct {
		PasswordHash    string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
		MaxFailures     int           `yaml:"max_failures" env:"ADMIN_MAX_FAILURES"`
		Window          time.Duration `yaml:"window" env:"ADMIN_WINDOW"`
		BlockFor        time.Duration `yaml:"block_for" env:"ADMIN_BLOCK_FOR"`
		ProtectRegistry bool          `yaml:"protect_registry" env:"ADMIN_PROTECT_REGISTRY"`
	} `yaml:"admin"`

	Auth struct {
		SigningKey      string        `yaml:"signing_key" env:"AUTH_SIGNING_KEY"`
		TokenTTL        time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL"`
		EnforceIdentity bool          `yaml:"enforce_identity" env:"AUTH_ENFORCE_IDENTITY"`
	} `yaml:"auth"`

	Calendar struct {
		DefaultWindowDays int    `yaml:"default_window_days" env:"CALENDAR_WINDOW_DAYS"`
		Timezone          string `yaml:"timezone" env:"CALENDAR_TIMEZONE"`
	} `yaml:"calendar"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"` // json | console
	} `yaml:"log"`
}

// Default returns a configuration with every optional setting filled.
func Default() *Config {
	c := &Config{Mode: "release"}
	c.HTTP.Addr = ":8080"
	c.HTTP.ReadTimeout = 10 * time.Second
	c.HTTP.WriteTimeout = 10 * time.Second
	c.HTTP.ShutdownTimeout = 5 * time.Second
	c.Database.MaxConns = 10
	c.Database.Migrate = true
	c.Admin.MaxFailures = 5
	c.Admin.Window = 15 * time.Minute
	c.Admin.BlockFor = 15 * time.Minute
	c.Auth.TokenTTL = 30 * 24 * time.Hour
	c.Calendar.DefaultWindowDays = 7
	c.Calendar.Timezone = "Local"
	c.Log.Level = "info"
	c.Log.Format = "json"
	return c
}

// Load builds the configuration. envFile and path may be empty; a missing envFile is
// ignored, a missing YAML file is an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(c); err != nil {
		return nil, err
	}
	// PORT is the common platform shorthand; HTTP_ADDR wins when both are set.
	if port, ok := os.LookupEnv("PORT"); ok && os.Getenv("HTTP_ADDR") == "" {
		c.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Mode != "debug" && c.Mode != "release" {
		result = multierror.Append(result, fmt.Errorf("mode must be debug or release, got %q", c.Mode))
	}
	if c.HTTP.Addr == "" {
		result = multierror.Append(result, errors.New("http.addr is required"))
	}
	if c.Database.DSN == "" {
		result = multierror.Append(result, errors.New("database.dsn (DATABASE_URL) is required"))
	}
	if c.Admin.MaxFailures <= 0 {
		result = multierror.Append(result, errors.New("admin.max_failures must be positive"))
	}
	if c.Admin.Window <= 0 || c.Admin.BlockFor <= 0 {
		result = multierror.Append(result, errors.New("admin.window and admin.block_for must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		result = multierror.Append(result, errors.New("auth.token_ttl must be positive"))
	}
	if c.Calendar.DefaultWindowDays < 1 || c.Calendar.DefaultWindowDays > 31 {
		result = multierror.Append(result, errors.New("calendar.default_window_days must be within 1..31"))
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		result = multierror.Append(result, fmt.Errorf("calendar.timezone: %w", err))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		result = multierror.Append(result, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return result.ErrorOrNil()
}

// Location returns the calendar time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Logger builds the zap logger described by the log settings.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = lvl
	return zc.Build()
}
