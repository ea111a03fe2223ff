// Package config handles the XDG configuration directory, the optional
// config file and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// AppName is the application directory name.
	AppName = "taskmagic"

	// ConfigFile is the optional settings filename.
	ConfigFile = "config.yaml"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// EnvPrefix prefixes environment overrides, e.g. TASKMAGIC_API_URL.
	EnvPrefix = "TASKMAGIC"

	// DefaultAPIURL is the base path of the Task Magic API.
	DefaultAPIURL = "http://localhost:8000/api"

	// DefaultTimeout bounds every API call.
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the API base URL without a trailing slash.
	APIURL string

	// Timeout bounds a single API call.
	Timeout time.Duration

	// Email is the default login email.
	Email string

	// Password is only ever read from TASKMAGIC_PASSWORD, never from
	// config.yaml.
	Password string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Logger is never nil after New.
	Logger *zap.Logger
}

// New creates a Config rooted at configDir, or at the default directory when
// configDir is empty. Settings come from <dir>/config.yaml if present, then
// TASKMAGIC_* environment variables.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("email", "")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	}

	env := viper.New()
	env.SetEnvPrefix(EnvPrefix)
	if err := env.BindEnv("password"); err != nil {
		return nil, err
	}

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Config{
		Dir:      dir,
		APIURL:   strings.TrimRight(v.GetString("api_url"), "/"),
		Timeout:  timeout,
		Email:    v.GetString("email"),
		Password: env.GetString("password"),
		Logger:   zap.NewNop(),
	}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// Log returns the configured logger, or a no-op logger for hand-built configs.
func (c *Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
