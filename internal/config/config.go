// Package config loads service configuration from defaults, an optional
// file, the environment and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/erazemk/cautelas/internal/auth"
)

// EnvPrefix prefixes every environment variable, e.g. CAUTELAS_DB_PATH.
const EnvPrefix = "CAUTELAS"

// Config is the complete service configuration.
type Config struct {
	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	DB struct {
		Path string
	} `mapstructure:"db"`

	Log struct {
		Level string
		File  string
	} `mapstructure:"log"`

	Admin struct {
		Email string
	} `mapstructure:"admin"`

	Templates struct {
		Dir string
	} `mapstructure:"templates"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Auth struct {
		TokenTTL          time.Duration `mapstructure:"token_ttl"`
		AllowRegistration bool          `mapstructure:"allow_registration"`
	} `mapstructure:"auth"`
}

var defaults = map[string]any{
	"http.addr":               ":8080",
	"db.path":                 "cautelas.db",
	"log.level":               "info",
	"log.file":                "",
	"admin.email":             "admin@cautelas.local",
	"templates.dir":           "templates",
	"metrics.enabled":         true,
	"auth.token_ttl":          auth.DefaultTokenExpiry,
	"auth.allow_registration": false,
}

// Load reads the configuration. An empty path looks for an optional
// cautelas.{yaml,toml,json} in the working directory; a non-empty path must
// exist. Environment variables override the file, and a .env file in the
// working directory is loaded into the environment first if present.
func Load(path string) (Config, error) {
	var c Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cautelas")
		v.AddConfigPath(".")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return c, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks values that cannot be used as given.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
