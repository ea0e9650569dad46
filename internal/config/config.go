// Package config loads rentdesk configuration from defaults, an optional
// YAML file and RENTDESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. RENTDESK_DATABASE_PATH.
const EnvPrefix = "RENTDESK"

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Templates TemplatesConfig `mapstructure:"templates"`

	// ConfigFile is the file the values were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// DatabaseConfig configures the SQLite record store.
type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json or auto
}

// ServerConfig configures the rentd gRPC daemon.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	RateLimit bool   `mapstructure:"rate_limit"`
}

// TemplatesConfig configures template loading and listing.
type TemplatesConfig struct {
	ProjectDir      string `mapstructure:"project_dir"`
	DefaultPageSize int    `mapstructure:"default_page_size"`
	UserID          string `mapstructure:"user_id"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        defaultDatabasePath(),
			BusyTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      50071,
			RateLimit: true,
		},
		Templates: TemplatesConfig{
			ProjectDir:      ".",
			DefaultPageSize: 10,
			UserID:          "local",
		},
	}
}

// DefaultConfigDir returns ~/.config/rentdesk.
func DefaultConfigDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "rentdesk")
	}
	return ".rentdesk"
}

func defaultDatabasePath() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "share", "rentdesk", "rentdesk.db")
	}
	return "rentdesk.db"
}

// Load reads configuration. An empty path searches ./.rentdesk/config.yaml
// and ~/.config/rentdesk/config.yaml; a missing file is not an error unless
// path was given explicitly.
func Load(path string) (*Config, error) {
	return LoadWithViper(viper.New(), path)
}

// LoadWithViper is Load with a caller-supplied viper instance, so flags can
// be bound before reading.
func LoadWithViper(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(".", ".rentdesk"))
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.busy_timeout", cfg.Database.BusyTimeout)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.rate_limit", cfg.Server.RateLimit)
	v.SetDefault("templates.project_dir", cfg.Templates.ProjectDir)
	v.SetDefault("templates.default_page_size", cfg.Templates.DefaultPageSize)
	v.SetDefault("templates.user_id", cfg.Templates.UserID)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, errors.New("database.busy_timeout must not be negative"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "auto", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be auto, console or json", c.Logging.Format))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Templates.DefaultPageSize < 1 || c.Templates.DefaultPageSize > 100 {
		errs = append(errs, fmt.Errorf("templates.default_page_size %d must be between 1 and 100", c.Templates.DefaultPageSize))
	}
	return errors.Join(errs...)
}
