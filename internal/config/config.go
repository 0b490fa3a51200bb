// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. CLOUDCOST_API_URL.
const EnvPrefix = "CLOUDCOST"

// Config holds the application configuration.
type Config struct {
	APIBaseURL           string `validate:"required,url"`
	TokenPath            string `validate:"required"`
	DatabasePath         string `validate:"required"`
	LogPath              string
	LogLevel             string        `validate:"oneof=debug info warn error"`
	RequestTimeout       time.Duration `validate:"gt=0"`
	RequestsPerSecond    float64       `validate:"gte=0"`
	AutoRefreshInterval  time.Duration `validate:"gt=0"`
	SyncGraceDelay       time.Duration `validate:"gte=0"`
	StatusDuration       time.Duration `validate:"gt=0"`
	CacheTTL             time.Duration `validate:"gte=0"`
	AccountID            int           `validate:"gte=0"`
	SpendAlertPercent    float64       `validate:"gte=0"`
	DesktopNotifications bool

	// ConfigFile is the YAML file that was read, if any.
	ConfigFile string
}

// Default values
const (
	defaultAPIBaseURL          = "http://localhost:8000"
	defaultLogLevel            = "info"
	defaultRequestTimeout      = 30 * time.Second
	defaultRequestsPerSecond   = 5.0
	defaultAutoRefreshInterval = 4 * time.Hour
	defaultSyncGraceDelay      = 3 * time.Second
	defaultStatusDuration      = 3 * time.Second
	defaultCacheTTL            = 15 * time.Minute
	defaultSpendAlertPercent   = 25.0
)

// Load reads configuration from .env files, an optional config.yaml and
// environment variables. Environment wins over the file, the file wins over defaults.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.TokenPath)); err != nil {
		return nil, err
	}
	if cfg.LogPath != "" {
		if err := ensureDir(filepath.Dir(cfg.LogPath)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks struct constraints and returns a readable error.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir())
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", defaultAPIBaseURL)
	v.SetDefault("token_path", filepath.Join(configDir(), "token.json"))
	v.SetDefault("database_path", filepath.Join(configDir(), "snapshots.db"))
	v.SetDefault("log_path", filepath.Join(configDir(), "ccd.log"))
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("requests_per_second", defaultRequestsPerSecond)
	v.SetDefault("account_id", 0)
	v.SetDefault("spend_alert_percent", defaultSpendAlertPercent)
	v.SetDefault("desktop_notifications", true)

	return v
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		APIBaseURL:           strings.TrimRight(v.GetString("api_url"), "/"),
		TokenPath:            v.GetString("token_path"),
		DatabasePath:         v.GetString("database_path"),
		LogPath:              v.GetString("log_path"),
		LogLevel:             strings.ToLower(v.GetString("log_level")),
		RequestTimeout:       getDuration(v, "request_timeout", defaultRequestTimeout),
		RequestsPerSecond:    v.GetFloat64("requests_per_second"),
		AutoRefreshInterval:  getDuration(v, "auto_refresh_interval", defaultAutoRefreshInterval),
		SyncGraceDelay:       getDuration(v, "sync_grace_delay", defaultSyncGraceDelay),
		StatusDuration:       getDuration(v, "status_duration", defaultStatusDuration),
		CacheTTL:             getDuration(v, "cache_ttl", defaultCacheTTL),
		AccountID:            v.GetInt("account_id"),
		SpendAlertPercent:    v.GetFloat64("spend_alert_percent"),
		DesktopNotifications: v.GetBool("desktop_notifications"),
		ConfigFile:           v.ConfigFileUsed(),
	}
	return cfg
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "cloudcost", ".env"),
			filepath.Join(home, ".cloudcost", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// configDir returns ~/.config/cloudcost, or the working directory when home is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "cloudcost")
}

// getDuration reads a duration key from viper.
// Accepts values like "30s", "4h", or a plain number of seconds.
func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	return parseDuration(v.GetString(key), defaultValue)
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	// Try parsing as seconds if no unit specified
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
