// Package config loads ytfeed settings from defaults, an optional YAML
// file, a .env file and YTFEED_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "YTFEED"

// Upload sources.
const (
	SourceAPI = "api"
	SourceRSS = "rss"
)

// Config represents the complete ytfeed configuration.
type Config struct {
	ConfigDir string        `mapstructure:"config_dir"`
	Auth      AuthConfig    `mapstructure:"auth"`
	API       APIConfig     `mapstructure:"api"`
	Uploads   UploadsConfig `mapstructure:"uploads"`
	Feed      FeedConfig    `mapstructure:"feed"`
	Log       LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// AuthConfig locates the OAuth client secrets and the cached token.
type AuthConfig struct {
	ClientSecrets string `mapstructure:"client_secrets"`
	TokenFile     string `mapstructure:"token_file"`
	CallbackPort  int    `mapstructure:"callback_port"`
	Interactive   bool   `mapstructure:"interactive"`
}

// APIConfig tunes the YouTube Data API client.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	PlaylistCacheSize int           `mapstructure:"playlist_cache_size"`
}

// UploadsConfig selects where channel uploads are read from.
type UploadsConfig struct {
	Source     string `mapstructure:"source"`
	RSSBaseURL string `mapstructure:"rss_base_url"`
}

// FeedConfig holds aggregation defaults.
type FeedConfig struct {
	LookbackHours float64 `mapstructure:"lookback_hours"`
	Limit         int     `mapstructure:"limit"`
	MaxPerChannel int     `mapstructure:"max_per_channel"`
	Concurrency   int     `mapstructure:"concurrency"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. cfgFile may be empty, in which case
// config.yaml is looked up in the config directory. overrides (typically
// CLI flags) win over every other source.
func Load(cfgFile string, overrides map[string]any) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, value := range overrides {
		v.Set(key, value)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("config_dir"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigDir is ~/.config/ytfeed.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ytfeed"
	}
	return filepath.Join(home, ".config", "ytfeed")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_dir", DefaultConfigDir())

	// Paths under config_dir are filled in after unmarshaling.
	v.SetDefault("auth.client_secrets", "")
	v.SetDefault("auth.token_file", "")
	v.SetDefault("auth.callback_port", 8085)
	v.SetDefault("auth.interactive", true)

	v.SetDefault("api.base_url", "https://www.googleapis.com")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.requests_per_second", 0.0)
	v.SetDefault("api.playlist_cache_size", 512)

	v.SetDefault("uploads.source", SourceAPI)
	v.SetDefault("uploads.rss_base_url", "https://www.youtube.com")

	v.SetDefault("feed.lookback_hours", 24.0)
	v.SetDefault("feed.limit", 50)
	v.SetDefault("feed.max_per_channel", 10)
	v.SetDefault("feed.concurrency", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func (c *Config) resolvePaths() {
	if c.Auth.ClientSecrets == "" {
		c.Auth.ClientSecrets = filepath.Join(c.ConfigDir, "credentials.json")
	}
	if c.Auth.TokenFile == "" {
		c.Auth.TokenFile = filepath.Join(c.ConfigDir, "token.json")
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Uploads.Source {
	case SourceAPI, SourceRSS:
	default:
		return fmt.Errorf("invalid uploads source: %q (must be %s or %s)", c.Uploads.Source, SourceAPI, SourceRSS)
	}

	if c.Feed.LookbackHours <= 0 {
		return fmt.Errorf("feed.lookback_hours must be positive, got %v", c.Feed.LookbackHours)
	}
	if c.Feed.Limit < 0 {
		return fmt.Errorf("feed.limit must not be negative, got %d", c.Feed.Limit)
	}
	if c.Feed.MaxPerChannel < 1 || c.Feed.MaxPerChannel > 50 {
		return fmt.Errorf("feed.max_per_channel must be between 1 and 50, got %d", c.Feed.MaxPerChannel)
	}
	if c.Feed.Concurrency < 1 {
		return fmt.Errorf("feed.concurrency must be at least 1, got %d", c.Feed.Concurrency)
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", c.API.Timeout)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative, got %v", c.API.RequestsPerSecond)
	}
	if c.API.PlaylistCacheSize < 0 {
		return fmt.Errorf("api.playlist_cache_size must not be negative, got %d", c.API.PlaylistCacheSize)
	}
	if c.Auth.CallbackPort < 0 || c.Auth.CallbackPort > 65535 {
		return fmt.Errorf("auth.callback_port out of range: %d", c.Auth.CallbackPort)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}
	return nil
}
