// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Backend types.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Player   PlayerConfig   `yaml:"player"`
	Playback PlaybackConfig `yaml:"playback"`
	Backend  BackendConfig  `yaml:"backend"`
	Storage  StorageConfig  `yaml:"storage"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Sentry   SentryConfig   `yaml:"sentry"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr          string      `yaml:"addr" default:":8080"`
	PublicBaseURL string      `yaml:"public_base_url" validate:"omitempty,url"`
	Hooks         HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlayerConfig represents player control configuration.
type PlayerConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// PlaybackConfig represents playback behavior.
type PlaybackConfig struct {
	// StopAtEnd stops after the last track instead of wrapping around
	// when both repeat and shuffle are off.
	StopAtEnd bool `yaml:"stop_at_end"`

	// Initial mode of the session.
	Shuffle bool   `yaml:"shuffle"`
	Repeat  string `yaml:"repeat" default:"off" validate:"omitempty,oneof=off all one"`
}

// BackendConfig represents the catalog backend configuration.
type BackendConfig struct {
	Type       string      `yaml:"type" default:"remote" validate:"oneof=remote local"`
	URL        string      `yaml:"url" validate:"required_if=Type remote"`
	AnonKey    string      `yaml:"anon_key" validate:"required_if=Type remote"`
	Email      string      `yaml:"email" validate:"omitempty,email"`
	Password   string      `yaml:"password"`
	TimeoutSec int         `yaml:"timeout_sec" default:"30" validate:"gte=1,lte=300"`
	DBPath     string      `yaml:"db_path" default:"data/musicbox.db"`
	ObjectsDir string      `yaml:"objects_dir" default:"data/objects"`
	Setup      SetupConfig `yaml:"setup"`
}

// SetupConfig represents the schema bootstrap retry policy.
type SetupConfig struct {
	Retries     int `yaml:"retries" default:"3" validate:"gte=1,lte=10"`
	BaseDelayMs int `yaml:"base_delay_ms" default:"1000" validate:"gte=0,lte=60000"`
}

// StorageConfig represents object storage buckets.
type StorageConfig struct {
	SongsBucket   string `yaml:"songs_bucket" default:"songs"`
	ArtworkBucket string `yaml:"artwork_bucket" default:"album-artworks"`
}

// UploadsConfig represents upload checks.
type UploadsConfig struct {
	Filters map[string]FilterConfig `yaml:"filters"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SentryConfig represents error reporting configuration.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment" default:"development"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("BACKEND_ANON_KEY"); v != "" {
		c.Backend.AnonKey = v
	}
	if v := os.Getenv("BACKEND_EMAIL"); v != "" {
		c.Backend.Email = v
	}
	if v := os.Getenv("BACKEND_PASSWORD"); v != "" {
		c.Backend.Password = v
	}
	if v := os.Getenv("PLAYER_TOKEN"); v != "" {
		c.Player.Token = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		c.Sentry.DSN = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Backend.URL != "" {
		if err := validate.Var(c.Backend.URL, "url"); err != nil {
			return errors.Wrapf(err, "invalid backend.url %q", c.Backend.URL)
		}
	}

	if c.Backend.Password != "" && c.Backend.Email == "" {
		return errors.New("backend.password is set but backend.email is empty")
	}

	return nil
}

// HasCredentials reports whether the server should sign in to the backend.
func (c *Config) HasCredentials() bool {
	return c.Backend.Email != "" && c.Backend.Password != ""
}

// IsFilterEnabled checks if an upload filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Uploads.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for an upload filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Uploads.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
