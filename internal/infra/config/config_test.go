package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Player: PlayerConfig{Token: "test-player-token"},
		Backend: BackendConfig{
			Type:       BackendRemote,
			URL:        "https://example.backend.test",
			AnonKey:    "anon-key",
			TimeoutSec: 30,
			Setup:      SetupConfig{Retries: 3, BaseDelayMs: 1000},
		},
	}
}

func TestConfig_Validate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing player token",
			mutate:  func(c *Config) { c.Player.Token = "" },
			wantErr: true,
			errMsg:  "Token",
		},
		{
			name:    "missing backend url for remote",
			mutate:  func(c *Config) { c.Backend.URL = "" },
			wantErr: true,
			errMsg:  "URL",
		},
		{
			name:    "missing anon key for remote",
			mutate:  func(c *Config) { c.Backend.AnonKey = "" },
			wantErr: true,
			errMsg:  "AnonKey",
		},
		{
			name: "local backend needs no url",
			mutate: func(c *Config) {
				c.Backend.Type = BackendLocal
				c.Backend.URL = ""
				c.Backend.AnonKey = ""
			},
			wantErr: false,
		},
		{
			name:    "unknown backend type",
			mutate:  func(c *Config) { c.Backend.Type = "mysql" },
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name:    "malformed backend url",
			mutate:  func(c *Config) { c.Backend.URL = "not a url" },
			wantErr: true,
			errMsg:  "backend.url",
		},
		{
			name:    "password without email",
			mutate:  func(c *Config) { c.Backend.Password = "secret" },
			wantErr: true,
			errMsg:  "backend.email",
		},
		{
			name:    "too many setup retries",
			mutate:  func(c *Config) { c.Backend.Setup.Retries = 50 },
			wantErr: true,
			errMsg:  "Retries",
		},
		{
			name:    "unknown repeat mode",
			mutate:  func(c *Config) { c.Playback.Repeat = "twice" },
			wantErr: true,
			errMsg:  "Repeat",
		},
		{
			name:    "repeat one",
			mutate:  func(c *Config) { c.Playback.Repeat = "one" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("BACKEND_ANON_KEY", "")
	t.Setenv("BACKEND_EMAIL", "")
	t.Setenv("BACKEND_PASSWORD", "")
	t.Setenv("PLAYER_TOKEN", "")

	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
player:
  token: secret
backend:
  url: https://example.backend.test
  anon_key: anon
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendRemote, cfg.Backend.Type)
	assert.Equal(t, 3, cfg.Backend.Setup.Retries)
	assert.Equal(t, 1000, cfg.Backend.Setup.BaseDelayMs)
	assert.Equal(t, "data/musicbox.db", cfg.Backend.DBPath)
	assert.Equal(t, "songs", cfg.Storage.SongsBucket)
	assert.Equal(t, "album-artworks", cfg.Storage.ArtworkBucket)
	assert.False(t, cfg.Playback.StopAtEnd)
	assert.False(t, cfg.Playback.Shuffle)
	assert.Equal(t, "off", cfg.Playback.Repeat)
	assert.False(t, cfg.HasCredentials())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://env.backend.test")
	t.Setenv("BACKEND_ANON_KEY", "env-anon")
	t.Setenv("BACKEND_EMAIL", "dj@example.com")
	t.Setenv("BACKEND_PASSWORD", "hunter2")
	t.Setenv("PLAYER_TOKEN", "env-token")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")

	cfg, err := Parse([]byte(`
backend:
  url: https://file.backend.test
playback:
  stop_at_end: true
`))
	require.NoError(t, err)

	assert.Equal(t, "https://env.backend.test", cfg.Backend.URL)
	assert.Equal(t, "env-anon", cfg.Backend.AnonKey)
	assert.Equal(t, "env-token", cfg.Player.Token)
	assert.Equal(t, "https://key@sentry.example/1", cfg.Sentry.DSN)
	assert.True(t, cfg.HasCredentials())
	assert.True(t, cfg.Playback.StopAtEnd)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfig_Filters(t *testing.T) {
	cfg := &Config{
		Uploads: UploadsConfig{
			Filters: map[string]FilterConfig{
				"size_limit_filter": {Enabled: true, Settings: map[string]any{"max_mb": 20}},
				"mimetype_filter":   {Enabled: false},
			},
		},
	}

	assert.True(t, cfg.IsFilterEnabled("size_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("mimetype_filter"))
	assert.False(t, cfg.IsFilterEnabled("unknown"))
	assert.Equal(t, map[string]any{"max_mb": 20}, cfg.GetFilterSettings("size_limit_filter"))
	assert.Nil(t, cfg.GetFilterSettings("unknown"))
}
