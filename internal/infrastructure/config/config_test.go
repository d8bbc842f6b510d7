package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so a stray config.toml
// in the package directory cannot leak in.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Empty(t, cfg.API.BasePath)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
		assert.Equal(t, "header", cfg.API.APIKeyIn)
		assert.Equal(t, "memory", cfg.Storage.Driver)
		assert.Equal(t, "takeout:", cfg.Storage.KeyPrefix)
		assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr())
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "stderr", cfg.Log.Output)
		assert.Equal(t, "8080", cfg.DevServer.Port)
		assert.Equal(t, int64(42), cfg.DevServer.Seed)
	})

	t.Run("loads values from environment variables with TAKEOUT prefix", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TAKEOUT_API_BASE_PATH", "http://shop.local/api")
		t.Setenv("TAKEOUT_API_TIMEOUT", "5s")
		t.Setenv("TAKEOUT_API_ACCESS_TOKEN", "tok")
		t.Setenv("TAKEOUT_STORAGE_DRIVER", "redis")
		t.Setenv("TAKEOUT_LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "http://shop.local/api", cfg.API.BasePath)
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.Equal(t, "tok", cfg.API.AccessToken)
		assert.Equal(t, "redis", cfg.Storage.Driver)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("reads config.toml from working directory", func(t *testing.T) {
		dir := chdirTemp(t)
		content := `
[api]
base_path = "http://file.local/api"
rate_limit_qps = 2.5

[storage]
driver = "sqlite"
dsn = "state.db"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "http://file.local/api", cfg.API.BasePath)
		assert.InDelta(t, 2.5, cfg.API.RateLimitQPS, 0.001)
		assert.Equal(t, 1, cfg.API.RateLimitBurst)
		assert.Equal(t, "sqlite", cfg.Storage.Driver)
		assert.Equal(t, "state.db", cfg.Storage.DSN)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := chdirTemp(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
			[]byte("[api]\nbase_path = \"http://file.local/api\"\n"), 0o600))
		t.Setenv("TAKEOUT_API_BASE_PATH", "http://env.local/api")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://env.local/api", cfg.API.BasePath)
	})
}

func TestLoadFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[devserver]\nport = \"9090\"\nseed = 7\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.DevServer.Port)
	assert.Equal(t, int64(7), cfg.DevServer.Seed)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name: "rejects multiple credentials",
			mutate: func(c *Config) {
				c.API.APIKey = "k"
				c.API.AccessToken = "t"
			},
			wantErr: "only one credential",
		},
		{
			name:    "rejects username without password",
			mutate:  func(c *Config) { c.API.Username = "alice" },
			wantErr: "api.password is required",
		},
		{
			name:    "rejects unknown api key location",
			mutate:  func(c *Config) { c.API.APIKeyIn = "cookie" },
			wantErr: "api.api_key_in",
		},
		{
			name:    "rejects unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "mongo" },
			wantErr: "storage.driver",
		},
		{
			name:    "postgres needs dsn",
			mutate:  func(c *Config) { c.Storage.Driver = "postgres" },
			wantErr: "storage.dsn",
		},
		{
			name:    "rejects negative qps",
			mutate:  func(c *Config) { c.API.RateLimitQPS = -1 },
			wantErr: "rate_limit_qps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
