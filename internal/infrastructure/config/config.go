package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all client configuration
type Config struct {
	API       APIConfig
	Storage   StorageConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	DevServer DevServerConfig
}

// APIConfig holds backend connection and credential settings.
// At most one credential variant may be set.
type APIConfig struct {
	BasePath       string // empty means the client's built-in default
	Timeout        time.Duration
	UserAgent      string
	APIKey         string
	APIKeyName     string
	APIKeyIn       string // header, query
	Username       string
	Password       string
	AccessToken    string
	OAuthScopes    []string
	RateLimitQPS   float64
	RateLimitBurst int
}

// StorageConfig selects where the token and cart state are persisted
type StorageConfig struct {
	Driver    string // memory, redis, sqlite, postgres
	DSN       string // sqlite file path or postgres DSN
	KeyPrefix string
	Redis     RedisConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// TelemetryConfig holds client metrics settings
type TelemetryConfig struct {
	MetricsEnabled   bool
	MetricsNamespace string
}

// DevServerConfig holds settings for the local development backend
type DevServerConfig struct {
	Port      string
	JWTSecret string
	TokenTTL  time.Duration
	Seed      int64
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with TAKEOUT_ prefix (e.g., TAKEOUT_API_BASE_PATH)
// 2. config.toml in the working directory or $HOME/.takeout
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".takeout"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return build(v)
}

// LoadFile loads configuration from an explicit file path, still honoring
// TAKEOUT_ environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("TAKEOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		API: APIConfig{
			BasePath:       v.GetString("api.base_path"),
			Timeout:        v.GetDuration("api.timeout"),
			UserAgent:      v.GetString("api.user_agent"),
			APIKey:         v.GetString("api.api_key"),
			APIKeyName:     v.GetString("api.api_key_name"),
			APIKeyIn:       v.GetString("api.api_key_in"),
			Username:       v.GetString("api.username"),
			Password:       v.GetString("api.password"),
			AccessToken:    v.GetString("api.access_token"),
			OAuthScopes:    v.GetStringSlice("api.oauth_scopes"),
			RateLimitQPS:   v.GetFloat64("api.rate_limit_qps"),
			RateLimitBurst: v.GetInt("api.rate_limit_burst"),
		},
		Storage: StorageConfig{
			Driver:    v.GetString("storage.driver"),
			DSN:       v.GetString("storage.dsn"),
			KeyPrefix: v.GetString("storage.key_prefix"),
			Redis: RedisConfig{
				Host:     v.GetString("storage.redis.host"),
				Port:     v.GetInt("storage.redis.port"),
				Password: v.GetString("storage.redis.password"),
				DB:       v.GetInt("storage.redis.db"),
			},
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled:   v.GetBool("telemetry.metrics_enabled"),
			MetricsNamespace: v.GetString("telemetry.metrics_namespace"),
		},
		DevServer: DevServerConfig{
			Port:      v.GetString("devserver.port"),
			JWTSecret: v.GetString("devserver.jwt_secret"),
			TokenTTL:  v.GetDuration("devserver.token_ttl"),
			Seed:      v.GetInt64("devserver.seed"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = "takeout-client/1.0"
	}
	if cfg.API.APIKeyName == "" {
		cfg.API.APIKeyName = "X-API-Key"
	}
	if cfg.API.APIKeyIn == "" {
		cfg.API.APIKeyIn = "header"
	}
	if cfg.API.RateLimitQPS > 0 && cfg.API.RateLimitBurst == 0 {
		cfg.API.RateLimitBurst = 1
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "takeout:"
	}
	if cfg.Storage.Redis.Host == "" {
		cfg.Storage.Redis.Host = "localhost"
	}
	if cfg.Storage.Redis.Port == 0 {
		cfg.Storage.Redis.Port = 6379
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.DSN == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Storage.DSN = filepath.Join(home, ".takeout", "state.db")
		} else {
			cfg.Storage.DSN = "takeout.db"
		}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}

	if cfg.Telemetry.MetricsNamespace == "" {
		cfg.Telemetry.MetricsNamespace = "takeout"
	}

	if cfg.DevServer.Port == "" {
		cfg.DevServer.Port = "8080"
	}
	if cfg.DevServer.JWTSecret == "" {
		cfg.DevServer.JWTSecret = "takeout-dev-secret"
	}
	if cfg.DevServer.TokenTTL == 0 {
		cfg.DevServer.TokenTTL = 24 * time.Hour
	}
	if cfg.DevServer.Seed == 0 {
		cfg.DevServer.Seed = 42
	}
}

// validate checks configuration for invalid combinations
func (c *Config) validate() error {
	if n := c.API.credentialCount(); n > 1 {
		return fmt.Errorf("api: only one credential may be configured (api_key, username/password, access_token), got %d", n)
	}
	if c.API.Username != "" && c.API.Password == "" {
		return fmt.Errorf("api.password is required when api.username is set")
	}
	switch c.API.APIKeyIn {
	case "header", "query":
	default:
		return fmt.Errorf("api.api_key_in must be header or query, got %q", c.API.APIKeyIn)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.API.RateLimitQPS < 0 {
		return fmt.Errorf("api.rate_limit_qps cannot be negative")
	}

	switch c.Storage.Driver {
	case "memory", "redis", "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, redis, sqlite, postgres, got %q", c.Storage.Driver)
	}
	return nil
}

func (a APIConfig) credentialCount() int {
	n := 0
	if a.APIKey != "" {
		n++
	}
	if a.Username != "" || a.Password != "" {
		n++
	}
	if a.AccessToken != "" {
		n++
	}
	return n
}
