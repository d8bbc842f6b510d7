// Package client is the HTTP client for the takeout ordering backend.
//
// Every operation follows the same path: build a relative URL, assert
// required parameters, serialize query and body, attach credentials, then
// dispatch against the configured base path. Responses come back as
// Response values whatever their status; only transport failures are
// returned as errors.
package client

import (
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/takeout/client/internal/infrastructure/telemetry"
)

// DefaultBasePath is used when the configuration carries no base path
const DefaultBasePath = "http://localhost:80/api"

var jsonMime = regexp.MustCompile(`^(application/json|[^;/ \t]+/[^;/ \t]+[+]json)[ \t]*(;.*)?$`)

// IsJSONMime reports whether mime is a JSON media type. Parameters such as
// charset are tolerated; the media type itself is matched case-sensitively.
//
//	application/json
//	application/json; charset=UTF8
//	application/vnd.company+json
func IsJSONMime(mime string) bool {
	return jsonMime.MatchString(mime)
}

// Configuration holds everything a Client needs. Build it with
// NewConfiguration and treat it as read-only afterwards.
type Configuration struct {
	BasePath       string
	Credentials    Credentials
	UserAgent      string
	DefaultHeaders map[string]string
	HTTPClient     *http.Client
	Logger         *zap.Logger
	Metrics        *telemetry.ClientMetrics
	RateLimiter    *rate.Limiter
}

// ConfigOption configures a Configuration
type ConfigOption func(*Configuration)

// NewConfiguration creates a configuration with the given options applied
func NewConfiguration(opts ...ConfigOption) *Configuration {
	cfg := &Configuration{
		Credentials:    NoAuth{},
		UserAgent:      "takeout-client/1.0",
		DefaultHeaders: map[string]string{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// IsJSONMime reports whether mime is a JSON media type
func (c *Configuration) IsJSONMime(mime string) bool {
	return IsJSONMime(mime)
}

// EffectiveBasePath returns BasePath, or DefaultBasePath when it is empty
func (c *Configuration) EffectiveBasePath() string {
	if c == nil || c.BasePath == "" {
		return DefaultBasePath
	}
	return c.BasePath
}

// WithBasePath sets the backend base path, e.g. http://localhost:80/api
func WithBasePath(basePath string) ConfigOption {
	return func(c *Configuration) {
		c.BasePath = basePath
	}
}

// WithCredentials sets the credential variant attached to every request
func WithCredentials(creds Credentials) ConfigOption {
	return func(c *Configuration) {
		if creds == nil {
			creds = NoAuth{}
		}
		c.Credentials = creds
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) ConfigOption {
	return func(c *Configuration) {
		c.UserAgent = ua
	}
}

// WithDefaultHeader adds a header sent with every request
func WithDefaultHeader(key, value string) ConfigOption {
	return func(c *Configuration) {
		c.DefaultHeaders[key] = value
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) ConfigOption {
	return func(c *Configuration) {
		c.HTTPClient = hc
	}
}

// WithTimeout sets a timeout on a dedicated HTTP client
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Configuration) {
		c.HTTPClient = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger used for request logs
func WithLogger(logger *zap.Logger) ConfigOption {
	return func(c *Configuration) {
		c.Logger = logger
	}
}

// WithMetrics records request counts and latencies
func WithMetrics(m *telemetry.ClientMetrics) ConfigOption {
	return func(c *Configuration) {
		c.Metrics = m
	}
}

// WithRateLimit limits outgoing requests to qps with the given burst.
// A non-positive qps disables limiting.
func WithRateLimit(qps float64, burst int) ConfigOption {
	return func(c *Configuration) {
		if qps <= 0 {
			c.RateLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.RateLimiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}
