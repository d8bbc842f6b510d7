package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/takeout/client/internal/application/checkout"
	"github.com/takeout/client/internal/application/session"
	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/domain/cart"
	"github.com/takeout/client/internal/infrastructure/config"
	"github.com/takeout/client/internal/infrastructure/logger"
	"github.com/takeout/client/internal/infrastructure/storage"
	"github.com/takeout/client/internal/infrastructure/telemetry"
)

var errUsage = errors.New("usage")

// app holds everything one CLI invocation needs
type app struct {
	out      io.Writer
	logger   *zap.Logger
	store    storage.Store
	api      *client.Client
	metrics  *telemetry.ClientMetrics
	cart     *cart.Store
	sessions *session.Service
	checkout *checkout.Service
}

func newApp(ctx context.Context, cfg *config.Config, g globalFlags, out io.Writer) (*app, error) {
	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if g.verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	storageCfg := cfg.Storage
	if storageCfg.Driver == "memory" {
		// memory does not outlive the process; keep CLI state in a file
		storageCfg.Driver = "sqlite"
		storageCfg.DSN = g.statePath
		if storageCfg.DSN == "" {
			storageCfg.DSN = defaultStatePath()
		}
	}
	store, err := storage.Open(ctx, storageCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	var metrics *telemetry.ClientMetrics
	if cfg.Telemetry.MetricsEnabled || g.showMetrics {
		metrics = telemetry.NewClientMetrics(cfg.Telemetry.MetricsNamespace)
	}

	api := client.NewClient(client.NewConfiguration(apiOptions(cfg.API, log, metrics)...))
	carts := cart.NewStore()
	sessions := session.NewService(api, store, log)
	a := &app{
		out:      out,
		logger:   log,
		store:    store,
		api:      api,
		metrics:  metrics,
		cart:     carts,
		sessions: sessions,
		checkout: checkout.NewService(carts, api, sessions, store, metrics, log),
	}
	if err := a.checkout.LoadCart(ctx); err != nil {
		log.Warn("Failed to restore cart", zap.Error(err))
	}
	return a, nil
}

func defaultStatePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".takeout", "state.db")
	}
	return "takeout.db"
}

// apiOptions maps the api config section onto client options. config
// validation guarantees at most one credential is set.
func apiOptions(c config.APIConfig, log *zap.Logger, metrics *telemetry.ClientMetrics) []client.ConfigOption {
	opts := []client.ConfigOption{
		client.WithTimeout(c.Timeout),
		client.WithUserAgent(c.UserAgent),
		client.WithLogger(log),
	}
	if c.BasePath != "" {
		opts = append(opts, client.WithBasePath(c.BasePath))
	}
	if metrics != nil {
		opts = append(opts, client.WithMetrics(metrics))
	}
	if c.RateLimitQPS > 0 {
		opts = append(opts, client.WithRateLimit(c.RateLimitQPS, c.RateLimitBurst))
	}

	switch {
	case c.APIKey != "":
		opts = append(opts, client.WithCredentials(client.APIKey{
			Name: c.APIKeyName,
			In:   client.KeyLocation(c.APIKeyIn),
			Key:  c.APIKey,
		}))
	case c.Username != "":
		opts = append(opts, client.WithCredentials(client.BasicAuth{Username: c.Username, Password: c.Password}))
	case c.AccessToken != "" && len(c.OAuthScopes) > 0:
		opts = append(opts, client.WithCredentials(client.OAuth2{Scopes: c.OAuthScopes, AccessToken: c.AccessToken}))
	case c.AccessToken != "":
		opts = append(opts, client.WithCredentials(client.BearerToken{Token: c.AccessToken}))
	}
	return opts
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close storage", zap.Error(err))
	}
	_ = logger.Sync(a.logger)
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "businesses":
		return a.cmdBusinesses(ctx)
	case "business":
		return a.cmdBusiness(ctx, args)
	case "menu":
		return a.cmdMenu(ctx, args)
	case "categories":
		return a.cmdCategories(ctx)
	case "register":
		return a.cmdRegister(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "cart":
		return a.cmdCart(ctx, args)
	case "checkout":
		return a.cmdCheckout(ctx)
	case "orders":
		return a.cmdOrders(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func (a *app) printMetrics(w io.Writer) {
	families, err := a.metrics.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics unavailable: %v\n", err)
		return
	}
	var lines []string
	for _, f := range families {
		for _, m := range f.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s{%s} %g", f.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s{%s} count=%d sum=%.3fs", f.GetName(), strings.Join(labels, ","), h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
