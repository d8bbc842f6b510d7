package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/infrastructure/config"
	"github.com/takeout/client/internal/interfaces/http/devserver"
)

func TestAPIOptions_Credentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.APIConfig
		want client.Credentials
	}{
		{"none", config.APIConfig{}, client.NoAuth{}},
		{
			"api key",
			config.APIConfig{APIKey: "k", APIKeyName: "X-API-Key", APIKeyIn: "query"},
			client.APIKey{Name: "X-API-Key", In: client.KeyInQuery, Key: "k"},
		},
		{"basic", config.APIConfig{Username: "u", Password: "p"}, client.BasicAuth{Username: "u", Password: "p"}},
		{"bearer", config.APIConfig{AccessToken: "t"}, client.BearerToken{Token: "t"}},
		{
			"oauth2",
			config.APIConfig{AccessToken: "t", OAuthScopes: []string{"read"}},
			client.OAuth2{Scopes: []string{"read"}, AccessToken: "t"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Timeout = time.Second
			cfg := client.NewConfiguration(apiOptions(tt.cfg, zap.NewNop(), nil)...)
			assert.Equal(t, tt.want, cfg.Credentials)
		})
	}
}

func TestAPIOptions_BasePathAndLimits(t *testing.T) {
	cfg := client.NewConfiguration(apiOptions(config.APIConfig{
		BasePath:       "http://shop.local/api",
		Timeout:        3 * time.Second,
		UserAgent:      "cli-test",
		RateLimitQPS:   5,
		RateLimitBurst: 2,
	}, zap.NewNop(), nil)...)

	assert.Equal(t, "http://shop.local/api", cfg.EffectiveBasePath())
	assert.Equal(t, "cli-test", cfg.UserAgent)
	assert.Equal(t, 3*time.Second, cfg.HTTPClient.Timeout)
	assert.NotNil(t, cfg.RateLimiter)

	defaults := client.NewConfiguration(apiOptions(config.APIConfig{}, zap.NewNop(), nil)...)
	assert.Equal(t, client.DefaultBasePath, defaults.EffectiveBasePath())
}

type cli struct {
	t          *testing.T
	configPath string
}

func newCLI(t *testing.T) (*cli, *devserver.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dcfg := devserver.DefaultConfig()
	dcfg.BcryptCost = bcrypt.MinCost
	srv := devserver.New(dcfg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	configPath := filepath.Join(dir, "config.toml")
	toml := fmt.Sprintf(`[api]
base_path = %q
timeout = "5s"

[storage]
driver = "sqlite"
dsn = %q

[log]
level = "error"
`, ts.URL+dcfg.BasePath, filepath.Join(dir, "state.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(toml), 0o600))
	return &cli{t: t, configPath: configPath}, srv
}

func (c *cli) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-config", c.configPath}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	code, out, errOut := c.run(args...)
	require.Equal(c.t, 0, code, "takeout %v: %s", args, errOut)
	return out
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "takeout dev")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "USAGE")

	c, _ := newCLI(t)
	code, _, errOut := c.run("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "COMMANDS")
}

func TestRun_OrderFlow(t *testing.T) {
	c, srv := newCLI(t)
	business := srv.Catalog().Businesses[0]
	menu := srv.Catalog().Commodities(&business.ID)
	bid := strconv.FormatInt(business.ID, 10)

	assert.Contains(t, c.mustRun("businesses"), business.Name)
	assert.Contains(t, c.mustRun("business", bid), business.Name)
	assert.Contains(t, c.mustRun("menu", "-business", bid), menu[0].Name)
	assert.Contains(t, c.mustRun("categories"), "Noodles")

	code, _, errOut := c.run("checkout")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "log in")

	c.mustRun("register", "-u", "cli_user", "-p", "pw_1")
	assert.Contains(t, c.mustRun("login", "-u", "cli_user", "-p", "pw_1"), "logged in as cli_user")
	assert.Contains(t, c.mustRun("whoami"), "cli_user")

	item := strconv.FormatInt(menu[0].ID, 10)
	c.mustRun("cart", "add", "-business", bid, "-item", item)
	c.mustRun("cart", "add", "-business", bid, "-item", item)
	out := c.mustRun("cart", "show")
	assert.Contains(t, out, menu[0].Name)
	assert.Contains(t, out, money(menu[0].Price.Mul(decimal.NewFromInt(2))))

	out = c.mustRun("checkout")
	assert.Contains(t, out, "submitted: 2 items")
	assert.Contains(t, c.mustRun("cart"), "cart is empty")
	assert.Contains(t, c.mustRun("orders"), business.Name)
	assert.Contains(t, c.mustRun("orders", "-paid"), "no orders")

	c.mustRun("logout")
	code, _, _ = c.run("orders")
	assert.Equal(t, 1, code)
}

func TestRun_SwitchingBusinessEmptiesCart(t *testing.T) {
	c, srv := newCLI(t)
	cat := srv.Catalog()
	first, second := cat.Businesses[0].ID, cat.Businesses[1].ID
	firstItem := cat.Commodities(&first)[0].ID
	secondItem := cat.Commodities(&second)[0].ID

	c.mustRun("cart", "add", "-business", strconv.FormatInt(first, 10), "-item", strconv.FormatInt(firstItem, 10))
	out := c.mustRun("cart", "add", "-business", strconv.FormatInt(second, 10), "-item", strconv.FormatInt(secondItem, 10))
	assert.Contains(t, out, "was emptied")

	out = c.mustRun("cart", "remove", "-item", strconv.FormatInt(secondItem, 10))
	assert.Contains(t, out, "cart is empty")

	code, _, _ := c.run("cart", "add", "-business", strconv.FormatInt(first, 10), "-item", "999999")
	assert.Equal(t, 1, code)
}

func TestRun_Metrics(t *testing.T) {
	c, _ := newCLI(t)
	code, _, errOut := c.run("-metrics", "categories")
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "takeout_client_requests_total{operation=GetFoodTypeList,status=200} 1")
}
