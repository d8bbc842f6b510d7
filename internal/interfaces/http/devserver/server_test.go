package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/takeout/client/internal/client"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret-key-32-characters-long"
	cfg.Businesses = 3
	cfg.ItemsPerBusiness = 4
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(testConfig(), nil)
}

func do(t *testing.T, s *Server, method, path string, body any, token string) (*httptest.ResponseRecorder, client.Result[json.RawMessage]) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var result client.Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), w.Body.String())
	return w, result
}

func loginAs(t *testing.T, s *Server, username, password string) string {
	t.Helper()
	creds := client.LoginCredentials{Username: username, Password: password}
	_, res := do(t, s, http.MethodPost, "/api/user/post", creds, "")
	require.True(t, res.Success, res.Message)
	_, res = do(t, s, http.MethodPost, "/api/auth/login", creds, "")
	require.True(t, res.Success, res.Message)
	var token string
	require.NoError(t, json.Unmarshal(res.Data, &token))
	return token
}

func TestCatalog_Deterministic(t *testing.T) {
	a := NewCatalog(7, 2, 3)
	b := NewCatalog(7, 2, 3)
	assert.Equal(t, a.Businesses, b.Businesses)
	assert.Equal(t, a.Commodities(nil), b.Commodities(nil))
	assert.Len(t, a.Commodities(nil), 6)

	id := a.Businesses[1].ID
	for _, item := range a.Commodities(&id) {
		assert.Equal(t, id, item.BusinessID)
		assert.True(t, item.Price.IsPositive())
	}
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	w, res := do(t, s, http.MethodGet, "/api/business/list", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var businesses []client.BusinessDTO
	require.NoError(t, json.Unmarshal(res.Data, &businesses))
	assert.Len(t, businesses, 3)
	assert.NotEmpty(t, w.Header().Get(client.RequestIDHeader))

	w, _ = do(t, s, http.MethodGet, "/api/business/2", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, res = do(t, s, http.MethodGet, "/api/business/99", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, res.Success)

	w, _ = do(t, s, http.MethodGet, "/api/business/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, res = do(t, s, http.MethodGet, "/api/business/itemList?id=2", nil, "")
	var items []client.CommodityDTO
	require.NoError(t, json.Unmarshal(res.Data, &items))
	assert.Len(t, items, 4)

	_, res = do(t, s, http.MethodGet, "/api/business/itemList", nil, "")
	require.NoError(t, json.Unmarshal(res.Data, &items))
	assert.Len(t, items, 12)

	_, res = do(t, s, http.MethodGet, "/api/business/itemList?id=99", nil, "")
	assert.JSONEq(t, `[]`, string(res.Data))

	_, res = do(t, s, http.MethodGet, "/api/foodtype/foodTypeList", nil, "")
	var types []client.FoodTypeDTO
	require.NoError(t, json.Unmarshal(res.Data, &types))
	assert.Len(t, types, len(foodTypeNames))
}

func TestRequestIDEcho(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(client.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(client.RequestIDHeader))
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	creds := client.LoginCredentials{Username: "alice_1", Password: "secret"}

	_, res := do(t, s, http.MethodPost, "/api/user/post", creds, "")
	assert.True(t, res.Success)

	_, res = do(t, s, http.MethodPost, "/api/user/post", creds, "")
	assert.False(t, res.Success)
	assert.Equal(t, "username already exists", res.Message)

	_, res = do(t, s, http.MethodPost, "/api/user/post", client.LoginCredentials{Username: "bad name", Password: "x"}, "")
	assert.False(t, res.Success)

	w, res := do(t, s, http.MethodPost, "/api/auth/login", client.LoginCredentials{Username: "alice_1", Password: "wrong"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, res.Success)

	_, res = do(t, s, http.MethodPost, "/api/auth/login", creds, "")
	assert.True(t, res.Success)
	var token string
	require.NoError(t, json.Unmarshal(res.Data, &token))
	assert.NotEmpty(t, token)

	_, res = do(t, s, http.MethodGet, "/api/user/info", nil, token)
	var u client.UserDTO
	require.NoError(t, json.Unmarshal(res.Data, &u))
	assert.Equal(t, "alice_1", u.Username)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/user/info", "/api/user/payedorder", "/api/user/unpayorder"} {
		w, res := do(t, s, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.False(t, res.Success)

		w, _ = do(t, s, http.MethodGet, path, nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := loginAs(t, s, "bob", "pw")
	menu := s.Catalog().Commodities(&[]int64{1}[0])

	order := client.OrderCreateDTO{
		BusinessID: 1,
		OrderItems: []client.OrderItemCreate{
			{CommodityID: menu[0].ID, Quanity: 2},
			{CommodityID: menu[1].ID, Quanity: 1},
		},
	}
	_, res := do(t, s, http.MethodPut, "/api/user/saveorder", order, token)
	require.True(t, res.Success, res.Message)
	var saved struct {
		OrderID int64 `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &saved))

	_, res = do(t, s, http.MethodGet, "/api/user/unpayorder", nil, token)
	var unpaid []client.OrderTableDTO
	require.NoError(t, json.Unmarshal(res.Data, &unpaid))
	require.Len(t, unpaid, 1)
	b, _ := s.Catalog().Business(1)
	want := menu[0].Price.Mul(decimal.NewFromInt(2)).Add(menu[1].Price).Add(b.DeliveryFees)
	assert.True(t, want.Equal(unpaid[0].PayAmount), "%s != %s", want, unpaid[0].PayAmount)
	assert.Len(t, unpaid[0].OrderItemDTOs, 2)

	w, _ := do(t, s, http.MethodPut, "/api/user/payorder/999", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	other := loginAs(t, s, "carol", "pw")
	w, _ = do(t, s, http.MethodPut, "/api/user/payorder/1", nil, other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, res = do(t, s, http.MethodPut, "/api/user/payorder/1", nil, token)
	assert.True(t, res.Success)

	_, res = do(t, s, http.MethodGet, "/api/user/payedorder", nil, token)
	var paid []client.OrderTableDTO
	require.NoError(t, json.Unmarshal(res.Data, &paid))
	assert.Len(t, paid, 1)

	_, res = do(t, s, http.MethodGet, "/api/user/payedorder", nil, other)
	assert.JSONEq(t, `[]`, string(res.Data))
}

func TestSaveOrder_Rejections(t *testing.T) {
	s := newTestServer(t)
	token := loginAs(t, s, "dave", "pw")
	foreign := s.Catalog().Commodities(&[]int64{2}[0])[0]

	tests := []struct {
		name  string
		order client.OrderCreateDTO
	}{
		{"unknown business", client.OrderCreateDTO{BusinessID: 99, OrderItems: []client.OrderItemCreate{{CommodityID: 1, Quanity: 1}}}},
		{"no items", client.OrderCreateDTO{BusinessID: 1}},
		{"item from another business", client.OrderCreateDTO{BusinessID: 1, OrderItems: []client.OrderItemCreate{{CommodityID: foreign.ID, Quanity: 1}}}},
		{"zero quantity", client.OrderCreateDTO{BusinessID: 1, OrderItems: []client.OrderItemCreate{{CommodityID: 1, Quanity: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := do(t, s, http.MethodPut, "/api/user/saveorder", tt.order, token)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestSaveOrder_IdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	erin := loginAs(t, s, "erin", "pw")
	frank := loginAs(t, s, "frank", "pw")
	order := client.OrderCreateDTO{BusinessID: 1, OrderItems: []client.OrderItemCreate{{CommodityID: 1, Quanity: 1}}}

	send := func(token string) int64 {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(order))
		req := httptest.NewRequest(http.MethodPut, "/api/user/saveorder", &buf)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "snap-1")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		var res client.Result[struct {
			OrderID int64 `json:"orderId"`
		}]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
		require.True(t, res.Success, res.Message)
		return res.Data.OrderID
	}

	first := send(erin)
	assert.Equal(t, first, send(erin))
	assert.Len(t, s.accounts.listOrders(1, false), 1)

	t.Run("same key from another user creates a new order", func(t *testing.T) {
		other := send(frank)
		assert.NotEqual(t, first, other)
		assert.Len(t, s.accounts.listOrders(2, false), 1)
		assert.Len(t, s.accounts.listOrders(1, false), 1)
	})
}

func TestHandlerLogsCarryRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)
	s := New(testConfig(), zap.New(core))
	token := loginAs(t, s, "gina", "pw")

	var buf bytes.Buffer
	order := client.OrderCreateDTO{BusinessID: 1, OrderItems: []client.OrderItemCreate{{CommodityID: 1, Quanity: 1}}}
	require.NoError(t, json.NewEncoder(&buf).Encode(order))
	req := httptest.NewRequest(http.MethodPut, "/api/user/saveorder", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(client.RequestIDHeader, "req-42")
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)

	entries := recorded.FilterMessage("Order saved").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "/api/user/saveorder", fields["path"])
	assert.Equal(t, "gina", fields["username"])
}

func TestServerSpans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	cfg := testConfig()
	cfg.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	s := New(cfg, nil)

	w, _ := do(t, s, http.MethodGet, "/api/foodtype/foodTypeList", nil, "")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/api/foodtype/foodTypeList")
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), w.Header().Get(TraceIDHeader))
}
