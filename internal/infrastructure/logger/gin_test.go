package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"ok", http.StatusOK, zapcore.InfoLevel},
		{"client error", http.StatusUnauthorized, zapcore.WarnLevel},
		{"server error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)

			var ctxRequestID string
			router := gin.New()
			router.Use(func(c *gin.Context) {
				c.Set(string(RequestIDKey), "req-1")
				c.Next()
			})
			router.Use(GinMiddleware(zap.New(core)))
			router.GET("/x", func(c *gin.Context) {
				ctxRequestID = GetRequestID(c.Request.Context())
				GetGinLogger(c).Debug("inside")
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?a=1", nil))

			assert.Equal(t, "req-1", ctxRequestID)
			inside := recorded.FilterMessage("inside").All()
			require.Len(t, inside, 1)
			assert.Equal(t, "req-1", inside[0].ContextMap()["request_id"])
			assert.Equal(t, "/x", inside[0].ContextMap()["path"])

			entries := recorded.FilterMessage("HTTP Request").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, "a=1", fields["query"])
		})
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("no request", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.NotNil(t, GetGinLogger(c))
	})

	t.Run("reads the logger stored in the request context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		c.Request = req.WithContext(WithContext(req.Context(), zap.New(core).With(zap.String("user", "bob"))))

		GetGinLogger(c).Info("hello")

		entries := recorded.FilterMessage("hello").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "bob", entries[0].ContextMap()["user"])
	})
}

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-2")
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(ctx, time.Now(), sql, nil)
	gl.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
	gl.Trace(ctx, time.Now(), sql, errors.New("disk full"))
	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)

	assert.Equal(t, 1, recorded.FilterMessage("SQL Query").Len())
	assert.Equal(t, 1, recorded.FilterMessage("SQL Error").Len())
	assert.Equal(t, 1, recorded.FilterMessageSnippet("SLOW SQL").Len())
	assert.Equal(t, "req-2", recorded.FilterMessage("SQL Query").All()[0].ContextMap()["request_id"])

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 1, recorded.FilterMessage("SQL Error").Len())
}
