package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/infrastructure/auth"
	"github.com/takeout/client/internal/infrastructure/logger"
	"github.com/takeout/client/internal/infrastructure/telemetry"
)

const claimsKey = "jwt_claims"

// TraceIDHeader carries the server trace id back to the caller
const TraceIDHeader = "X-Trace-Id"

// RequestID echoes the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(client.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(string(logger.RequestIDKey), id)
		c.Writer.Header().Set(client.RequestIDHeader, id)
		c.Next()
	}
}

// TraceID exposes the active span's trace id as a response header.
// It must run after the tracing middleware.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := telemetry.GetTraceID(c.Request.Context()); id != "" {
			c.Writer.Header().Set(TraceIDHeader, id)
		}
		c.Next()
	}
}

// JWTAuth rejects requests without a valid bearer token with 401
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			fail(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			logger.GetGinLogger(c).Debug("rejected token", zap.Error(err))
			fail(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}
