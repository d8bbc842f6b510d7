package devserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/takeout/client/internal/application/session"
	"github.com/takeout/client/internal/infrastructure/auth"
	"github.com/takeout/client/internal/infrastructure/logger"
)

// Config holds dev backend settings
type Config struct {
	// BasePath prefixes every route, e.g. "/api"
	BasePath         string
	JWTSecret        string
	TokenTTL         time.Duration
	Seed             uint64
	Businesses       int
	ItemsPerBusiness int
	BcryptCost       int
	// TracerProvider receives server spans; nil means the global provider
	TracerProvider trace.TracerProvider
}

// DefaultConfig returns settings matching the client's default base path
func DefaultConfig() Config {
	return Config{
		BasePath:         "/api",
		JWTSecret:        "takeout-dev-secret",
		TokenTTL:         24 * time.Hour,
		Seed:             42,
		Businesses:       6,
		ItemsPerBusiness: 8,
		BcryptCost:       bcrypt.DefaultCost,
	}
}

// Server is the dev backend
type Server struct {
	cfg      Config
	engine   *gin.Engine
	catalog  *Catalog
	accounts *accounts
	jwt      *auth.JWTService
	validate *validator.Validate
	logger   *zap.Logger
}

// New builds a Server with its routes registered
func New(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	s := &Server{
		cfg:      cfg,
		engine:   gin.New(),
		catalog:  NewCatalog(cfg.Seed, cfg.Businesses, cfg.ItemsPerBusiness),
		accounts: newAccounts(cfg.BcryptCost),
		jwt:      auth.NewJWTService(cfg.JWTSecret, "takeout-devserver", cfg.TokenTTL),
		validate: session.NewValidator(),
		logger:   log,
	}

	var traceOpts []otelgin.Option
	if cfg.TracerProvider != nil {
		traceOpts = append(traceOpts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	s.engine.Use(
		logger.Recovery(log),
		RequestID(),
		otelgin.Middleware("takeout-devserver", traceOpts...),
		TraceID(),
		logger.GinMiddleware(log),
	)
	s.engine.GET("/health", func(c *gin.Context) { ok(c, "ok") })
	s.registerRoutes(s.engine.Group(cfg.BasePath))
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() *gin.Engine {
	return s.engine
}

// Catalog returns the generated catalog
func (s *Server) Catalog() *Catalog {
	return s.catalog
}

func (s *Server) registerRoutes(rg *gin.RouterGroup) {
	business := rg.Group("/business")
	business.GET("/list", s.listBusinesses)
	business.GET("/itemList", s.listCommodities)
	business.GET("/:id", s.getBusiness)

	rg.GET("/foodtype/foodTypeList", s.listFoodTypes)
	rg.POST("/auth/login", s.login)
	rg.POST("/user/post", s.register)

	user := rg.Group("/user", JWTAuth(s.jwt))
	user.PUT("/saveorder", s.saveOrder)
	user.PUT("/payorder/:id", s.payOrder)
	user.GET("/payedorder", s.paidOrders)
	user.GET("/unpayorder", s.unpaidOrders)
	user.GET("/info", s.userInfo)
}
