// Package main runs the in-memory development backend.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takeout/client/internal/infrastructure/config"
	"github.com/takeout/client/internal/infrastructure/logger"
	"github.com/takeout/client/internal/interfaces/http/devserver"
)

func main() {
	configPath := flag.String("config", "", "Path to a config.toml")
	port := flag.String("port", "", "Listen port (overrides devserver.port)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if *port != "" {
		cfg.DevServer.Port = *port
	}

	log, err := logger.New(logger.ServerConfig())
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	gin.SetMode(gin.ReleaseMode)
	dcfg := devserver.DefaultConfig()
	dcfg.JWTSecret = cfg.DevServer.JWTSecret
	dcfg.TokenTTL = cfg.DevServer.TokenTTL
	dcfg.Seed = uint64(cfg.DevServer.Seed)
	srv := devserver.New(dcfg, log)

	httpServer := &http.Server{
		Addr:              ":" + cfg.DevServer.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Dev backend listening",
			zap.String("addr", httpServer.Addr),
			zap.String("base_path", dcfg.BasePath),
			zap.Int("businesses", len(srv.Catalog().Businesses)),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down dev backend...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Dev backend exited")
}
