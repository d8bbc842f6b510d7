package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/takeout/client/internal/infrastructure/config"
	"github.com/takeout/client/internal/infrastructure/logger"
)

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	sqlLog := WithSQLLogger(logger.NewGormLogger(log, gormlogger.Warn))

	switch cfg.Driver {
	case "", "memory":
		log.Debug("using in-memory storage")
		return NewMemoryStore(), nil
	case "redis":
		log.Debug("using redis storage", zap.String("addr", cfg.Redis.Addr()))
		return NewRedisStore(ctx, cfg.Redis, cfg.KeyPrefix)
	case "sqlite":
		log.Debug("using sqlite storage", zap.String("path", cfg.DSN))
		return OpenSQLite(cfg.DSN, sqlLog)
	case "postgres":
		log.Debug("using postgres storage")
		return OpenPostgres(cfg.DSN, sqlLog)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
