package main

import (
	"context"

	config "github.com/NordCoder/Postboard/internal/config/api"
	"github.com/NordCoder/Postboard/internal/ratelimit"
	pg "github.com/NordCoder/Postboard/internal/repository/postgres"
	redisx "github.com/NordCoder/Postboard/internal/repository/redis"
	"go.uber.org/zap"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("db connected")
	return db, nil
}

// initLimiter prefers the shared redis window and falls back to a per
// process limiter when redis is disabled or unreachable. The returned
// local limiter is nil unless it is the one in use.
func initLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ratelimit.Limiter, *ratelimit.Local, func()) {
	if !cfg.RateLimit.Enable {
		logger.Info("rate limiting disabled")
		return nil, nil, func() {}
	}
	if cfg.Redis.Enable {
		rdb, err := redisx.New(ctx, cfg.Redis)
		if err == nil {
			logger.Info("rate limiter: redis", zap.String("addr", cfg.Redis.Addr))
			lim := redisx.NewWindowLimiter(rdb, "postboard:rl", cfg.RateLimit.Limit, cfg.RateLimit.Window)
			return lim, nil, func() { _ = rdb.Close() }
		}
		logger.Warn("redis unavailable, using local rate limiter", zap.Error(err))
	}
	local := ratelimit.NewLocal(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	return local, local, func() {}
}
