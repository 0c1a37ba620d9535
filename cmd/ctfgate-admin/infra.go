package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/bootstrap"
)

type connections struct {
	Pool  *pgxpool.Pool
	Redis redis.UniversalClient
}

// openConnections opens Postgres when withDB is set and Redis on a best-effort basis.
func openConnections(cmdCtx *commandContext, cfg config.AppConfig, withDB bool) (*connections, error) {
	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: cmdCtx.Logger}
	conns := &connections{}
	if withDB {
		pool, err := bootstrap.ConnectPool(cmdCtx.Ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		conns.Pool = pool
	}
	client, err := bootstrap.ConnectRedis(cmdCtx.Ctx, dbCfg)
	if err != nil {
		cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "redis unavailable; cached roles left untouched", "error", err)
	} else {
		conns.Redis = client
	}
	return conns, nil
}

func (c *connections) Close(cmdCtx *commandContext) {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", err)
		}
	}
}

func contextWithTimeout(cmdCtx *commandContext, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmdCtx.Ctx, d)
}
