package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	DB       int
	Password string
}

type Redis struct {
	rdb *redis.Client
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Redis{rdb: rdb, log: log}
}

func (c *Redis) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.log.Error("redis ping failed", "error", err)
		return err
	}
	return nil
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, val, ttl).Result()
	if err != nil {
		c.log.Error("redis setnx failed", "key", key, "error", err)
	}
	return ok, err
}

func (c *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.log.Error("redis exists failed", "key", key, "error", err)
		return false, err
	}
	return n == 1, nil
}
