package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/cafe-app/utils"
)

// NewRedisClient connects to REDIS_ADDR. It returns nil when no address is
// configured or the server does not answer a ping; callers fall back to
// in-process rate limiting.
func NewRedisClient(cfg Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		utils.ErrorLogger.Errorf("redis ping %s failed, using local rate limiting: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}
