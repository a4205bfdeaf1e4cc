package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kramxie/neo-routine-sub000/config"
)

// NewRedisClient builds a Redis client from configuration and pings it once.
// A failed ping is returned alongside the client so callers can fall back.
func NewRedisClient(cfg config.AppConfig) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rc, rc.Ping(ctx).Err()
}
