package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from the REDIS_* variables and pings it.
// REDIS_HOST and REDIS_PORT take precedence over REDIS_ADDR; REDIS_PASSWORD,
// REDIS_DB and REDIS_TLS are optional.  When REDIS_ADDR, REDIS_HOST and
// REDIS_URL are all unset it returns (nil, nil): Redis is not configured
// and the admin cache and rate limiter stay off.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	var opts *redis.Options
	if url := os.Getenv("REDIS_URL"); url != "" {
		var err error
		if opts, err = redis.ParseURL(url); err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
	} else {
		addr := os.Getenv("REDIS_ADDR")
		host, port := os.Getenv("REDIS_HOST"), envStr("REDIS_PORT", "6379")
		if host != "" {
			addr = host + ":" + port
		}
		if addr == "" {
			return nil, nil
		}
		opts = &redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		}
		if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
