// Package redis builds the client behind the cross-replica import lock.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yi-nology/asset_tracker/pkg/config"
	"go.uber.org/zap"
)

const (
	defaultAddress = "localhost:6379"
	pingAttempts   = 3
	pingTimeout    = 2 * time.Second
	pingBackoff    = 500 * time.Millisecond
)

// NewClient connects to the configured server and waits until it answers a
// PING, retrying a few times while it starts up. Returns nil, nil when Redis
// is disabled.
func NewClient(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := ping(ctx, client, log); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Addr, err)
	}
	return client, nil
}

// options turns the config into client options. Address is host:port or a
// redis:// (rediss://) URL; a non-empty Password or non-zero DB wins over the
// URL's own values.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		addr = defaultAddress
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return opts, nil
}

func ping(ctx context.Context, client *redis.Client, log *zap.Logger) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}
		log.Warn("redis ping failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == pingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * pingBackoff):
		}
	}
	return err
}
