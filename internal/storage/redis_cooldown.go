// Package storage holds the optional persistence adapters. The
// scanner runs fully in memory without them; they exist so several
// scanner instances can share signal history and cooldown state.
package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"market-opportunity-scanner/internal/confirmation"
)

const cooldownKeyPrefix = "scanner:cooldown:"

// RedisCooldown stores per-symbol cooldowns in Redis so instances
// sharing a market do not double-signal. When Redis is unreachable it
// falls back to the in-memory tracker, keeping the scanner running.
type RedisCooldown struct {
	client   *redis.Client
	window   time.Duration
	fallback *confirmation.CooldownTracker
	logger   zerolog.Logger
}

// NewRedisCooldown connects to Redis. A failed ping is not fatal; the
// fallback tracker covers outages.
func NewRedisCooldown(addr, password string, db int, window time.Duration, logger zerolog.Logger) *RedisCooldown {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable, cooldowns degrade to in-memory")
	} else {
		logger.Info().Str("addr", addr).Msg("Redis cooldown store connected")
	}

	return &RedisCooldown{
		client:   client,
		window:   window,
		fallback: confirmation.NewCooldownTracker(window),
		logger:   logger,
	}
}

// Active reports whether the symbol is inside its cooldown window.
func (rc *RedisCooldown) Active(symbol string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	exists, err := rc.client.Exists(ctx, cooldownKeyPrefix+symbol).Result()
	if err != nil {
		return rc.fallback.Active(symbol)
	}
	return exists > 0
}

// Touch starts or resets the symbol's cooldown in Redis and the
// fallback tracker.
func (rc *RedisCooldown) Touch(symbol string) {
	rc.fallback.Touch(symbol)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rc.client.Set(ctx, cooldownKeyPrefix+symbol, "1", rc.window).Err(); err != nil {
		rc.logger.Debug().Err(err).Str("symbol", symbol).Msg("Redis cooldown write failed")
	}
}

// Close shuts down the Redis client.
func (rc *RedisCooldown) Close() error {
	return rc.client.Close()
}
