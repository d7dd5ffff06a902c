package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const memorySweepInterval = 5 * time.Minute

// NewIdempotencyStore builds the payment replay guard from configuration.
// With Redis disabled it returns the memory store. When Redis is enabled but
// unreachable it falls back to memory unless cfg.Required is set.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("Using in-memory payment idempotency store")
		return NewMemoryIdempotencyStore(memorySweepInterval), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if cfg.Required {
			return nil, fmt.Errorf("redis required for payment idempotency but unavailable: %w", err)
		}
		logger.Warn("Redis unavailable, falling back to in-memory payment idempotency store",
			zap.String("addr", cfg.Addr()),
			zap.Error(err))
		return NewMemoryIdempotencyStore(memorySweepInterval), nil
	}

	logger.Info("Using Redis payment idempotency store", zap.String("addr", cfg.Addr()))
	return NewRedisIdempotencyStore(client, cfg.KeyPrefix), nil
}
