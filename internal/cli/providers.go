package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eshaffer321/coolingoff/internal/application/sweep"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/config"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/lock"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

// NewStore opens the configured SQLite database, applying migrations
func NewStore(cfg *config.Config) (*storage.Storage, error) {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Storage.DatabasePath, err)
	}
	return store, nil
}

// NewLocker builds the sweep lock named by cfg.Sweep.Lock.
// The returned close func releases any connection the lock holds.
func NewLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sweep.Locker, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sweep.Lock)) {
	case "", "local":
		return lock.NewLocal(), func() {}, nil

	case "redis":
		var ttl time.Duration
		if cfg.Sweep.LockTTL != "" {
			parsed, err := time.ParseDuration(cfg.Sweep.LockTTL)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid sweep lock_ttl %q: %w", cfg.Sweep.LockTTL, err)
			}
			ttl = parsed
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		l, err := lock.NewRedis(lock.RedisConfig{Client: client, TTL: ttl})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("Using redis sweep lock", "addr", cfg.Redis.Addr)
		return l, func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown sweep lock %q: want local or redis", cfg.Sweep.Lock)
	}
}
