// Package lock provides single-holder locks used to serialize sweep runs,
// either within one process or across processes sharing a Redis instance.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReleaseFunc releases a held lock. It is safe to call more than once.
type ReleaseFunc func()

// Local is an in-process lock backed by a mutex
type Local struct {
	mu sync.Mutex
}

// NewLocal creates an in-process lock
func NewLocal() *Local {
	return &Local{}
}

// TryAcquire takes the lock without blocking. It reports false when the lock is held.
func (l *Local) TryAcquire(_ context.Context) (ReleaseFunc, bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, true, nil
}

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Redis is a lock shared by every process using the same key.
// The TTL bounds how long a crashed holder can keep the lock.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisConfig configures a Redis lock
type RedisConfig struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

// NewRedis creates a Redis lock
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Key == "" {
		cfg.Key = "coolingoff:sweep:lock"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &Redis{client: cfg.Client, key: cfg.Key, ttl: cfg.TTL}, nil
}

// TryAcquire sets the key with NX and a TTL. It reports false when another holder owns it.
func (r *Redis) TryAcquire(ctx context.Context) (ReleaseFunc, bool, error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// Release must succeed even when the caller's context is done
			_ = releaseScript.Run(context.Background(), r.client, []string{r.key}, token).Err()
		})
	}
	return release, true, nil
}
