package record

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker serializes record fetches across processes sharing one data directory.
// Acquire blocks until the lock is held or ctx is done; the returned func releases it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// nopLocker used when only in-process deduplication is needed
type nopLocker struct{}

func (nopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker SET NX PX lock with token-checked release
type RedisLocker struct {
	client    *redis.Client
	retryWait time.Duration
	logger    *zap.Logger
}

// NewRedisLocker creates a RedisLocker polling every retryWait while the lock is taken
func NewRedisLocker(client *redis.Client, retryWait time.Duration, logger *zap.Logger) *RedisLocker {
	if retryWait <= 0 {
		retryWait = 100 * time.Millisecond
	}
	return &RedisLocker{client: client, retryWait: retryWait, logger: logger}
}

// Acquire implements Locker
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		timer := time.NewTimer(l.retryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	// the caller's ctx may already be cancelled; release must still run
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("Failed to release fetch lock",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
