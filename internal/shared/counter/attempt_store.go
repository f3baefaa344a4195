package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore counts failed attempts per key inside a rolling window.
// The clock is injected so windowing is testable; eviction is delegated
// to the store's TTL rather than hidden process-wide state.
type AttemptStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type redisAttemptStore struct {
	rdb    *redis.Client
	window time.Duration
	now    func() time.Time
}

func NewRedisAttemptStore(rdb *redis.Client, window time.Duration, now func() time.Time) AttemptStore {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &redisAttemptStore{rdb: rdb, window: window, now: now}
}

// bucketKey pins a key to its current window so counts expire together.
func (s *redisAttemptStore) bucketKey(key string) string {
	bucket := s.now().UTC().Truncate(s.window).Unix()
	return fmt.Sprintf("attempts:%s:%d", key, bucket)
}

func (s *redisAttemptStore) Incr(ctx context.Context, key string) (int64, error) {
	k := s.bucketKey(key)

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *redisAttemptStore) Count(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Get(ctx, s.bucketKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *redisAttemptStore) Reset(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.bucketKey(key)).Err()
}
