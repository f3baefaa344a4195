package counter_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-hr-portal/internal/shared/counter"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

const window = 15 * time.Minute

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func bucketKey(key string, at time.Time) string {
	return fmt.Sprintf("attempts:%s:%d", key, at.UTC().Truncate(window).Unix())
}

func TestAttemptStore_Incr(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)

	t.Run("success increments and refreshes ttl", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := counter.NewRedisAttemptStore(rdb, window, fixedClock(now))

		k := bucketKey("login:casey@example.com", now)
		mock.ExpectTxPipeline()
		mock.ExpectIncr(k).SetVal(3)
		mock.ExpectExpire(k, window).SetVal(true)
		mock.ExpectTxPipelineExec()

		n, err := store.Incr(ctx, "login:casey@example.com")

		assert.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("window rollover uses a fresh bucket", func(t *testing.T) {
		later := now.Add(window)
		rdb, mock := redismock.NewClientMock()
		store := counter.NewRedisAttemptStore(rdb, window, fixedClock(later))

		k := bucketKey("login:casey@example.com", later)
		assert.NotEqual(t, bucketKey("login:casey@example.com", now), k)

		mock.ExpectTxPipeline()
		mock.ExpectIncr(k).SetVal(1)
		mock.ExpectExpire(k, window).SetVal(true)
		mock.ExpectTxPipelineExec()

		n, err := store.Incr(ctx, "login:casey@example.com")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttemptStore_Count(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := counter.NewRedisAttemptStore(rdb, window, fixedClock(now))

		mock.ExpectGet(bucketKey("login:x", now)).SetVal("4")

		n, err := store.Count(ctx, "login:x")

		assert.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("missing bucket counts zero", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := counter.NewRedisAttemptStore(rdb, window, fixedClock(now))

		mock.ExpectGet(bucketKey("login:x", now)).RedisNil()

		n, err := store.Count(ctx, "login:x")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestAttemptStore_Reset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)

	rdb, mock := redismock.NewClientMock()
	store := counter.NewRedisAttemptStore(rdb, window, fixedClock(now))

	mock.ExpectDel(bucketKey("login:x", now)).SetVal(1)

	assert.NoError(t, store.Reset(ctx, "login:x"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
