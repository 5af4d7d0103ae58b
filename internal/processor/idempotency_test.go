package processor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/parcel-shipping/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &redis.Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	return mr, adapter
}

func TestIdempotencyService_AcquireProcessingLock_FirstAttempt(t *testing.T) {
	_, adapter := setupRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())

	pc, err := service.AcquireProcessingLock(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "evt-1", pc.EventID)
	assert.Zero(t, pc.RetryCount)
	assert.False(t, pc.IsRetry)
	assert.True(t, pc.lockAcquired)
}

func TestIdempotencyService_AcquireProcessingLock_Concurrent(t *testing.T) {
	_, adapter := setupRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	first, err := service.AcquireProcessingLock(ctx, "evt-2")
	require.NoError(t, err)

	second, err := service.AcquireProcessingLock(ctx, "evt-2")
	assert.ErrorIs(t, err, ErrLockAcquireFailed)
	assert.Nil(t, second)
	assert.True(t, first.lockAcquired)
}

func TestIdempotencyService_MarkSuccess(t *testing.T) {
	mr, adapter := setupRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	pc, err := service.AcquireProcessingLock(ctx, "evt-3")
	require.NoError(t, err)
	require.NoError(t, service.MarkSuccess(ctx, pc))

	processed, err := service.IsProcessed(ctx, "evt-3")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.False(t, mr.Exists("notify:lock:evt-3"))

	again, err := service.AcquireProcessingLock(ctx, "evt-3")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Nil(t, again)
}

func TestIdempotencyService_MarkFailure_WithRetry(t *testing.T) {
	_, adapter := setupRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	first, err := service.AcquireProcessingLock(ctx, "evt-4")
	require.NoError(t, err)
	require.NoError(t, service.MarkFailure(ctx, first, assert.AnError))

	second, err := service.AcquireProcessingLock(ctx, "evt-4")
	require.NoError(t, err)
	assert.Equal(t, 1, second.RetryCount)
	assert.True(t, second.IsRetry)
}

func TestIdempotencyService_MaxRetriesExceeded(t *testing.T) {
	_, adapter := setupRedis(t)
	config := DefaultIdempotencyConfig()
	config.MaxRetries = 2
	service := NewIdempotencyService(adapter, config)
	ctx := context.Background()

	for i := 0; i < config.MaxRetries; i++ {
		pc, err := service.AcquireProcessingLock(ctx, "evt-5")
		require.NoError(t, err)
		require.NoError(t, service.MarkFailure(ctx, pc, nil))
	}

	pc, err := service.AcquireProcessingLock(ctx, "evt-5")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Nil(t, pc)
}

func TestIdempotencyService_ReleaseLock(t *testing.T) {
	_, adapter := setupRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	pc, err := service.AcquireProcessingLock(ctx, "evt-6")
	require.NoError(t, err)
	require.NoError(t, service.ReleaseLock(ctx, pc))
	assert.False(t, pc.lockAcquired)

	pc2, err := service.AcquireProcessingLock(ctx, "evt-6")
	require.NoError(t, err)
	assert.NotNil(t, pc2)

	assert.NoError(t, service.ReleaseLock(ctx, nil))
}

func TestIdempotencyService_GetRetryCount(t *testing.T) {
	_, adapter := setupRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	count, err := service.GetRetryCount(ctx, "evt-7")
	require.NoError(t, err)
	assert.Zero(t, count)

	pc, err := service.AcquireProcessingLock(ctx, "evt-7")
	require.NoError(t, err)
	require.NoError(t, service.MarkFailure(ctx, pc, nil))

	count, err = service.GetRetryCount(ctx, "evt-7")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
