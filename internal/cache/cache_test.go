package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCacheComputesOnce(t *testing.T) {
	now := time.Now()
	c := NewMemoryCacheWithClock(func() time.Time { return now })

	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "owner-1", nil
	}

	for i := 0; i < 3; i++ {
		value, err := c.GetOrCompute(context.Background(), "booking-owner:a", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, "owner-1", value)
	}
	assert.Equal(t, 1, calls)
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Now()
	c := NewMemoryCacheWithClock(func() time.Time { return now })

	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "owner-1", nil
	}

	_, err := c.GetOrCompute(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = c.GetOrCompute(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "entry still fresh")

	now = now.Add(2 * time.Second)
	_, err = c.GetOrCompute(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "entry recomputed after ttl")
}

func TestMemoryCacheDoesNotCacheErrors(t *testing.T) {
	c := NewMemoryCache()

	calls := 0
	failing := func(context.Context) (string, error) {
		calls++
		return "", errors.New("lookup failed")
	}

	_, err := c.GetOrCompute(context.Background(), "k", time.Minute, failing)
	require.Error(t, err)

	value, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", value)
	assert.Equal(t, 1, calls)
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := NewMemoryCache()

	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	_, err := c.GetOrCompute(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(context.Background(), "k"))

	_, err = c.GetOrCompute(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRedisCacheHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, zap.NewNop())

	mock.ExpectGet("booking-owner:a").SetVal("owner-1")

	value, err := c.GetOrCompute(context.Background(), "booking-owner:a", time.Minute, func(context.Context) (string, error) {
		t.Fatal("compute must not run on a cache hit")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "owner-1", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMissComputesAndStores(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, zap.NewNop())

	mock.ExpectGet("k").RedisNil()
	mock.ExpectSet("k", "computed", time.Minute).SetVal("OK")

	value, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "computed", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "computed", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheDegradesOnBackendError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, zap.NewNop())

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	mock.ExpectSet("k", "computed", time.Minute).SetErr(errors.New("connection refused"))

	value, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "computed", nil
	})
	require.NoError(t, err, "a redis outage must not fail the lookup")
	assert.Equal(t, "computed", value)
}

func TestRedisCacheComputeErrorPropagates(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, zap.NewNop())

	mock.ExpectGet("k").RedisNil()

	_, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "", errors.New("lookup failed")
	})
	require.Error(t, err)
}

func TestRedisCacheInvalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, zap.NewNop())

	mock.ExpectDel("k").SetVal(1)
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
