package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/rollcall/internal/infrastructure/ratelimit"
	"github.com/lllypuk/rollcall/internal/middleware"
	"github.com/lllypuk/rollcall/internal/testutil"
)

func TestRedisStore_Counting(t *testing.T) {
	client, prefix := testutil.SetupTestRedis(t)
	store := ratelimit.NewRedisStore(ratelimit.RedisStoreConfig{Client: client, KeyPrefix: prefix})
	ctx := context.Background()

	count, err := store.GetCount(ctx, "ip:1")
	require.NoError(t, err)
	assert.Zero(t, count)

	ttl, err := store.GetTTL(ctx, "ip:1")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	for want := int64(1); want <= 3; want++ {
		count, err = store.Increment(ctx, "ip:1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	count, err = store.GetCount(ctx, "ip:1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	ttl, err = store.GetTTL(ctx, "ip:1")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, store.Ping(ctx))
}

func TestRedisStore_WindowNotExtended(t *testing.T) {
	client, prefix := testutil.SetupTestRedis(t)
	store := ratelimit.NewRedisStore(ratelimit.RedisStoreConfig{Client: client, KeyPrefix: prefix})
	ctx := context.Background()

	_, err := store.Increment(ctx, "ip:2", 2*time.Second)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "ip:2", time.Hour)
	require.NoError(t, err)

	ttl, err := store.GetTTL(ctx, "ip:2")
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 2*time.Second)
}

func TestRedisStore_WithMiddleware(t *testing.T) {
	client, prefix := testutil.SetupTestRedis(t)
	store := ratelimit.NewRedisStore(ratelimit.RedisStoreConfig{Client: client, KeyPrefix: prefix})

	config := middleware.DefaultRateLimitConfig()
	config.Store = store
	config.Limit = 2
	config.BurstSize = 0

	e := echo.New()
	e.Use(middleware.RateLimit(config))
	e.POST("/api/v1/users/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
