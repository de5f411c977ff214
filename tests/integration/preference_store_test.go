package integration

import (
	"context"
	"testing"
	"time"

	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/infrastructure/cache"
	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisPreferenceStore_Container(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	addr := NewTestRedis(t)
	ctx := context.Background()

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: addr})
	require.NoError(t, err)
	store := cache.NewRedisPreferenceStore(client, "it:prefs:", time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	svc := financeapp.NewPreferenceService(store)

	t.Run("unsaved scope returns defaults", func(t *testing.T) {
		prefs, err := svc.Get(ctx, "payables")
		require.NoError(t, err)
		assert.Equal(t, finance.QuickFilterAll, prefs.QuickFilter)
	})

	t.Run("saved preferences survive a new client", func(t *testing.T) {
		march, err := finance.NewMonthRef(2026, 3)
		require.NoError(t, err)
		_, err = svc.Set(ctx, "receivables", finance.Preferences{
			QuickFilter: finance.QuickFilterOverdue,
			MonthRef:    march,
			IssMode:     finance.IssModeAuto,
			IssRate:     decimal.NewFromInt(3),
		})
		require.NoError(t, err)

		other, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: addr})
		require.NoError(t, err)
		reader := cache.NewRedisPreferenceStore(other, "it:prefs:", 0, zap.NewNop())
		defer reader.Close()

		prefs, ok := reader.Get(ctx, "receivables")
		require.True(t, ok)
		assert.Equal(t, finance.QuickFilterOverdue, prefs.QuickFilter)
		assert.Equal(t, march, prefs.MonthRef)
		assert.True(t, prefs.IssRate.Equal(decimal.NewFromInt(3)))

		ttl, err := other.TTL(ctx, "it:prefs:receivables").Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})

	t.Run("clear restores defaults", func(t *testing.T) {
		require.NoError(t, svc.Clear(ctx, "receivables"))
		_, ok := store.Get(ctx, "receivables")
		assert.False(t, ok)
	})
}

func TestPreferenceStoreFactory_Container(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	addr := NewTestRedis(t)
	host, port := splitHostPort(t, addr)

	factory := cache.NewPreferenceStoreFactory(
		config.PreferencesConfig{Backend: config.PreferencesBackendRedis, KeyPrefix: "it:factory:"},
		config.RedisConfig{Host: host, Port: port},
		cache.WithInMemoryFallback(false),
	)

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	_, isRedis := store.(*cache.RedisPreferenceStore)
	assert.True(t, isRedis)
}
