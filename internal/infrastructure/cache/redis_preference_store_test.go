package cache

import (
	"context"
	"testing"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableClient points at a port nothing listens on
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisPreferenceStore_DegradesToMiss(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := NewRedisPreferenceStore(unreachableClient(), "", 0, zap.New(core))
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, "receivables", finance.DefaultPreferences())
	_, ok := store.Get(ctx, "receivables")
	store.Clear(ctx, "receivables")

	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("preference write failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("preference read failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("preference delete failed").Len())
	for _, entry := range logs.All() {
		assert.Equal(t, zapcore.DebugLevel, entry.Level)
	}
}

func TestRedisPreferenceStore_KeyPrefix(t *testing.T) {
	store := NewRedisPreferenceStore(unreachableClient(), "", 0, nil)
	defer store.Close()

	assert.Equal(t, "bookkeeping:prefs:payables", store.key("payables"))

	custom := NewRedisPreferenceStore(unreachableClient(), "site-a:", 0, nil)
	defer custom.Close()
	assert.Equal(t, "site-a:payables", custom.key("payables"))
}

func TestPreferenceStoreFactory_CreateStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("memory backend skips Redis", func(t *testing.T) {
		f := NewPreferenceStoreFactory(config.PreferencesConfig{Backend: config.PreferencesBackendMemory}, unreachable)

		store, err := f.CreateStore(ctx)

		require.NoError(t, err)
		assert.IsType(t, &InMemoryPreferenceStore{}, store)
	})

	t.Run("falls back to memory when Redis is down", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := NewPreferenceStoreFactory(config.PreferencesConfig{Backend: config.PreferencesBackendRedis}, unreachable,
			WithLogger(zap.New(core)))

		store, err := f.CreateStore(ctx)

		require.NoError(t, err)
		assert.IsType(t, &InMemoryPreferenceStore{}, store)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		f := NewPreferenceStoreFactory(config.PreferencesConfig{Backend: config.PreferencesBackendRedis}, unreachable,
			WithInMemoryFallback(false))

		_, err := f.CreateStore(ctx)

		assert.Error(t, err)
	})
}
