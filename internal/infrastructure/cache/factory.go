package cache

import (
	"context"
	"fmt"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// PreferenceStore is a finance.PreferenceStore that owns a connection
type PreferenceStore interface {
	finance.PreferenceStore
	Close() error
}

// PreferenceStoreFactory creates preference stores based on configuration
type PreferenceStoreFactory struct {
	prefsConfig           config.PreferencesConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PreferenceStoreFactoryOption is a functional option for configuring the factory
type PreferenceStoreFactoryOption func(*PreferenceStoreFactory)

// WithLogger sets the logger for the factory and the stores it creates
func WithLogger(logger *zap.Logger) PreferenceStoreFactoryOption {
	return func(f *PreferenceStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) PreferenceStoreFactoryOption {
	return func(f *PreferenceStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPreferenceStoreFactory creates a new factory
func NewPreferenceStoreFactory(prefs config.PreferencesConfig, redisCfg config.RedisConfig, opts ...PreferenceStoreFactoryOption) *PreferenceStoreFactory {
	f := &PreferenceStoreFactory{
		prefsConfig:           prefs,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore connects to Redis and returns a Redis-backed store
func (f *PreferenceStoreFactory) CreateRedisStore(ctx context.Context) (PreferenceStore, error) {
	client, err := NewRedisClient(ctx, RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis preference store: %w", err)
	}
	return NewRedisPreferenceStore(client, f.prefsConfig.KeyPrefix, f.prefsConfig.TTL, f.logger), nil
}

// CreateInMemoryStore creates an in-memory preference store
func (f *PreferenceStoreFactory) CreateInMemoryStore() PreferenceStore {
	return NewInMemoryPreferenceStore(f.prefsConfig.TTL)
}

// CreateStore creates the configured store. When Redis is selected but unreachable
// it falls back to memory, unless fallback was disabled.
func (f *PreferenceStoreFactory) CreateStore(ctx context.Context) (PreferenceStore, error) {
	if f.prefsConfig.Backend == config.PreferencesBackendMemory {
		f.logger.Info("using in-memory preference store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("using Redis preference store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for preferences but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory preference store. "+
		"Preferences will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
