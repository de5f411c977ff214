package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultPreferenceKeyPrefix namespaces preference keys in a shared Redis
const DefaultPreferenceKeyPrefix = "bookkeeping:prefs:"

// RedisPreferenceStore implements finance.PreferenceStore using Redis.
// Values are JSON documents; every failure is logged at debug level and
// reported to the caller as a miss.
type RedisPreferenceStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisPreferenceStore creates a store on an existing client. An empty prefix
// uses DefaultPreferenceKeyPrefix; a zero ttl keeps entries until cleared.
func NewRedisPreferenceStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisPreferenceStore {
	if keyPrefix == "" {
		keyPrefix = DefaultPreferenceKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPreferenceStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *RedisPreferenceStore) key(scope string) string {
	return s.keyPrefix + scope
}

// Get loads the preferences of a scope
func (s *RedisPreferenceStore) Get(ctx context.Context, scope string) (finance.Preferences, bool) {
	data, err := s.client.Get(ctx, s.key(scope)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("preference read failed", zap.String("scope", scope), zap.Error(err))
		}
		return finance.Preferences{}, false
	}
	var prefs finance.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.Debug("preference value is not valid JSON", zap.String("scope", scope), zap.Error(err))
		return finance.Preferences{}, false
	}
	return prefs, true
}

// Set stores the preferences of a scope
func (s *RedisPreferenceStore) Set(ctx context.Context, scope string, prefs finance.Preferences) {
	data, err := json.Marshal(prefs)
	if err != nil {
		s.logger.Debug("preference encode failed", zap.String("scope", scope), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, s.key(scope), data, s.ttl).Err(); err != nil {
		s.logger.Debug("preference write failed", zap.String("scope", scope), zap.Error(err))
	}
}

// Clear removes the preferences of a scope
func (s *RedisPreferenceStore) Clear(ctx context.Context, scope string) {
	if err := s.client.Del(ctx, s.key(scope)).Err(); err != nil {
		s.logger.Debug("preference delete failed", zap.String("scope", scope), zap.Error(err))
	}
}

// Close closes the Redis client
func (s *RedisPreferenceStore) Close() error {
	return s.client.Close()
}

var _ finance.PreferenceStore = (*RedisPreferenceStore)(nil)
