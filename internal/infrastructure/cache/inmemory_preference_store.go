package cache

import (
	"context"
	"sync"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
)

type preferenceEntry struct {
	prefs     finance.Preferences
	expiresAt time.Time // zero never expires
}

// InMemoryPreferenceStore implements finance.PreferenceStore using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryPreferenceStore struct {
	mu      sync.RWMutex
	entries map[string]preferenceEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryPreferenceStore creates an in-memory store. A zero ttl keeps entries
// until cleared; expired entries are dropped lazily on read.
func NewInMemoryPreferenceStore(ttl time.Duration) *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		entries: make(map[string]preferenceEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get loads the preferences of a scope
func (s *InMemoryPreferenceStore) Get(_ context.Context, scope string) (finance.Preferences, bool) {
	s.mu.RLock()
	e, ok := s.entries[scope]
	s.mu.RUnlock()
	if !ok {
		return finance.Preferences{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, still := s.entries[scope]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, scope)
		}
		s.mu.Unlock()
		return finance.Preferences{}, false
	}
	return e.prefs, true
}

// Set stores the preferences of a scope
func (s *InMemoryPreferenceStore) Set(_ context.Context, scope string, prefs finance.Preferences) {
	e := preferenceEntry{prefs: prefs}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[scope] = e
	s.mu.Unlock()
}

// Clear removes the preferences of a scope
func (s *InMemoryPreferenceStore) Clear(_ context.Context, scope string) {
	s.mu.Lock()
	delete(s.entries, scope)
	s.mu.Unlock()
}

// Close is a no-op kept for symmetry with the Redis store
func (s *InMemoryPreferenceStore) Close() error {
	return nil
}

var _ finance.PreferenceStore = (*InMemoryPreferenceStore)(nil)
