package finance

import (
	"context"
	"fmt"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Preference scopes, one per screen
const (
	ScopeReceivables = "receivables"
	ScopePayables    = "payables"
	ScopeDashboard   = "dashboard"
)

var knownScopes = map[string]bool{
	ScopeReceivables: true,
	ScopePayables:    true,
	ScopeDashboard:   true,
}

// PreferenceService reads and writes per-screen UI preferences. The store never
// fails the caller: a miss or a broken store yields defaults.
type PreferenceService struct {
	store finance.PreferenceStore
	serviceDeps
}

// NewPreferenceService creates a new PreferenceService
func NewPreferenceService(store finance.PreferenceStore, opts ...ServiceOption) *PreferenceService {
	s := &PreferenceService{store: store, serviceDeps: newServiceDeps(opts)}
	return s
}

func (s *PreferenceService) defaults() finance.Preferences {
	d := finance.DefaultPreferences()
	d.IssRate = s.issRate
	return d
}

func scopeOf(raw string) (string, error) {
	scope := finance.NormalizeScope(raw)
	if !knownScopes[scope] {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown preference scope: %q", raw))
	}
	return scope, nil
}

// Get returns the stored preferences of a scope, or the defaults
func (s *PreferenceService) Get(ctx context.Context, rawScope string) (finance.Preferences, error) {
	scope, err := scopeOf(rawScope)
	if err != nil {
		return finance.Preferences{}, err
	}
	prefs, ok := s.store.Get(ctx, scope)
	if !ok {
		return s.defaults(), nil
	}
	return prefs.Normalize(), nil
}

// Set normalizes and stores the preferences of a scope, returning what was stored
func (s *PreferenceService) Set(ctx context.Context, rawScope string, prefs finance.Preferences) (finance.Preferences, error) {
	scope, err := scopeOf(rawScope)
	if err != nil {
		return finance.Preferences{}, err
	}
	prefs = prefs.Normalize()
	s.store.Set(ctx, scope, prefs)
	s.log(ctx).Debug("preferences saved",
		zap.String("scope", scope),
		zap.String("quick_filter", string(prefs.QuickFilter)),
		zap.String("month_ref", prefs.MonthRef.String()),
	)
	return prefs, nil
}

// Clear forgets the preferences of a scope
func (s *PreferenceService) Clear(ctx context.Context, rawScope string) error {
	scope, err := scopeOf(rawScope)
	if err != nil {
		return err
	}
	s.store.Clear(ctx, scope)
	return nil
}
