package finance

import (
	"context"
	"testing"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceService(t *testing.T) {
	ctx := context.Background()

	t.Run("returns defaults for an unknown screen state", func(t *testing.T) {
		svc := NewPreferenceService(newStubPreferenceStore(), WithDefaultIssRate(dec("2")))

		prefs, err := svc.Get(ctx, "Receivables")

		require.NoError(t, err)
		assert.Equal(t, finance.QuickFilterAll, prefs.QuickFilter)
		assert.Equal(t, finance.IssModeAuto, prefs.IssMode)
		assert.True(t, prefs.IssRate.Equal(dec("2")))
	})

	t.Run("normalizes on write and reads back", func(t *testing.T) {
		store := newStubPreferenceStore()
		svc := NewPreferenceService(store)

		month, err := finance.NewMonthRef(2026, 2)
		require.NoError(t, err)
		saved, err := svc.Set(ctx, " payables ", finance.Preferences{
			QuickFilter: finance.QuickFilterNext7,
			MonthRef:    month,
			IssMode:     "bogus",
			IssRate:     dec("250"),
		})
		require.NoError(t, err)
		assert.Equal(t, finance.IssModeAuto, saved.IssMode)
		assert.True(t, saved.IssRate.Equal(dec("100")))

		got, err := svc.Get(ctx, "payables")
		require.NoError(t, err)
		assert.Equal(t, finance.QuickFilterNext7, got.QuickFilter)
		assert.Equal(t, "2026-02", got.MonthRef.String())
	})

	t.Run("clear forgets the scope", func(t *testing.T) {
		store := newStubPreferenceStore()
		svc := NewPreferenceService(store)
		_, err := svc.Set(ctx, ScopeDashboard, finance.Preferences{QuickFilter: finance.QuickFilterSettled})
		require.NoError(t, err)

		require.NoError(t, svc.Clear(ctx, ScopeDashboard))

		_, ok := store.Get(ctx, ScopeDashboard)
		assert.False(t, ok)
	})

	t.Run("rejects unknown scopes", func(t *testing.T) {
		svc := NewPreferenceService(newStubPreferenceStore())

		_, err := svc.Get(ctx, "inventory")

		assert.Equal(t, shared.CodeInvalidInput, shared.CodeOf(err))
	})
}
