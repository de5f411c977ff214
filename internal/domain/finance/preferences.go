package finance

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Preferences are the per-screen UI choices remembered between sessions.
type Preferences struct {
	QuickFilter QuickFilter     `json:"quickFilter"`
	MonthRef    MonthRef        `json:"monthRef"`
	IssMode     IssMode         `json:"issMode"`
	IssRate     decimal.Decimal `json:"issRate"`
}

// DefaultPreferences returns the state of a screen nobody has customized.
func DefaultPreferences() Preferences {
	return Preferences{
		QuickFilter: QuickFilterAll,
		IssMode:     IssModeAuto,
		IssRate:     DefaultIssRate,
	}
}

// Normalize replaces unknown values with defaults and clamps the ISS rate.
func (p Preferences) Normalize() Preferences {
	d := DefaultPreferences()
	if !p.QuickFilter.IsValid() {
		p.QuickFilter = d.QuickFilter
	}
	if !p.IssMode.IsValid() {
		p.IssMode = d.IssMode
	}
	if !p.MonthRef.IsZero() {
		if _, err := NewMonthRef(p.MonthRef.Year, int(p.MonthRef.Month)); err != nil {
			p.MonthRef = MonthRef{}
		}
	}
	p.IssRate = ClampIssRate(p.IssRate)
	return p
}

// NormalizeScope canonicalizes a preference scope name such as "receivables".
func NormalizeScope(scope string) string {
	return strings.ToLower(strings.TrimSpace(scope))
}

// PreferenceStore persists preferences per scope. Implementations swallow their own
// failures: a broken store degrades to defaults and never fails the caller.
type PreferenceStore interface {
	Get(ctx context.Context, scope string) (Preferences, bool)
	Set(ctx context.Context, scope string, prefs Preferences)
	Clear(ctx context.Context, scope string)
}
