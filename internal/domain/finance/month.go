package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
)

// Accepted MonthRef year range
const (
	MinMonthRefYear = 2000
	MaxMonthRefYear = 2100
)

// MonthRef identifies a calendar month, rendered as YYYY-MM.
type MonthRef struct {
	Year  int
	Month time.Month
}

// NewMonthRef validates year and month ranges.
func NewMonthRef(year, month int) (MonthRef, error) {
	if year < MinMonthRefYear || year > MaxMonthRefYear {
		return MonthRef{}, shared.NewDomainError(CodeInvalidMonthRef,
			fmt.Sprintf("year must be between %d and %d", MinMonthRefYear, MaxMonthRefYear))
	}
	if month < 1 || month > 12 {
		return MonthRef{}, shared.NewDomainError(CodeInvalidMonthRef, "month must be between 1 and 12")
	}
	return MonthRef{Year: year, Month: time.Month(month)}, nil
}

// ParseMonthRef parses a YYYY-MM string.
func ParseMonthRef(s string) (MonthRef, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return MonthRef{}, shared.NewDomainError(CodeInvalidMonthRef, fmt.Sprintf("invalid month reference: %q", s))
	}
	return NewMonthRef(t.Year(), int(t.Month()))
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) MonthRef {
	return MonthRef{Year: t.Year(), Month: t.Month()}
}

// IsZero reports an unset reference
func (m MonthRef) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String formats the reference as YYYY-MM
func (m MonthRef) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Prev returns the preceding month
func (m MonthRef) Prev() MonthRef {
	y, mo := addMonths(m.Year, m.Month, -1)
	return MonthRef{Year: y, Month: mo}
}

// Next returns the following month
func (m MonthRef) Next() MonthRef {
	y, mo := addMonths(m.Year, m.Month, 1)
	return MonthRef{Year: y, Month: mo}
}

// Window returns the half-open due-date interval [first day, first day of next month).
func (m MonthRef) Window() (from, to time.Time) {
	from = shared.Date(m.Year, m.Month, 1)
	next := m.Next()
	to = shared.Date(next.Year, next.Month, 1)
	return from, to
}

// Contains reports whether the calendar date of t falls inside the month.
func (m MonthRef) Contains(t time.Time) bool {
	from, to := m.Window()
	d := shared.DateOnly(t)
	return !d.Before(from) && d.Before(to)
}

// MarshalText implements encoding.TextMarshaler
func (m MonthRef) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text yields the zero value.
func (m *MonthRef) UnmarshalText(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		*m = MonthRef{}
		return nil
	}
	parsed, err := ParseMonthRef(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
