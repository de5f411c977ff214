package finance

import (
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
)

// ScheduleRule selects how installment due dates advance
type ScheduleRule string

const (
	// RuleFixedInterval spaces installments 30 calendar days apart regardless of month length.
	RuleFixedInterval ScheduleRule = "FixedInterval"
	// RuleMonthlyFixedDay puts every installment on the same day of consecutive months.
	RuleMonthlyFixedDay ScheduleRule = "MonthlyFixedDay"
)

// Scheduler limits
const (
	MinScheduledInstallments = 2
	FixedIntervalDays        = 30
)

// IsValid checks if the rule is a known value
func (r ScheduleRule) IsValid() bool {
	return r == RuleFixedInterval || r == RuleMonthlyFixedDay
}

// ScheduleRequest describes the due dates to generate
type ScheduleRequest struct {
	BaseDate time.Time
	Count    int
	Rule     ScheduleRule
	FixedDay int // 1..31, only read by RuleMonthlyFixedDay
}

// ScheduledDueDate is one generated due date. Adjusted is set when the natural
// date had to move: the base date was in the past, the fixed day was clamped to
// the month length, or the first month was pushed forward.
type ScheduledDueDate struct {
	Installment int
	DueDate     time.Time
	Adjusted    bool
}

// Validate checks the request bounds
func (r ScheduleRequest) Validate() error {
	if r.Count < MinScheduledInstallments || r.Count > MaxInstallments {
		return invalidSchedule("installment count must be between %d and %d, got %d",
			MinScheduledInstallments, MaxInstallments, r.Count)
	}
	if !r.Rule.IsValid() {
		return invalidSchedule("unknown schedule rule: %q", r.Rule)
	}
	if r.Rule == RuleMonthlyFixedDay && (r.FixedDay < 1 || r.FixedDay > 31) {
		return invalidSchedule("fixed day must be between 1 and 31, got %d", r.FixedDay)
	}
	if r.BaseDate.IsZero() {
		return invalidSchedule("base date is required")
	}
	return nil
}

// ScheduleInstallments generates Count due dates. It never schedules before today:
// a past base date is moved to today and every row is then flagged Adjusted.
// The result depends only on the request and today.
func ScheduleInstallments(req ScheduleRequest, today time.Time) ([]ScheduledDueDate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	day := shared.DateOnly(today)
	base := shared.DateOnly(req.BaseDate)
	shifted := false
	if base.Before(day) {
		base = day
		shifted = true
	}

	rows := make([]ScheduledDueDate, req.Count)
	switch req.Rule {
	case RuleFixedInterval:
		for i := range req.Count {
			rows[i] = ScheduledDueDate{
				Installment: i + 1,
				DueDate:     base.AddDate(0, 0, FixedIntervalDays*(i+1)),
				Adjusted:    shifted,
			}
		}
	case RuleMonthlyFixedDay:
		year, month := base.Year(), base.Month()
		first, _ := fixedDayIn(year, month, req.FixedDay)
		pushed := first.Before(base)
		if pushed {
			year, month = addMonths(year, month, 1)
		}
		for i := range req.Count {
			y, m := addMonths(year, month, i)
			due, clamped := fixedDayIn(y, m, req.FixedDay)
			rows[i] = ScheduledDueDate{
				Installment: i + 1,
				DueDate:     due,
				Adjusted:    shifted || clamped || (i == 0 && pushed),
			}
		}
	}
	return rows, nil
}

// fixedDayIn returns day of the given month, clamped to the month's last day.
// The second result reports whether clamping happened.
func fixedDayIn(year int, month time.Month, day int) (time.Time, bool) {
	last := DaysInMonth(year, month)
	if day > last {
		return shared.Date(year, month, last), true
	}
	return shared.Date(year, month, day), false
}

func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := int(month) - 1 + n
	dy := idx / 12
	if idx%12 < 0 {
		dy--
	}
	return year + dy, time.Month((idx%12+12)%12 + 1)
}

// DaysInMonth returns the number of days in the month
func DaysInMonth(year int, month time.Month) int {
	return shared.Date(year, month+1, 0).Day()
}
