package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a receivable or payable. It is never
// stored: it is derived from the outstanding amount, the due date and today.
type EntryStatus string

const (
	StatusOpen     EntryStatus = "Open"
	StatusDueToday EntryStatus = "DueToday"
	StatusOverdue  EntryStatus = "Overdue"
	StatusSettled  EntryStatus = "Settled"
)

// SettledTolerance absorbs floating drift in pre-aggregated outstanding values.
var SettledTolerance = decimal.RequireFromString("0.005")

// IsValid checks if the status is a known value
func (s EntryStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusDueToday, StatusOverdue, StatusSettled:
		return true
	}
	return false
}

// String returns the string representation
func (s EntryStatus) String() string {
	return string(s)
}

// DeriveStatus computes the status from an exact Money outstanding amount.
func DeriveStatus(outstanding valueobject.Money, dueDate, today time.Time) EntryStatus {
	if outstanding.IsZero() {
		return StatusSettled
	}
	return statusByDate(dueDate, today)
}

// DeriveStatusFromAmount is DeriveStatus for raw aggregated amounts, treating
// anything within SettledTolerance of zero as settled.
func DeriveStatusFromAmount(outstanding decimal.Decimal, dueDate, today time.Time) EntryStatus {
	if outstanding.Abs().LessThanOrEqual(SettledTolerance) {
		return StatusSettled
	}
	return statusByDate(dueDate, today)
}

func statusByDate(dueDate, today time.Time) EntryStatus {
	due := shared.DateOnly(dueDate)
	day := shared.DateOnly(today)
	switch {
	case due.Before(day):
		return StatusOverdue
	case due.Equal(day):
		return StatusDueToday
	default:
		return StatusOpen
	}
}

var statusAliases = map[string]EntryStatus{
	"open":       StatusOpen,
	"aberto":     StatusOpen,
	"em aberto":  StatusOpen,
	"no prazo":   StatusOpen,
	"duetoday":   StatusDueToday,
	"due today":  StatusDueToday,
	"due_today":  StatusDueToday,
	"vence hoje": StatusDueToday,
	"overdue":    StatusOverdue,
	"atrasado":   StatusOverdue,
	"em atraso":  StatusOverdue,
	"vencido":    StatusOverdue,
	"settled":    StatusSettled,
	"quitado":    StatusSettled,
	"liquidado":  StatusSettled,
	"pago":       StatusSettled,
	"recebido":   StatusSettled,
	"1":          StatusOpen,
	"2":          StatusDueToday,
	"3":          StatusOverdue,
	"4":          StatusSettled,
}

// ParseEntryStatus parses canonical names, their numeric codes and the
// Portuguese labels used by exported spreadsheets, ignoring case.
func ParseEntryStatus(s string) (EntryStatus, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return "", shared.NewDomainError(CodeInvalidStatus, fmt.Sprintf("unknown status: %q", s))
}
