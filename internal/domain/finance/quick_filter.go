package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// QuickFilter is a status bucket selectable in list views
type QuickFilter string

const (
	QuickFilterAll      QuickFilter = "all"
	QuickFilterOverdue  QuickFilter = "overdue"
	QuickFilterDueToday QuickFilter = "dueToday"
	QuickFilterOpen     QuickFilter = "open"
	QuickFilterNext7    QuickFilter = "next7"
	QuickFilterSettled  QuickFilter = "settled"
)

// NextDaysWindow is the look-ahead of the next7 bucket
const NextDaysWindow = 7

// AllQuickFilters lists every bucket
func AllQuickFilters() []QuickFilter {
	return []QuickFilter{
		QuickFilterAll, QuickFilterOverdue, QuickFilterDueToday,
		QuickFilterOpen, QuickFilterNext7, QuickFilterSettled,
	}
}

// IsValid checks if the filter is a known bucket
func (f QuickFilter) IsValid() bool {
	for _, known := range AllQuickFilters() {
		if f == known {
			return true
		}
	}
	return false
}

// ParseQuickFilter parses a bucket name. Empty input means all.
func ParseQuickFilter(s string) (QuickFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return QuickFilterAll, nil
	}
	for _, known := range AllQuickFilters() {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", shared.NewDomainError(CodeInvalidQuickFilter, fmt.Sprintf("unknown quick filter: %q", s))
}

// EntryView is the flat projection the aggregation engine works on. Amounts may
// come pre-computed from elsewhere, hence the tolerance-based checks.
type EntryView struct {
	ID                 string
	Counterparty       string
	Description        string
	PaymentMethod      string
	InvoiceNumber      string
	ServiceOrderNumber string
	DueDate            time.Time
	GrossAmount        decimal.Decimal
	SettledAmount      decimal.Decimal
	OutstandingAmount  decimal.Decimal
	Status             EntryStatus
}

// ViewOf projects an entry as of today
func ViewOf(e *Entry, today time.Time) EntryView {
	return EntryView{
		ID:                 e.ID.String(),
		Counterparty:       e.Counterparty,
		Description:        e.Description,
		PaymentMethod:      string(e.PaymentMethod),
		InvoiceNumber:      e.InvoiceNumber,
		ServiceOrderNumber: e.ServiceOrderNumber,
		DueDate:            e.DueDate,
		GrossAmount:        e.GrossAmount.Amount(),
		SettledAmount:      e.SettledAmount.Amount(),
		OutstandingAmount:  e.OutstandingAmount().Amount(),
		Status:             e.Status(today),
	}
}

// IsPaid reports settlement for bucketing: a Settled status, or an outstanding
// amount within tolerance of zero after something was actually settled.
func IsPaid(v EntryView) bool {
	if v.Status == StatusSettled {
		return true
	}
	return v.OutstandingAmount.LessThanOrEqual(SettledTolerance) && v.SettledAmount.IsPositive()
}

// Matches reports whether the view belongs to the bucket on the given day.
func (f QuickFilter) Matches(v EntryView, today time.Time) bool {
	paid := IsPaid(v)
	switch f {
	case QuickFilterAll:
		return true
	case QuickFilterOverdue:
		return !paid && v.Status == StatusOverdue
	case QuickFilterDueToday:
		return !paid && v.Status == StatusDueToday
	case QuickFilterOpen:
		return !paid && v.Status != StatusOverdue
	case QuickFilterNext7:
		diff := shared.DaysBetween(today, v.DueDate)
		return !paid && diff > 0 && diff <= NextDaysWindow
	case QuickFilterSettled:
		return paid
	}
	return false
}

// BucketCounts holds how many views fall in each bucket
type BucketCounts struct {
	All      int `json:"all"`
	Overdue  int `json:"overdue"`
	DueToday int `json:"dueToday"`
	Open     int `json:"open"`
	Next7    int `json:"next7"`
	Settled  int `json:"settled"`
}

// CountBuckets counts views per bucket
func CountBuckets(views []EntryView, today time.Time) BucketCounts {
	var c BucketCounts
	for _, v := range views {
		c.All++
		if QuickFilterOverdue.Matches(v, today) {
			c.Overdue++
		}
		if QuickFilterDueToday.Matches(v, today) {
			c.DueToday++
		}
		if QuickFilterOpen.Matches(v, today) {
			c.Open++
		}
		if QuickFilterNext7.Matches(v, today) {
			c.Next7++
		}
		if QuickFilterSettled.Matches(v, today) {
			c.Settled++
		}
	}
	return c
}

// Totals are the roll-ups shown under a list
type Totals struct {
	GrossAmount       decimal.Decimal `json:"grossAmount"`
	SettledAmount     decimal.Decimal `json:"settledAmount"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	OpenCount         int             `json:"openCount"`
}

// ComputeTotals sums amounts over views and counts the ones not yet paid.
func ComputeTotals(views []EntryView) Totals {
	t := Totals{
		GrossAmount:       decimal.Zero,
		SettledAmount:     decimal.Zero,
		OutstandingAmount: decimal.Zero,
	}
	for _, v := range views {
		t.GrossAmount = t.GrossAmount.Add(v.GrossAmount)
		t.SettledAmount = t.SettledAmount.Add(v.SettledAmount)
		t.OutstandingAmount = t.OutstandingAmount.Add(v.OutstandingAmount)
		if !IsPaid(v) {
			t.OpenCount++
		}
	}
	return t
}

var folder = cases.Fold()

// MatchesSearch does a case-insensitive substring match of term against the
// counterparty, description, payment method, invoice and service order fields.
// A blank term matches everything.
func MatchesSearch(v EntryView, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	haystack := strings.Join([]string{
		v.Counterparty, v.Description, v.PaymentMethod, v.InvoiceNumber, v.ServiceOrderNumber,
	}, " ")
	return strings.Contains(folder.String(haystack), folder.String(term))
}

// Summary is the list view-model: filtered rows, their totals, and bucket counts
// over everything that matched the search.
type Summary struct {
	Rows    []EntryView
	Totals  Totals
	Buckets BucketCounts
}

// Summarize applies the search term, counts buckets, then narrows to the selected
// bucket. Rows are ordered by due date then counterparty.
func Summarize(views []EntryView, filter QuickFilter, term string, today time.Time) Summary {
	searched := make([]EntryView, 0, len(views))
	for _, v := range views {
		if MatchesSearch(v, term) {
			searched = append(searched, v)
		}
	}

	rows := make([]EntryView, 0, len(searched))
	for _, v := range searched {
		if filter.Matches(v, today) {
			rows = append(rows, v)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].DueDate.Equal(rows[j].DueDate) {
			return rows[i].DueDate.Before(rows[j].DueDate)
		}
		return rows[i].Counterparty < rows[j].Counterparty
	})

	return Summary{
		Rows:    rows,
		Totals:  ComputeTotals(rows),
		Buckets: CountBuckets(searched, today),
	}
}
