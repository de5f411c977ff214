package finance

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
)

var payableLabels = labels{
	counterparty: "Vendor name",
	description:  "Description",
	settled:      "Paid amount",
}

// Payable is an amount the business owes to a vendor.
type Payable struct {
	Entry
	Category string
	Notes    string
}

// PayableParams is the input for creating or fully replacing a payable
type PayableParams struct {
	VendorName    string
	Description   string
	Category      string
	Notes         string
	ServiceDate   time.Time
	DueDate       time.Time
	PaymentDate   *time.Time
	PaymentMethod PaymentMethod
	GrossAmount   valueobject.Money
	IssAmount     valueobject.Money
	InssAmount    valueobject.Money
	AmountPaid    valueobject.Money
}

func (p PayableParams) entryParams() EntryParams {
	return EntryParams{
		Counterparty:  p.VendorName,
		Description:   p.Description,
		ServiceDate:   p.ServiceDate,
		DueDate:       p.DueDate,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		Gross:         p.GrossAmount,
		Iss:           p.IssAmount,
		Inss:          p.InssAmount,
		Settled:       p.AmountPaid,
	}
}

func checkPayableExtras(category, notes string) error {
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return invariantViolation(fmt.Sprintf("Category cannot exceed %d characters.", MaxCategoryLength))
	}
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return invariantViolation(fmt.Sprintf("Notes cannot exceed %d characters.", MaxNotesLength))
	}
	return nil
}

// NewPayable creates a new payable, enforcing every construction invariant.
func NewPayable(p PayableParams, now time.Time) (*Payable, error) {
	category := strings.TrimSpace(p.Category)
	notes := strings.TrimSpace(p.Notes)
	if err := checkPayableExtras(category, notes); err != nil {
		return nil, err
	}
	entry, err := newEntry(p.entryParams(), payableLabels, now)
	if err != nil {
		return nil, err
	}
	return &Payable{Entry: entry, Category: category, Notes: notes}, nil
}

// VendorName returns the vendor the amount is owed to
func (p *Payable) VendorName() string {
	return p.Counterparty
}

// AmountPaid returns the cumulative amount paid so far
func (p *Payable) AmountPaid() valueobject.Money {
	return p.SettledAmount
}

// RegisterPayment accumulates a paid amount with the same guards as receipts.
func (p *Payable) RegisterPayment(amount valueobject.Money, paidOn time.Time) error {
	return p.settle(amount, paidOn)
}

// Update replaces all mutable attributes, re-validating the aggregate.
func (p *Payable) Update(params PayableParams) error {
	category := strings.TrimSpace(params.Category)
	notes := strings.TrimSpace(params.Notes)
	if err := checkPayableExtras(category, notes); err != nil {
		return err
	}
	if err := p.apply(params.entryParams(), payableLabels); err != nil {
		return err
	}
	p.Category = category
	p.Notes = notes
	return nil
}

// ReconstitutePayable rebuilds a payable from stored state without running the
// construction guard.
func ReconstitutePayable(e Entry, category, notes string) *Payable {
	return &Payable{Entry: e, Category: category, Notes: notes}
}
