package finance

import (
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
)

var receivableLabels = labels{
	counterparty: "Customer name",
	description:  "Service description",
	settled:      "Received amount",
}

// Receivable is an amount owed to the business by a customer for a service.
type Receivable struct {
	Entry
}

// ReceivableParams is the input for creating or fully replacing a receivable
type ReceivableParams struct {
	CustomerName       string
	ServiceDescription string
	ServiceDate        time.Time
	DueDate            time.Time
	PaymentDate        *time.Time
	PaymentMethod      PaymentMethod
	GrossAmount        valueobject.Money
	IssAmount          valueobject.Money
	InssAmount         valueobject.Money
	AmountReceived     valueobject.Money
}

func (p ReceivableParams) entryParams() EntryParams {
	return EntryParams{
		Counterparty:  p.CustomerName,
		Description:   p.ServiceDescription,
		ServiceDate:   p.ServiceDate,
		DueDate:       p.DueDate,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		Gross:         p.GrossAmount,
		Iss:           p.IssAmount,
		Inss:          p.InssAmount,
		Settled:       p.AmountReceived,
	}
}

// NewReceivable creates a new receivable, enforcing every construction invariant.
func NewReceivable(p ReceivableParams, now time.Time) (*Receivable, error) {
	entry, err := newEntry(p.entryParams(), receivableLabels, now)
	if err != nil {
		return nil, err
	}
	return &Receivable{Entry: entry}, nil
}

// CustomerName returns the customer the amount is owed by
func (r *Receivable) CustomerName() string {
	return r.Counterparty
}

// ServiceDescription returns the description of the billed service
func (r *Receivable) ServiceDescription() string {
	return r.Description
}

// AmountReceived returns the cumulative amount received so far
func (r *Receivable) AmountReceived() valueobject.Money {
	return r.SettledAmount
}

// RegisterReceipt accumulates a received amount. Checks run in order: currency,
// positivity, then the outstanding cap.
func (r *Receivable) RegisterReceipt(amount valueobject.Money, receivedOn time.Time) error {
	return r.settle(amount, receivedOn)
}

// Update replaces all mutable attributes, re-validating the aggregate.
func (r *Receivable) Update(p ReceivableParams) error {
	return r.apply(p.entryParams(), receivableLabels)
}

// ReconstituteReceivable rebuilds a receivable from stored state without running
// the construction guard.
func ReconstituteReceivable(e Entry) *Receivable {
	return &Receivable{Entry: e}
}
