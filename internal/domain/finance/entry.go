package finance

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
)

// Field length limits shared by receivables and payables
const (
	MaxCounterpartyLength   = 150
	MaxDescriptionLength    = 255
	MaxDocumentNumberLength = 50
	MaxCategoryLength       = 100
	MaxNotesLength          = 500
)

// Entry is the state shared by receivables and payables: one billable unit with its
// dates, document references, gross amount, withholdings and cumulative settlement.
// Net, outstanding and status are derived on every read and never stored.
type Entry struct {
	shared.BaseAggregateRoot
	Counterparty       string
	Description        string
	ServiceDate        time.Time
	DueDate            time.Time
	PaymentDate        *time.Time
	PaymentMethod      PaymentMethod
	InvoiceNumber      string
	InvoiceIssueDate   *time.Time
	ServiceOrderNumber string
	GrossAmount        valueobject.Money
	IssAmount          valueobject.Money
	InssAmount         valueobject.Money
	SettledAmount      valueobject.Money
}

// EntryParams carries construction and full-update input for an Entry.
// Zero-valued Inss and Settled amounts default to zero in the gross currency.
type EntryParams struct {
	Counterparty  string
	Description   string
	ServiceDate   time.Time
	DueDate       time.Time
	PaymentDate   *time.Time
	PaymentMethod PaymentMethod
	Gross         valueobject.Money
	Iss           valueobject.Money
	Inss          valueobject.Money
	Settled       valueobject.Money
}

// labels name the counterparty and description fields in invariant messages,
// since receivables and payables call them differently.
type labels struct {
	counterparty string
	description  string
	settled      string
}

func (p EntryParams) withDefaults() EntryParams {
	cur := p.Gross.Currency()
	if p.Iss.Currency() == "" && cur != "" {
		p.Iss = valueobject.MustZero(cur)
	}
	if p.Inss.Currency() == "" && cur != "" {
		p.Inss = valueobject.MustZero(cur)
	}
	if p.Settled.Currency() == "" && cur != "" {
		p.Settled = valueobject.MustZero(cur)
	}
	return p
}

func newEntry(p EntryParams, l labels, now time.Time) (Entry, error) {
	p = p.withDefaults()
	e := Entry{BaseAggregateRoot: shared.NewBaseAggregateRoot(now)}
	e.assign(p)
	if err := e.checkInvariants(l); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (e *Entry) assign(p EntryParams) {
	e.Counterparty = strings.TrimSpace(p.Counterparty)
	e.Description = strings.TrimSpace(p.Description)
	e.ServiceDate = shared.DateOnly(p.ServiceDate)
	e.DueDate = shared.DateOnly(p.DueDate)
	e.PaymentDate = dateOnlyPtr(p.PaymentDate)
	e.PaymentMethod = p.PaymentMethod
	e.GrossAmount = p.Gross
	e.IssAmount = p.Iss
	e.InssAmount = p.Inss
	e.SettledAmount = p.Settled
}

// apply replaces every mutable attribute, re-running the construction guard.
// Identity, creation time, version and document references are preserved.
// On failure the entry is left untouched.
func (e *Entry) apply(p EntryParams, l labels) error {
	p = p.withDefaults()
	candidate := *e
	candidate.assign(p)
	if err := candidate.checkInvariants(l); err != nil {
		return err
	}
	*e = candidate
	return nil
}

func (e *Entry) checkInvariants(l labels) error {
	if e.Counterparty == "" {
		return invariantViolation(fmt.Sprintf("%s is required.", l.counterparty))
	}
	if utf8.RuneCountInString(e.Counterparty) > MaxCounterpartyLength {
		return invariantViolation(fmt.Sprintf("%s cannot exceed %d characters.", l.counterparty, MaxCounterpartyLength))
	}
	if e.Description == "" {
		return invariantViolation(fmt.Sprintf("%s is required.", l.description))
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return invariantViolation(fmt.Sprintf("%s cannot exceed %d characters.", l.description, MaxDescriptionLength))
	}
	if e.DueDate.IsZero() {
		return invariantViolation("Due date is required.")
	}
	if !e.PaymentMethod.IsValid() {
		return invariantViolation(fmt.Sprintf("Payment method is invalid: %q.", e.PaymentMethod))
	}
	if e.GrossAmount.Currency() == "" {
		return invariantViolation("Gross amount is required.")
	}
	cur := e.GrossAmount.Currency()
	if e.IssAmount.Currency() != cur || e.InssAmount.Currency() != cur || e.SettledAmount.Currency() != cur {
		return invariantViolation("All amounts must share the gross amount currency.")
	}
	taxes, err := e.IssAmount.Add(e.InssAmount)
	if err != nil {
		return invariantViolation(err.Error())
	}
	if e.IssAmount.Amount().GreaterThan(e.GrossAmount.Amount()) {
		return invariantViolation("ISS amount cannot exceed gross amount.")
	}
	if taxes.Amount().GreaterThan(e.GrossAmount.Amount()) {
		return invariantViolation("ISS plus INSS amounts cannot exceed gross amount.")
	}
	if e.SettledAmount.Amount().GreaterThan(e.NetAmount().Amount()) {
		return invariantViolation(fmt.Sprintf("%s cannot exceed net amount.", l.settled))
	}
	return nil
}

// NetAmount is gross minus both withholdings, never below zero.
func (e *Entry) NetAmount() valueobject.Money {
	net, err := e.GrossAmount.SubtractFloor(e.IssAmount)
	if err != nil {
		return valueobject.MustZero(e.GrossAmount.Currency())
	}
	net, err = net.SubtractFloor(e.InssAmount)
	if err != nil {
		return valueobject.MustZero(e.GrossAmount.Currency())
	}
	return net
}

// OutstandingAmount is net minus what has been settled, never below zero.
func (e *Entry) OutstandingAmount() valueobject.Money {
	out, err := e.NetAmount().SubtractFloor(e.SettledAmount)
	if err != nil {
		return valueobject.MustZero(e.GrossAmount.Currency())
	}
	return out
}

// Status derives the lifecycle state for the given day.
func (e *Entry) Status(today time.Time) EntryStatus {
	return DeriveStatus(e.OutstandingAmount(), e.DueDate, today)
}

// Currency returns the currency every amount of the entry is expressed in.
func (e *Entry) Currency() valueobject.Currency {
	return e.GrossAmount.Currency()
}

// AttachInvoice links an invoice number and its issue date. Both are set together.
func (e *Entry) AttachInvoice(number string, issueDate time.Time) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewDomainError(CodeEmptyValue, "Invoice number is required.")
	}
	if utf8.RuneCountInString(number) > MaxDocumentNumberLength {
		return invariantViolation(fmt.Sprintf("Invoice number cannot exceed %d characters.", MaxDocumentNumberLength))
	}
	if issueDate.IsZero() {
		return invariantViolation("Invoice issue date is required with an invoice number.")
	}
	d := shared.DateOnly(issueDate)
	e.InvoiceNumber = number
	e.InvoiceIssueDate = &d
	return nil
}

// DetachInvoice clears the invoice pair.
func (e *Entry) DetachInvoice() {
	e.InvoiceNumber = ""
	e.InvoiceIssueDate = nil
}

// AttachServiceOrder links a service order number.
func (e *Entry) AttachServiceOrder(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewDomainError(CodeEmptyValue, "Service order number is required.")
	}
	if utf8.RuneCountInString(number) > MaxDocumentNumberLength {
		return invariantViolation(fmt.Sprintf("Service order number cannot exceed %d characters.", MaxDocumentNumberLength))
	}
	e.ServiceOrderNumber = number
	return nil
}

// DetachServiceOrder clears the service order reference.
func (e *Entry) DetachServiceOrder() {
	e.ServiceOrderNumber = ""
}

// ChangeDueDate moves the due date.
func (e *Entry) ChangeDueDate(date time.Time) {
	e.DueDate = shared.DateOnly(date)
}

// ChangePaymentMethod switches the settlement instrument.
func (e *Entry) ChangePaymentMethod(method PaymentMethod) {
	e.PaymentMethod = method
}

// settle accumulates a receipt or payment. settledOn is stamped as the payment
// date when none was recorded yet.
func (e *Entry) settle(amount valueobject.Money, settledOn time.Time) error {
	if !amount.SameCurrency(e.GrossAmount) {
		return shared.NewDomainError(valueobject.CodeCurrencyMismatch,
			fmt.Sprintf("amount currency %s does not match entry currency %s", amount.Currency(), e.GrossAmount.Currency()))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(CodeNonPositiveAmount, "Amount must be greater than zero.")
	}
	outstanding := e.OutstandingAmount()
	if amount.Amount().GreaterThan(outstanding.Amount()) {
		return shared.NewDomainError(CodeExceedsOutstanding,
			fmt.Sprintf("Amount %s exceeds outstanding amount %s.", amount, outstanding))
	}
	total, err := e.SettledAmount.Add(amount)
	if err != nil {
		return err
	}
	e.SettledAmount = total
	if e.PaymentDate == nil {
		d := shared.DateOnly(settledOn)
		e.PaymentDate = &d
	}
	return nil
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := shared.DateOnly(*t)
	return &d
}

// Documents is the optional document group of an entry. The invoice number and its
// issue date travel together.
type Documents struct {
	InvoiceNumber      string
	InvoiceIssueDate   *time.Time
	ServiceOrderNumber string
}

// SetDocuments replaces the document group, attaching or detaching each part.
// An invoice number without an issue date is rejected and leaves e unchanged.
func (e *Entry) SetDocuments(d Documents) error {
	if strings.TrimSpace(d.InvoiceNumber) == "" {
		e.DetachInvoice()
	} else {
		if d.InvoiceIssueDate == nil || d.InvoiceIssueDate.IsZero() {
			return invariantViolation("Invoice issue date is required with an invoice number.")
		}
		if err := e.AttachInvoice(d.InvoiceNumber, *d.InvoiceIssueDate); err != nil {
			return err
		}
	}
	if strings.TrimSpace(d.ServiceOrderNumber) == "" {
		e.DetachServiceOrder()
		return nil
	}
	return e.AttachServiceOrder(d.ServiceOrderNumber)
}
