package finance

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EntryKind selects the field vocabulary of an entry
type EntryKind string

const (
	KindReceivable EntryKind = "receivable"
	KindPayable    EntryKind = "payable"
)

// Validation keys reported in FieldError.Key
const (
	KeyRequired            = "required"
	KeyMaxLength           = "maxLength"
	KeyInvalidDate         = "invalidDate"
	KeyInvalidCurrency     = "invalidCurrency"
	KeyInvalidMethod       = "invalidPaymentMethod"
	KeyNegative            = "negative"
	KeyTaxesExceedGross    = "taxesExceedGross"
	KeyExceedsNet          = "exceedsNet"
	KeyPaymentDateRequired = "paymentDateRequired"
	KeyPaymentDateUnused   = "paymentDateWithoutAmount"
	KeyInvoiceDateRequired = "invoiceIssueDateRequired"
	KeyInvoiceNumRequired  = "invoiceNumberRequired"
)

type fieldNames struct {
	counterparty string
	description  string
	settled      string
}

var kindFields = map[EntryKind]fieldNames{
	KindReceivable: {counterparty: "customerName", description: "serviceDescription", settled: "amountReceived"},
	KindPayable:    {counterparty: "vendorName", description: "description", settled: "amountPaid"},
}

// EntryInput is the raw, unvalidated shape of a receivable or payable as it arrives
// from HTTP, a batch item or an imported spreadsheet row. Dates are YYYY-MM-DD
// strings, empty meaning absent. Settled is the amount received or paid.
type EntryInput struct {
	Kind               EntryKind
	Counterparty       string
	Description        string
	Category           string
	Notes              string
	ServiceDate        string
	DueDate            string
	PaymentDate        string
	PaymentMethod      string
	InvoiceNumber      string
	InvoiceIssueDate   string
	ServiceOrderNumber string
	Currency           string
	GrossAmount        decimal.Decimal
	IssAmount          decimal.Decimal
	InssAmount         decimal.Decimal
	Settled            decimal.Decimal
}

// ValidEntry is an EntryInput that passed Validate, with every field parsed.
type ValidEntry struct {
	Params    EntryParams
	Documents Documents
	Category  string
	Notes     string
}

func (in EntryInput) names() fieldNames {
	if n, ok := kindFields[in.Kind]; ok {
		return n
	}
	return kindFields[KindReceivable]
}

// Validate runs every field rule and reports all failures at once. It is the one rule
// set shared by the HTTP handlers, batch creation and the import dry-run.
func (in EntryInput) Validate() error {
	_, err := in.Parse()
	return err
}

// Parse validates the input and converts it into aggregate parameters.
func (in EntryInput) Parse() (ValidEntry, error) {
	var errs ValidationErrors
	names := in.names()

	checkText := func(field, value string, required bool, max int) string {
		value = strings.TrimSpace(value)
		if value == "" {
			if required {
				errs.add(field, KeyRequired, field+" is required")
			}
			return ""
		}
		if utf8.RuneCountInString(value) > max {
			errs.add(field, KeyMaxLength, fmt.Sprintf("%s cannot exceed %d characters", field, max))
		}
		return value
	}
	checkDate := func(field, value string, required bool) *time.Time {
		value = strings.TrimSpace(value)
		if value == "" {
			if required {
				errs.add(field, KeyRequired, field+" is required")
			}
			return nil
		}
		d, err := shared.ParseDate(value)
		if err != nil {
			errs.add(field, KeyInvalidDate, field+" must be a YYYY-MM-DD date")
			return nil
		}
		return &d
	}
	checkAmount := func(field string, value decimal.Decimal) {
		if value.IsNegative() {
			errs.add(field, KeyNegative, field+" cannot be negative")
		}
	}

	counterparty := checkText(names.counterparty, in.Counterparty, true, MaxCounterpartyLength)
	description := checkText(names.description, in.Description, true, MaxDescriptionLength)
	var category, notes string
	if in.Kind == KindPayable {
		category = checkText("category", in.Category, false, MaxCategoryLength)
		notes = checkText("notes", in.Notes, false, MaxNotesLength)
	}
	invoiceNumber := checkText("invoiceNumber", in.InvoiceNumber, false, MaxDocumentNumberLength)
	serviceOrder := checkText("serviceOrderNumber", in.ServiceOrderNumber, false, MaxDocumentNumberLength)

	serviceDate := checkDate("serviceDate", in.ServiceDate, true)
	dueDate := checkDate("dueDate", in.DueDate, true)
	paymentDate := checkDate("paymentDate", in.PaymentDate, false)
	invoiceIssueDate := checkDate("invoiceIssueDate", in.InvoiceIssueDate, false)

	var method PaymentMethod
	if strings.TrimSpace(in.PaymentMethod) == "" {
		errs.add("paymentMethod", KeyRequired, "paymentMethod is required")
	} else if m, err := ParsePaymentMethod(in.PaymentMethod); err != nil {
		errs.add("paymentMethod", KeyInvalidMethod, "paymentMethod is invalid")
	} else {
		method = m
	}

	currency := valueobject.NormalizeCurrency(in.Currency)
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if len(currency) != 3 {
		errs.add("currency", KeyInvalidCurrency, "currency must be a 3-letter code")
	}

	checkAmount("grossAmount", in.GrossAmount)
	checkAmount("issAmount", in.IssAmount)
	checkAmount("inssAmount", in.InssAmount)
	checkAmount(names.settled, in.Settled)

	gross := in.GrossAmount.Round(valueobject.Scale)
	taxes := in.IssAmount.Round(valueobject.Scale).Add(in.InssAmount.Round(valueobject.Scale))
	settled := in.Settled.Round(valueobject.Scale)
	if taxes.GreaterThan(gross) {
		errs.add("issAmount", KeyTaxesExceedGross, "issAmount plus inssAmount cannot exceed grossAmount")
	} else if settled.GreaterThan(gross.Sub(taxes)) {
		errs.add(names.settled, KeyExceedsNet, names.settled+" cannot exceed the net amount")
	}

	hasPaymentDate := strings.TrimSpace(in.PaymentDate) != ""
	if settled.IsPositive() && !hasPaymentDate {
		errs.add("paymentDate", KeyPaymentDateRequired, "paymentDate is required when "+names.settled+" is greater than zero")
	}
	if !settled.IsPositive() && hasPaymentDate {
		errs.add("paymentDate", KeyPaymentDateUnused, "paymentDate requires "+names.settled+" greater than zero")
	}

	hasIssueDate := strings.TrimSpace(in.InvoiceIssueDate) != ""
	if invoiceNumber != "" && !hasIssueDate {
		errs.add("invoiceIssueDate", KeyInvoiceDateRequired, "invoiceIssueDate is required with invoiceNumber")
	}
	if invoiceNumber == "" && hasIssueDate {
		errs.add("invoiceNumber", KeyInvoiceNumRequired, "invoiceNumber is required with invoiceIssueDate")
	}

	if err := errs.OrNil(); err != nil {
		return ValidEntry{}, err
	}

	money := func(v decimal.Decimal) valueobject.Money {
		return valueobject.MustMoney(v, currency)
	}
	return ValidEntry{
		Params: EntryParams{
			Counterparty:  counterparty,
			Description:   description,
			ServiceDate:   *serviceDate,
			DueDate:       *dueDate,
			PaymentDate:   paymentDate,
			PaymentMethod: method,
			Gross:         money(in.GrossAmount),
			Iss:           money(in.IssAmount),
			Inss:          money(in.InssAmount),
			Settled:       money(in.Settled),
		},
		Documents: Documents{
			InvoiceNumber:      invoiceNumber,
			InvoiceIssueDate:   invoiceIssueDate,
			ServiceOrderNumber: serviceOrder,
		},
		Category: category,
		Notes:    notes,
	}, nil
}

// ReceivableParams maps the parsed input onto receivable construction parameters.
func (v ValidEntry) ReceivableParams() ReceivableParams {
	return ReceivableParams{
		CustomerName:       v.Params.Counterparty,
		ServiceDescription: v.Params.Description,
		ServiceDate:        v.Params.ServiceDate,
		DueDate:            v.Params.DueDate,
		PaymentDate:        v.Params.PaymentDate,
		PaymentMethod:      v.Params.PaymentMethod,
		GrossAmount:        v.Params.Gross,
		IssAmount:          v.Params.Iss,
		InssAmount:         v.Params.Inss,
		AmountReceived:     v.Params.Settled,
	}
}

// PayableParams maps the parsed input onto payable construction parameters.
func (v ValidEntry) PayableParams() PayableParams {
	return PayableParams{
		VendorName:    v.Params.Counterparty,
		Description:   v.Params.Description,
		Category:      v.Category,
		Notes:         v.Notes,
		ServiceDate:   v.Params.ServiceDate,
		DueDate:       v.Params.DueDate,
		PaymentDate:   v.Params.PaymentDate,
		PaymentMethod: v.Params.PaymentMethod,
		GrossAmount:   v.Params.Gross,
		IssAmount:     v.Params.Iss,
		InssAmount:    v.Params.Inss,
		AmountPaid:    v.Params.Settled,
	}
}

// BuildReceivable parses the input and constructs a receivable with its documents.
func (in EntryInput) BuildReceivable(now time.Time) (*Receivable, error) {
	v, err := in.Parse()
	if err != nil {
		return nil, err
	}
	r, err := NewReceivable(v.ReceivableParams(), now)
	if err != nil {
		return nil, err
	}
	if err := r.SetDocuments(v.Documents); err != nil {
		return nil, err
	}
	return r, nil
}

// BuildPayable parses the input and constructs a payable with its documents.
func (in EntryInput) BuildPayable(now time.Time) (*Payable, error) {
	v, err := in.Parse()
	if err != nil {
		return nil, err
	}
	p, err := NewPayable(v.PayableParams(), now)
	if err != nil {
		return nil, err
	}
	if err := p.SetDocuments(v.Documents); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyToReceivable validates the input and fully replaces r's attributes. r is left
// unchanged on failure.
func (in EntryInput) ApplyToReceivable(r *Receivable) error {
	v, err := in.Parse()
	if err != nil {
		return err
	}
	candidate := *r
	if err := candidate.Update(v.ReceivableParams()); err != nil {
		return err
	}
	if err := candidate.SetDocuments(v.Documents); err != nil {
		return err
	}
	*r = candidate
	return nil
}

// ApplyToPayable validates the input and fully replaces p's attributes. p is left
// unchanged on failure.
func (in EntryInput) ApplyToPayable(p *Payable) error {
	v, err := in.Parse()
	if err != nil {
		return err
	}
	candidate := *p
	if err := candidate.Update(v.PayableParams()); err != nil {
		return err
	}
	if err := candidate.SetDocuments(v.Documents); err != nil {
		return err
	}
	*p = candidate
	return nil
}
