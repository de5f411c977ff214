package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Receivable spreadsheet columns
const (
	ColCustomer      = "Cliente"
	ColService       = "Servico"
	ColServiceOrder  = "NumeroOS"
	ColInvoice       = "NF"
	ColPaymentMethod = "FormaPagamento"
	ColGross         = "ValorBruto"
	ColIss           = "ISS"
	ColNet           = "Liquido"
	ColReceived      = "Recebido"
	ColDueDate       = "Vencimento"
	ColServiceDate   = "DataServico"
	ColIssueDate     = "DataEmissao"
)

// RequiredReceivableColumns must be present in the header
var RequiredReceivableColumns = []string{ColGross, ColDueDate}

// invoiceLeadDays is how long before the due date an invoice is assumed issued
// when the sheet carries its number but not its date
const invoiceLeadDays = 2

var netTolerance = decimal.New(1, -2)

// ReceivableRules are the column checks applied before a row is mapped
func ReceivableRules() []FieldRule {
	return []FieldRule{
		Field(ColGross).Required().Amount().Build(),
		Field(ColIss).Amount().Build(),
		Field(ColNet).Amount().Build(),
		Field(ColReceived).Amount().Build(),
		Field(ColDueDate).Required().Date().Build(),
		Field(ColServiceDate).Date().Build(),
		Field(ColIssueDate).Date().Build(),
		Field(ColServiceOrder).MaxLength(finance.MaxDocumentNumberLength).Build(),
		Field(ColInvoice).MaxLength(finance.MaxDocumentNumberLength).Build(),
	}
}

// Entry is one mapped row with the line it came from
type Entry struct {
	Line  int                `json:"line" yaml:"line"`
	Input finance.EntryInput `json:"-" yaml:"-"`
}

// Result holds the rows that mapped cleanly and the errors of the rest
type Result struct {
	Entries   []Entry
	Errors    *RowErrors
	TotalRows int
}

// Valid reports how many rows mapped into entries
func (r *Result) Valid() int {
	return len(r.Entries)
}

// ReceivableMapper turns spreadsheet rows into receivable inputs
type ReceivableMapper struct {
	clock     shared.Clock
	currency  string
	maxErrors int
	parser    []ParserOption
}

// MapperOption configures a ReceivableMapper
type MapperOption func(*ReceivableMapper)

// WithClock sets the clock used to cap payment dates at today
func WithClock(c shared.Clock) MapperOption {
	return func(m *ReceivableMapper) {
		m.clock = c
	}
}

// WithCurrency sets the currency of imported amounts
func WithCurrency(code string) MapperOption {
	return func(m *ReceivableMapper) {
		m.currency = code
	}
}

// WithMaxErrors bounds how many row errors are kept
func WithMaxErrors(n int) MapperOption {
	return func(m *ReceivableMapper) {
		m.maxErrors = n
	}
}

// WithParserOptions passes options through to the CSV parser
func WithParserOptions(opts ...ParserOption) MapperOption {
	return func(m *ReceivableMapper) {
		m.parser = append(m.parser, opts...)
	}
}

// NewReceivableMapper creates a mapper in BRL using the system clock
func NewReceivableMapper(opts ...MapperOption) *ReceivableMapper {
	m := &ReceivableMapper{
		clock:     shared.NewSystemClock(nil),
		currency:  string(valueobject.DefaultCurrency),
		maxErrors: DefaultMaxErrors,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ParseReceivables maps a receivables export with a default mapper
func ParseReceivables(r io.Reader, opts ...MapperOption) (*Result, error) {
	return NewReceivableMapper(opts...).Parse(r)
}

// Parse reads every row of r. File-level problems (encoding, header, missing
// columns) are returned as the error; row problems are collected in the result.
func (m *ReceivableMapper) Parse(r io.Reader) (*Result, error) {
	parser, err := NewCSVParser(r, m.parser...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.ValidateHeaders(RequiredReceivableColumns); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	result := &Result{Errors: NewRowErrors(m.maxErrors)}
	validator := NewFieldValidator(ReceivableRules(), result.Errors)
	today := shared.Today(m.clock)

	seq := 0
	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				seq++
				result.Errors.Add(RowError{Row: parser.currentRow, Code: CodeMalformedRow, Message: err.Error()})
				continue
			}
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		seq++
		if !validator.ValidateRow(row) {
			continue
		}
		in, ok := m.mapRow(row, seq, today, result.Errors)
		if !ok {
			continue
		}
		result.Entries = append(result.Entries, Entry{Line: row.LineNumber, Input: in})
	}
	result.TotalRows = seq
	if seq == 0 {
		return nil, ErrNoDataRows
	}
	return result, nil
}

// mapRow applies the import clamps and fallbacks, then runs the entry rules
func (m *ReceivableMapper) mapRow(row *Row, seq int, today time.Time, errs *RowErrors) (finance.EntryInput, bool) {
	gross := amount(row, ColGross)
	if !gross.IsPositive() {
		errs.Add(RowError{Row: row.LineNumber, Column: ColGross, Code: CodeInvalidRange,
			Message: "gross amount must be greater than zero", Value: row.Get(ColGross)})
		return finance.EntryInput{}, false
	}

	iss := clamp(amount(row, ColIss), decimal.Zero, gross)
	net := gross.Sub(iss)
	if raw := row.Get(ColNet); raw != "" {
		stated := amount(row, ColNet)
		if stated.IsPositive() && stated.LessThanOrEqual(gross) && stated.Sub(net).Abs().GreaterThan(netTolerance) {
			errs.Add(RowError{Row: row.LineNumber, Column: ColNet, Code: CodeNetMismatch,
				Message: fmt.Sprintf("net %s does not match gross minus ISS %s", stated.StringFixed(2), net.StringFixed(2)),
				Value:   raw})
			return finance.EntryInput{}, false
		}
	}
	received := clamp(amount(row, ColReceived), decimal.Zero, net)

	due := date(row, ColDueDate)
	serviceDate := date(row, ColServiceDate)
	if serviceDate.IsZero() {
		serviceDate = due
	}

	in := finance.EntryInput{
		Kind:               finance.KindReceivable,
		Counterparty:       fallback(row.Get(ColCustomer), fmt.Sprintf("Cliente %03d", seq), finance.MaxCounterpartyLength),
		Description:        fallback(row.Get(ColService), "Servico geral", finance.MaxDescriptionLength),
		ServiceDate:        shared.FormatDate(serviceDate),
		DueDate:            shared.FormatDate(due),
		PaymentMethod:      MapPaymentMethod(row.Get(ColPaymentMethod)).String(),
		ServiceOrderNumber: row.Get(ColServiceOrder),
		Currency:           m.currency,
		GrossAmount:        gross,
		IssAmount:          iss,
		Settled:            received,
	}
	if received.IsPositive() {
		paid := due
		if today.Before(due) {
			paid = today
		}
		in.PaymentDate = shared.FormatDate(paid)
	}
	if nf := row.Get(ColInvoice); nf != "" {
		issued := date(row, ColIssueDate)
		if issued.IsZero() {
			issued = due.AddDate(0, 0, -invoiceLeadDays)
		}
		in.InvoiceNumber = nf
		in.InvoiceIssueDate = shared.FormatDate(issued)
	}

	var verrs finance.ValidationErrors
	if err := in.Validate(); errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs.Add(RowError{Row: row.LineNumber, Column: fe.Field, Code: CodeValidation, Message: fe.Message})
		}
		return finance.EntryInput{}, false
	} else if err != nil {
		errs.Add(RowError{Row: row.LineNumber, Code: CodeValidation, Message: err.Error()})
		return finance.EntryInput{}, false
	}
	return in, true
}

// amount and date read columns the validator already accepted
func amount(row *Row, col string) decimal.Decimal {
	d, _ := ParseDecimal(row.Get(col))
	return d.Round(valueobject.Scale)
}

func date(row *Row, col string) time.Time {
	t, _ := ParseFlexibleDate(row.Get(col))
	return t
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func fallback(value, def string, max int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = def
	}
	if utf8.RuneCountInString(value) > max {
		value = string([]rune(value)[:max])
	}
	return value
}
