package dto

import (
	"strings"
	"time"

	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceivableRequest is the body of receivable create, update and batch items.
// Field rules live in finance.EntryInput.Validate so every entry point agrees;
// binding only rejects malformed JSON.
type ReceivableRequest struct {
	ID                 string          `json:"id,omitempty"`
	Version            int             `json:"version,omitempty"`
	CustomerName       string          `json:"customerName"`
	ServiceDescription string          `json:"serviceDescription"`
	ServiceDate        string          `json:"serviceDate"`
	DueDate            string          `json:"dueDate"`
	PaymentDate        string          `json:"paymentDate,omitempty"`
	PaymentMethod      string          `json:"paymentMethod"`
	InvoiceNumber      string          `json:"invoiceNumber,omitempty"`
	InvoiceIssueDate   string          `json:"invoiceIssueDate,omitempty"`
	ServiceOrderNumber string          `json:"serviceOrderNumber,omitempty"`
	Currency           string          `json:"currency,omitempty"`
	GrossAmount        decimal.Decimal `json:"grossAmount"`
	IssAmount          decimal.Decimal `json:"issAmount"`
	InssAmount         decimal.Decimal `json:"inssAmount"`
	AmountReceived     decimal.Decimal `json:"amountReceived"`
}

// ToInput converts the request into the shared entry input
func (r ReceivableRequest) ToInput() finance.EntryInput {
	return finance.EntryInput{
		Kind:               finance.KindReceivable,
		Counterparty:       r.CustomerName,
		Description:        r.ServiceDescription,
		ServiceDate:        r.ServiceDate,
		DueDate:            r.DueDate,
		PaymentDate:        r.PaymentDate,
		PaymentMethod:      r.PaymentMethod,
		InvoiceNumber:      r.InvoiceNumber,
		InvoiceIssueDate:   r.InvoiceIssueDate,
		ServiceOrderNumber: r.ServiceOrderNumber,
		Currency:           r.Currency,
		GrossAmount:        r.GrossAmount,
		IssAmount:          r.IssAmount,
		InssAmount:         r.InssAmount,
		Settled:            r.AmountReceived,
	}
}

// NewReceivableRequest renders an entry input as a request body, the inverse of ToInput
func NewReceivableRequest(in finance.EntryInput) ReceivableRequest {
	return ReceivableRequest{
		CustomerName:       in.Counterparty,
		ServiceDescription: in.Description,
		ServiceDate:        in.ServiceDate,
		DueDate:            in.DueDate,
		PaymentDate:        in.PaymentDate,
		PaymentMethod:      in.PaymentMethod,
		InvoiceNumber:      in.InvoiceNumber,
		InvoiceIssueDate:   in.InvoiceIssueDate,
		ServiceOrderNumber: in.ServiceOrderNumber,
		Currency:           in.Currency,
		GrossAmount:        in.GrossAmount,
		IssAmount:          in.IssAmount,
		InssAmount:         in.InssAmount,
		AmountReceived:     in.Settled,
	}
}

// PayableRequest is the body of payable create, update and batch items
type PayableRequest struct {
	ID                 string          `json:"id,omitempty"`
	Version            int             `json:"version,omitempty"`
	VendorName         string          `json:"vendorName"`
	Description        string          `json:"description"`
	Category           string          `json:"category,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	ServiceDate        string          `json:"serviceDate"`
	DueDate            string          `json:"dueDate"`
	PaymentDate        string          `json:"paymentDate,omitempty"`
	PaymentMethod      string          `json:"paymentMethod"`
	InvoiceNumber      string          `json:"invoiceNumber,omitempty"`
	InvoiceIssueDate   string          `json:"invoiceIssueDate,omitempty"`
	ServiceOrderNumber string          `json:"serviceOrderNumber,omitempty"`
	Currency           string          `json:"currency,omitempty"`
	GrossAmount        decimal.Decimal `json:"grossAmount"`
	IssAmount          decimal.Decimal `json:"issAmount"`
	InssAmount         decimal.Decimal `json:"inssAmount"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
}

// ToInput converts the request into the shared entry input
func (r PayableRequest) ToInput() finance.EntryInput {
	return finance.EntryInput{
		Kind:               finance.KindPayable,
		Counterparty:       r.VendorName,
		Description:        r.Description,
		Category:           r.Category,
		Notes:              r.Notes,
		ServiceDate:        r.ServiceDate,
		DueDate:            r.DueDate,
		PaymentDate:        r.PaymentDate,
		PaymentMethod:      r.PaymentMethod,
		InvoiceNumber:      r.InvoiceNumber,
		InvoiceIssueDate:   r.InvoiceIssueDate,
		ServiceOrderNumber: r.ServiceOrderNumber,
		Currency:           r.Currency,
		GrossAmount:        r.GrossAmount,
		IssAmount:          r.IssAmount,
		InssAmount:         r.InssAmount,
		Settled:            r.AmountPaid,
	}
}

// BatchCreateResponse lists the ids created and the items rejected, by input index
type BatchCreateResponse struct {
	Created  []string       `json:"created"`
	Failures []BatchFailure `json:"failures"`
}

// BatchFailure is one rejected batch item
type BatchFailure struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBatchCreateResponse renders a batch result
func NewBatchCreateResponse(res finance.BatchResult) BatchCreateResponse {
	out := BatchCreateResponse{
		Created:  make([]string, len(res.Created)),
		Failures: make([]BatchFailure, len(res.Failures)),
	}
	for i, id := range res.Created {
		out.Created[i] = id.String()
	}
	for i, f := range res.Failures {
		out.Failures[i] = BatchFailure{Index: f.Index, Code: f.Code, Message: f.Message}
	}
	return out
}

// SettlementRequest registers a receipt or payment. An empty date means today;
// a positive version must match the stored one.
type SettlementRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Date    string          `json:"date" binding:"omitempty,date_only"`
	Version int             `json:"version" binding:"gte=0"`
}

// ToService converts the request for the application layer
func (r SettlementRequest) ToService() financeapp.SettlementRequest {
	req := financeapp.SettlementRequest{Amount: r.Amount, ExpectedVersion: r.Version}
	if d, err := shared.ParseDate(strings.TrimSpace(r.Date)); err == nil {
		req.Date = &d
	}
	return req
}

// InstallmentPreviewRequest describes an invoice to split into installments
type InstallmentPreviewRequest struct {
	GrossAmount decimal.Decimal  `json:"grossAmount"`
	Currency    string           `json:"currency" binding:"omitempty,currency"`
	IssMode     string           `json:"issMode" binding:"omitempty,iss_mode"`
	IssRate     *decimal.Decimal `json:"issRate"`
	IssAmount   decimal.Decimal  `json:"issAmount"`
	InssAmount  decimal.Decimal  `json:"inssAmount"`
	BaseDate    string           `json:"baseDate" binding:"required,date_only"`
	Count       int              `json:"count"`
	Rule        string           `json:"rule" binding:"required,schedule_rule"`
	FixedDay    int              `json:"fixedDay"`
}

// ToService converts the request for the application layer. Binding has
// already checked the enum and date fields.
func (r InstallmentPreviewRequest) ToService() financeapp.InstallmentPreviewRequest {
	var base time.Time
	if d, err := shared.ParseDate(strings.TrimSpace(r.BaseDate)); err == nil {
		base = d
	}
	return financeapp.InstallmentPreviewRequest{
		GrossAmount: r.GrossAmount,
		Currency:    r.Currency,
		IssMode:     finance.IssMode(strings.ToLower(strings.TrimSpace(r.IssMode))),
		IssRate:     r.IssRate,
		IssAmount:   r.IssAmount,
		InssAmount:  r.InssAmount,
		BaseDate:    base,
		Count:       r.Count,
		Rule:        finance.ScheduleRule(r.Rule),
		FixedDay:    r.FixedDay,
	}
}

// MonthQuery narrows a listing to one due month. Year and month come together.
type MonthQuery struct {
	Year  *int `form:"year" binding:"omitempty,gte=2000,lte=2100"`
	Month *int `form:"month" binding:"omitempty,gte=1,lte=12"`
}

// MonthRef returns the selected month, nil when neither parameter is set
func (q MonthQuery) MonthRef() (*finance.MonthRef, error) {
	switch {
	case q.Year == nil && q.Month == nil:
		return nil, nil
	case q.Year == nil:
		return nil, finance.ValidationErrors{{Field: "year", Key: finance.KeyRequired, Message: "year is required with month"}}
	case q.Month == nil:
		return nil, finance.ValidationErrors{{Field: "month", Key: finance.KeyRequired, Message: "month is required with year"}}
	}
	m, err := finance.NewMonthRef(*q.Year, *q.Month)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SummaryQuery are the query parameters of the summary endpoints
type SummaryQuery struct {
	MonthQuery
	Filter string `form:"filter" binding:"omitempty,quick_filter"`
	Search string `form:"search" binding:"max=200"`
}

// ToService converts the query for the application layer
func (q SummaryQuery) ToService() (financeapp.SummaryQuery, error) {
	month, err := q.MonthRef()
	if err != nil {
		return financeapp.SummaryQuery{}, err
	}
	filter, err := finance.ParseQuickFilter(q.Filter)
	if err != nil {
		return financeapp.SummaryQuery{}, err
	}
	return financeapp.SummaryQuery{Month: month, Filter: filter, Search: q.Search}, nil
}

// PreferencesRequest is the body of a preference write. Unknown values are
// replaced by defaults rather than rejected.
type PreferencesRequest struct {
	QuickFilter string           `json:"quickFilter"`
	MonthRef    string           `json:"monthRef"`
	IssMode     string           `json:"issMode"`
	IssRate     *decimal.Decimal `json:"issRate"`
}

// ToDomain converts the request into preferences. A missing ISS rate takes the
// default.
func (r PreferencesRequest) ToDomain() finance.Preferences {
	p := finance.Preferences{IssRate: finance.DefaultIssRate}
	if r.IssRate != nil {
		p.IssRate = *r.IssRate
	}
	if f, err := finance.ParseQuickFilter(r.QuickFilter); err == nil {
		p.QuickFilter = f
	}
	if m, err := finance.ParseMonthRef(r.MonthRef); err == nil {
		p.MonthRef = m
	}
	if mode, err := finance.ParseIssMode(r.IssMode); err == nil {
		p.IssMode = mode
	}
	return p
}
