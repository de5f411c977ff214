package finance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceivableResponse represents a receivable in API responses. Net, outstanding and
// status are derived as of the service clock's today.
type ReceivableResponse struct {
	ID                 uuid.UUID       `json:"id"`
	CustomerName       string          `json:"customerName"`
	ServiceDescription string          `json:"serviceDescription"`
	ServiceDate        string          `json:"serviceDate"`
	DueDate            string          `json:"dueDate"`
	PaymentDate        string          `json:"paymentDate,omitempty"`
	PaymentMethod      string          `json:"paymentMethod"`
	InvoiceNumber      string          `json:"invoiceNumber,omitempty"`
	InvoiceIssueDate   string          `json:"invoiceIssueDate,omitempty"`
	ServiceOrderNumber string          `json:"serviceOrderNumber,omitempty"`
	Currency           string          `json:"currency"`
	GrossAmount        decimal.Decimal `json:"grossAmount"`
	IssAmount          decimal.Decimal `json:"issAmount"`
	InssAmount         decimal.Decimal `json:"inssAmount"`
	NetAmount          decimal.Decimal `json:"netAmount"`
	AmountReceived     decimal.Decimal `json:"amountReceived"`
	OutstandingAmount  decimal.Decimal `json:"outstandingAmount"`
	Status             string          `json:"status"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// PayableResponse represents a payable in API responses
type PayableResponse struct {
	ID                 uuid.UUID       `json:"id"`
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
	Currency           string          `json:"currency"`
	GrossAmount        decimal.Decimal `json:"grossAmount"`
	IssAmount          decimal.Decimal `json:"issAmount"`
	InssAmount         decimal.Decimal `json:"inssAmount"`
	NetAmount          decimal.Decimal `json:"netAmount"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	OutstandingAmount  decimal.Decimal `json:"outstandingAmount"`
	Status             string          `json:"status"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// SummaryRow is one row of a list summary
type SummaryRow struct {
	ID                 string          `json:"id"`
	Counterparty       string          `json:"counterparty"`
	Description        string          `json:"description"`
	PaymentMethod      string          `json:"paymentMethod"`
	InvoiceNumber      string          `json:"invoiceNumber,omitempty"`
	ServiceOrderNumber string          `json:"serviceOrderNumber,omitempty"`
	DueDate            string          `json:"dueDate"`
	GrossAmount        decimal.Decimal `json:"grossAmount"`
	SettledAmount      decimal.Decimal `json:"settledAmount"`
	OutstandingAmount  decimal.Decimal `json:"outstandingAmount"`
	Status             string          `json:"status"`
}

// SummaryResponse is the list view-model: filtered rows, their totals, bucket
// counts over the searched rows, and the day everything was derived for.
type SummaryResponse struct {
	Today   string               `json:"today"`
	Month   string               `json:"month,omitempty"`
	Filter  string               `json:"filter"`
	Search  string               `json:"search,omitempty"`
	Rows    []SummaryRow         `json:"rows"`
	Totals  finance.Totals       `json:"totals"`
	Buckets finance.BucketCounts `json:"buckets"`
}

// SummaryQuery selects what a summary covers. A nil Month covers everything.
type SummaryQuery struct {
	Month  *finance.MonthRef
	Filter finance.QuickFilter
	Search string
}

// SettlementRequest records a receipt or payment. A nil Date means today.
// ExpectedVersion, when positive, must match the stored version.
type SettlementRequest struct {
	Amount          decimal.Decimal
	Date            *time.Time
	ExpectedVersion int
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return shared.FormatDate(*t)
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return shared.FormatDate(t)
}

func toReceivableResponse(r *finance.Receivable, today time.Time) *ReceivableResponse {
	return &ReceivableResponse{
		ID:                 r.ID,
		CustomerName:       r.CustomerName(),
		ServiceDescription: r.ServiceDescription(),
		ServiceDate:        dateOrEmpty(r.ServiceDate),
		DueDate:            dateOrEmpty(r.DueDate),
		PaymentDate:        optionalDate(r.PaymentDate),
		PaymentMethod:      r.PaymentMethod.String(),
		InvoiceNumber:      r.InvoiceNumber,
		InvoiceIssueDate:   optionalDate(r.InvoiceIssueDate),
		ServiceOrderNumber: r.ServiceOrderNumber,
		Currency:           string(r.Currency()),
		GrossAmount:        r.GrossAmount.Amount(),
		IssAmount:          r.IssAmount.Amount(),
		InssAmount:         r.InssAmount.Amount(),
		NetAmount:          r.NetAmount().Amount(),
		AmountReceived:     r.AmountReceived().Amount(),
		OutstandingAmount:  r.OutstandingAmount().Amount(),
		Status:             r.Status(today).String(),
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func toPayableResponse(p *finance.Payable, today time.Time) *PayableResponse {
	return &PayableResponse{
		ID:                 p.ID,
		VendorName:         p.VendorName(),
		Description:        p.Description,
		Category:           p.Category,
		Notes:              p.Notes,
		ServiceDate:        dateOrEmpty(p.ServiceDate),
		DueDate:            dateOrEmpty(p.DueDate),
		PaymentDate:        optionalDate(p.PaymentDate),
		PaymentMethod:      p.PaymentMethod.String(),
		InvoiceNumber:      p.InvoiceNumber,
		InvoiceIssueDate:   optionalDate(p.InvoiceIssueDate),
		ServiceOrderNumber: p.ServiceOrderNumber,
		Currency:           string(p.Currency()),
		GrossAmount:        p.GrossAmount.Amount(),
		IssAmount:          p.IssAmount.Amount(),
		InssAmount:         p.InssAmount.Amount(),
		NetAmount:          p.NetAmount().Amount(),
		AmountPaid:         p.AmountPaid().Amount(),
		OutstandingAmount:  p.OutstandingAmount().Amount(),
		Status:             p.Status(today).String(),
		Version:            p.Version,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func buildSummary(views []finance.EntryView, q SummaryQuery, today time.Time) *SummaryResponse {
	filter := q.Filter
	if filter == "" {
		filter = finance.QuickFilterAll
	}
	sum := finance.Summarize(views, filter, q.Search, today)

	rows := make([]SummaryRow, len(sum.Rows))
	for i, v := range sum.Rows {
		rows[i] = SummaryRow{
			ID:                 v.ID,
			Counterparty:       v.Counterparty,
			Description:        v.Description,
			PaymentMethod:      v.PaymentMethod,
			InvoiceNumber:      v.InvoiceNumber,
			ServiceOrderNumber: v.ServiceOrderNumber,
			DueDate:            dateOrEmpty(v.DueDate),
			GrossAmount:        v.GrossAmount,
			SettledAmount:      v.SettledAmount,
			OutstandingAmount:  v.OutstandingAmount,
			Status:             v.Status.String(),
		}
	}

	resp := &SummaryResponse{
		Today:   shared.FormatDate(today),
		Filter:  string(filter),
		Search:  q.Search,
		Rows:    rows,
		Totals:  sum.Totals,
		Buckets: sum.Buckets,
	}
	if q.Month != nil {
		resp.Month = q.Month.String()
	}
	return resp
}

// mergeBatch folds validation failures and repository results back onto input
// indexes. saved[i] is the input index of the i-th item handed to the repository.
func mergeBatch(res finance.BatchResult, saved []int, rejected []finance.BatchFailure) finance.BatchResult {
	out := finance.BatchResult{
		Created:  make([]uuid.UUID, 0, len(res.Created)),
		Failures: append(make([]finance.BatchFailure, 0, len(rejected)+len(res.Failures)), rejected...),
	}
	out.Created = append(out.Created, res.Created...)
	for _, f := range res.Failures {
		if f.Index >= 0 && f.Index < len(saved) {
			f.Index = saved[f.Index]
		}
		out.Failures = append(out.Failures, f)
	}
	sort.SliceStable(out.Failures, func(i, j int) bool {
		return out.Failures[i].Index < out.Failures[j].Index
	})
	return out
}
