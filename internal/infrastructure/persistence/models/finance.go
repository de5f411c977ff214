package models

import (
	"fmt"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EntryColumns are the columns receivables and payables have in common.
// Amounts are stored in the entry currency with two decimal places.
type EntryColumns struct {
	ServiceDate        time.Time       `gorm:"type:date;not null"`
	DueDate            time.Time       `gorm:"type:date;not null;index"`
	PaymentDate        *time.Time      `gorm:"type:date"`
	PaymentMethod      string          `gorm:"type:varchar(20);not null"`
	InvoiceNumber      string          `gorm:"type:varchar(50)"`
	InvoiceIssueDate   *time.Time      `gorm:"type:date"`
	ServiceOrderNumber string          `gorm:"type:varchar(50)"`
	Currency           string          `gorm:"type:varchar(3);not null;default:'BRL'"`
	GrossAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IssAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	InssAmount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func (c *EntryColumns) fromDomain(e *finance.Entry) {
	c.ServiceDate = e.ServiceDate
	c.DueDate = e.DueDate
	c.PaymentDate = e.PaymentDate
	c.PaymentMethod = e.PaymentMethod.String()
	c.InvoiceNumber = e.InvoiceNumber
	c.InvoiceIssueDate = e.InvoiceIssueDate
	c.ServiceOrderNumber = e.ServiceOrderNumber
	c.Currency = string(e.Currency())
	c.GrossAmount = e.GrossAmount.Amount()
	c.IssAmount = e.IssAmount.Amount()
	c.InssAmount = e.InssAmount.Amount()
}

// toDomain rebuilds the entry. Stored rows are trusted, but amounts that no longer
// form valid Money (negative, unknown currency) are reported rather than panicking.
func (c *EntryColumns) toDomain(root shared.BaseAggregateRoot, counterparty, description string, settled decimal.Decimal) (finance.Entry, error) {
	cur := valueobject.NormalizeCurrency(c.Currency)
	amounts := []decimal.Decimal{c.GrossAmount, c.IssAmount, c.InssAmount, settled}
	money := make([]valueobject.Money, len(amounts))
	for i, a := range amounts {
		m, err := valueobject.NewMoney(a, cur)
		if err != nil {
			return finance.Entry{}, fmt.Errorf("entry %s: %w", root.ID, err)
		}
		money[i] = m
	}
	return finance.Entry{
		BaseAggregateRoot:  root,
		Counterparty:       counterparty,
		Description:        description,
		ServiceDate:        shared.DateOnly(c.ServiceDate),
		DueDate:            shared.DateOnly(c.DueDate),
		PaymentDate:        datePtr(c.PaymentDate),
		PaymentMethod:      finance.PaymentMethod(c.PaymentMethod),
		InvoiceNumber:      c.InvoiceNumber,
		InvoiceIssueDate:   datePtr(c.InvoiceIssueDate),
		ServiceOrderNumber: c.ServiceOrderNumber,
		GrossAmount:        money[0],
		IssAmount:          money[1],
		InssAmount:         money[2],
		SettledAmount:      money[3],
	}, nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := shared.DateOnly(*t)
	return &d
}

// ReceivableModel is the persistence model for the Receivable aggregate root.
type ReceivableModel struct {
	AggregateModel
	CustomerName       string `gorm:"type:varchar(150);not null;index"`
	ServiceDescription string `gorm:"type:varchar(255);not null"`
	EntryColumns
	AmountReceived decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ToDomain converts the persistence model to a domain Receivable.
func (m *ReceivableModel) ToDomain() (*finance.Receivable, error) {
	e, err := m.EntryColumns.toDomain(m.ToDomainAggregateRoot(), m.CustomerName, m.ServiceDescription, m.AmountReceived)
	if err != nil {
		return nil, err
	}
	return finance.ReconstituteReceivable(e), nil
}

// FromDomain populates the persistence model from a domain Receivable.
func (m *ReceivableModel) FromDomain(r *finance.Receivable) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.CustomerName = r.Counterparty
	m.ServiceDescription = r.Description
	m.EntryColumns.fromDomain(&r.Entry)
	m.AmountReceived = r.SettledAmount.Amount()
}

// ReceivableModelFromDomain creates a persistence model from a domain Receivable.
func ReceivableModelFromDomain(r *finance.Receivable) *ReceivableModel {
	m := &ReceivableModel{}
	m.FromDomain(r)
	return m
}

// PayableModel is the persistence model for the Payable aggregate root.
type PayableModel struct {
	AggregateModel
	VendorName  string `gorm:"type:varchar(150);not null;index"`
	Description string `gorm:"type:varchar(255);not null"`
	Category    string `gorm:"type:varchar(100)"`
	Notes       string `gorm:"type:varchar(500)"`
	EntryColumns
	AmountPaid decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (PayableModel) TableName() string {
	return "payables"
}

// ToDomain converts the persistence model to a domain Payable.
func (m *PayableModel) ToDomain() (*finance.Payable, error) {
	e, err := m.EntryColumns.toDomain(m.ToDomainAggregateRoot(), m.VendorName, m.Description, m.AmountPaid)
	if err != nil {
		return nil, err
	}
	return finance.ReconstitutePayable(e, m.Category, m.Notes), nil
}

// FromDomain populates the persistence model from a domain Payable.
func (m *PayableModel) FromDomain(p *finance.Payable) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.VendorName = p.Counterparty
	m.Description = p.Description
	m.Category = p.Category
	m.Notes = p.Notes
	m.EntryColumns.fromDomain(&p.Entry)
	m.AmountPaid = p.SettledAmount.Amount()
}

// PayableModelFromDomain creates a persistence model from a domain Payable.
func PayableModelFromDomain(p *finance.Payable) *PayableModel {
	m := &PayableModel{}
	m.FromDomain(p)
	return m
}
