package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinanceModels_TableName(t *testing.T) {
	assert.Equal(t, "receivables", ReceivableModel{}.TableName())
	assert.Equal(t, "payables", PayableModel{}.TableName())
}

func TestReceivableModel_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	issued := shared.Date(2026, 3, 2)
	r, err := finance.NewReceivable(finance.ReceivableParams{
		CustomerName:       "Construtora Horizonte",
		ServiceDescription: "Electrical maintenance",
		ServiceDate:        shared.Date(2026, 3, 1),
		DueDate:            shared.Date(2026, 3, 20),
		PaymentMethod:      finance.PaymentMethodPix,
		GrossAmount:        valueobject.MustMoney(decimal.NewFromInt(1000), valueobject.BRL),
		IssAmount:          valueobject.MustMoney(decimal.NewFromInt(50), valueobject.BRL),
	}, now)
	require.NoError(t, err)
	require.NoError(t, r.AttachInvoice("NF-1042", issued))

	model := ReceivableModelFromDomain(r)
	assert.Equal(t, r.ID, model.ID)
	assert.Equal(t, 1, model.Version)
	assert.Equal(t, "Pix", model.PaymentMethod)
	assert.Equal(t, "BRL", model.Currency)
	assert.True(t, model.AmountReceived.IsZero())

	back, err := model.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, r.ID, back.ID)
	assert.Equal(t, "Construtora Horizonte", back.CustomerName())
	assert.Equal(t, "NF-1042", back.InvoiceNumber)
	require.NotNil(t, back.InvoiceIssueDate)
	assert.True(t, back.InvoiceIssueDate.Equal(issued))
	assert.True(t, back.NetAmount().Amount().Equal(decimal.NewFromInt(950)))
}

func TestPayableModel_ToDomain(t *testing.T) {
	paid := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	model := &PayableModel{
		AggregateModel: AggregateModel{ID: uuid.New(), CreatedAt: paid, UpdatedAt: paid, Version: 3},
		VendorName:     "Copel Distribuicao",
		Description:    "Electricity bill",
		Category:       "Utilities",
		EntryColumns: EntryColumns{
			ServiceDate:   shared.Date(2026, 2, 28),
			DueDate:       shared.Date(2026, 3, 8),
			PaymentDate:   &paid,
			PaymentMethod: "Boleto",
			Currency:      "brl",
			GrossAmount:   decimal.RequireFromString("412.37"),
		},
		AmountPaid: decimal.RequireFromString("100"),
	}

	p, err := model.ToDomain()

	require.NoError(t, err)
	assert.Equal(t, 3, p.Version)
	assert.Equal(t, "Utilities", p.Category)
	assert.Equal(t, valueobject.BRL, p.Currency())
	require.NotNil(t, p.PaymentDate)
	assert.True(t, p.PaymentDate.Equal(shared.Date(2026, 3, 5)))
	assert.Equal(t, "312.37", p.OutstandingAmount().StringFixed())
}

func TestPayableModel_ToDomain_RejectsCorruptAmounts(t *testing.T) {
	model := &PayableModel{
		EntryColumns: EntryColumns{Currency: "BRL", GrossAmount: decimal.NewFromInt(-1)},
	}

	_, err := model.ToDomain()

	assert.Error(t, err)
}
