package finance

import (
	"strings"
	"testing"
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReceivable(t *testing.T) {
	t.Run("creates with defaults", func(t *testing.T) {
		r := newTestReceivable(t)
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", r.ID.String())
		assert.Equal(t, 1, r.Version)
		assert.Equal(t, "1000.00", r.NetAmount().StringFixed())
		assert.Equal(t, "1000.00", r.OutstandingAmount().StringFixed())
		assert.True(t, r.AmountReceived().IsZero())
		assert.Equal(t, StatusOpen, r.Status(testToday))
		assert.Equal(t, valueobject.BRL, r.Currency())
	})

	t.Run("net subtracts both withholdings", func(t *testing.T) {
		p := validReceivableParams()
		p.IssAmount = brl("50")
		p.InssAmount = brl("110")
		r, err := NewReceivable(p, testToday)
		require.NoError(t, err)
		assert.Equal(t, "840.00", r.NetAmount().StringFixed())
	})

	t.Run("trims names", func(t *testing.T) {
		p := validReceivableParams()
		p.CustomerName = "  ACME  "
		r, err := NewReceivable(p, testToday)
		require.NoError(t, err)
		assert.Equal(t, "ACME", r.CustomerName())
	})

	tests := []struct {
		name    string
		mutate  func(p *ReceivableParams)
		message string
	}{
		{"missing customer", func(p *ReceivableParams) { p.CustomerName = " " }, "Customer name is required."},
		{"customer too long", func(p *ReceivableParams) { p.CustomerName = strings.Repeat("a", 151) }, "Customer name cannot exceed 150 characters."},
		{"missing description", func(p *ReceivableParams) { p.ServiceDescription = "" }, "Service description is required."},
		{"missing due date", func(p *ReceivableParams) { p.DueDate = time.Time{} }, "Due date is required."},
		{"iss above gross", func(p *ReceivableParams) { p.IssAmount = brl("1000.01") }, "ISS amount cannot exceed gross amount."},
		{"taxes above gross", func(p *ReceivableParams) {
			p.IssAmount = brl("600")
			p.InssAmount = brl("400.01")
		}, "ISS plus INSS amounts cannot exceed gross amount."},
		{"received above net", func(p *ReceivableParams) {
			p.IssAmount = brl("50")
			p.AmountReceived = brl("950.01")
		}, "Received amount cannot exceed net amount."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validReceivableParams()
			tt.mutate(&p)
			_, err := NewReceivable(p, testToday)
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, CodeDomainInvariantViolation, de.Code)
			assert.Equal(t, tt.message, de.Message)
		})
	}

	t.Run("mixed currencies", func(t *testing.T) {
		p := validReceivableParams()
		p.IssAmount = valueobject.MustZero(valueobject.USD)
		_, err := NewReceivable(p, testToday)
		assert.Equal(t, CodeDomainInvariantViolation, shared.CodeOf(err))
	})

	t.Run("unknown payment method", func(t *testing.T) {
		p := validReceivableParams()
		p.PaymentMethod = "Cheque"
		_, err := NewReceivable(p, testToday)
		assert.Equal(t, CodeDomainInvariantViolation, shared.CodeOf(err))
	})
}

func TestReceivable_RegisterReceipt(t *testing.T) {
	t.Run("partial receipt leaves the rest outstanding", func(t *testing.T) {
		r := newTestReceivable(t)
		require.NoError(t, r.RegisterReceipt(brl("600"), testToday))
		assert.Equal(t, "400.00", r.OutstandingAmount().StringFixed())
		assert.Equal(t, "600.00", r.AmountReceived().StringFixed())
		assert.Equal(t, StatusOpen, r.Status(testToday))
		require.NotNil(t, r.PaymentDate)
		assert.Equal(t, testToday, *r.PaymentDate)
	})

	t.Run("receipts accumulate and settle", func(t *testing.T) {
		r := newTestReceivable(t)
		require.NoError(t, r.RegisterReceipt(brl("600"), testToday))
		require.NoError(t, r.RegisterReceipt(brl("400"), testToday.AddDate(0, 0, 3)))
		assert.True(t, r.OutstandingAmount().IsZero())
		assert.Equal(t, StatusSettled, r.Status(testToday.AddDate(1, 0, 0)))
		assert.Equal(t, testToday, *r.PaymentDate)
	})

	t.Run("rejects more than outstanding", func(t *testing.T) {
		r := newTestReceivable(t)
		err := r.RegisterReceipt(brl("1000.01"), testToday)
		assert.Equal(t, CodeExceedsOutstanding, shared.CodeOf(err))
		assert.True(t, r.AmountReceived().IsZero())
	})

	t.Run("rejects zero", func(t *testing.T) {
		r := newTestReceivable(t)
		err := r.RegisterReceipt(brl("0"), testToday)
		assert.Equal(t, CodeNonPositiveAmount, shared.CodeOf(err))
	})

	t.Run("currency is checked before positivity", func(t *testing.T) {
		r := newTestReceivable(t)
		err := r.RegisterReceipt(valueobject.MustZero(valueobject.USD), testToday)
		assert.Equal(t, valueobject.CodeCurrencyMismatch, shared.CodeOf(err))
	})
}

func TestReceivable_SettledBeatsOverdue(t *testing.T) {
	p := validReceivableParams()
	p.DueDate = testToday.AddDate(0, 0, -30)
	r, err := NewReceivable(p, testToday)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, r.Status(testToday))

	require.NoError(t, r.RegisterReceipt(brl("1000"), testToday))
	assert.Equal(t, StatusSettled, r.Status(testToday))
}

func TestReceivable_Documents(t *testing.T) {
	r := newTestReceivable(t)

	err := r.AttachInvoice("   ", testToday)
	assert.Equal(t, CodeEmptyValue, shared.CodeOf(err))

	require.NoError(t, r.AttachInvoice(" NF-123 ", testToday))
	assert.Equal(t, "NF-123", r.InvoiceNumber)
	require.NotNil(t, r.InvoiceIssueDate)

	err = r.AttachServiceOrder("")
	assert.Equal(t, CodeEmptyValue, shared.CodeOf(err))
	require.NoError(t, r.AttachServiceOrder("OS-7"))
	assert.Equal(t, "OS-7", r.ServiceOrderNumber)

	require.NoError(t, r.SetDocuments(Documents{}))
	assert.Empty(t, r.InvoiceNumber)
	assert.Nil(t, r.InvoiceIssueDate)
	assert.Empty(t, r.ServiceOrderNumber)
}

func TestReceivable_InvoiceNeedsIssueDate(t *testing.T) {
	t.Run("attach with a zero date", func(t *testing.T) {
		r := newTestReceivable(t)
		err := r.AttachInvoice("NF-9", time.Time{})
		assert.Equal(t, CodeDomainInvariantViolation, shared.CodeOf(err))
		assert.Empty(t, r.InvoiceNumber)
		assert.Nil(t, r.InvoiceIssueDate)
	})

	t.Run("documents without a date", func(t *testing.T) {
		r := newTestReceivable(t)
		require.NoError(t, r.AttachServiceOrder("OS-1"))

		err := r.SetDocuments(Documents{InvoiceNumber: "NF-9", ServiceOrderNumber: "OS-2"})
		assert.Equal(t, CodeDomainInvariantViolation, shared.CodeOf(err))
		assert.Empty(t, r.InvoiceNumber)
		assert.Nil(t, r.InvoiceIssueDate)
		assert.Equal(t, "OS-1", r.ServiceOrderNumber)

		zero := time.Time{}
		err = r.SetDocuments(Documents{InvoiceNumber: "NF-9", InvoiceIssueDate: &zero})
		assert.Equal(t, CodeDomainInvariantViolation, shared.CodeOf(err))
	})

	t.Run("documents with a date", func(t *testing.T) {
		r := newTestReceivable(t)
		issued := testToday
		require.NoError(t, r.SetDocuments(Documents{InvoiceNumber: "NF-9", InvoiceIssueDate: &issued}))
		assert.Equal(t, "NF-9", r.InvoiceNumber)
		require.NotNil(t, r.InvoiceIssueDate)
		assert.Equal(t, testToday, *r.InvoiceIssueDate)
	})
}

func TestReceivable_Setters(t *testing.T) {
	r := newTestReceivable(t)
	r.ChangeDueDate(time.Date(2026, time.May, 2, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, day(2026, time.May, 2), r.DueDate)

	r.ChangePaymentMethod(PaymentMethodBoleto)
	assert.Equal(t, PaymentMethodBoleto, r.PaymentMethod)
}

func TestReceivable_Update(t *testing.T) {
	t.Run("replaces attributes and keeps identity", func(t *testing.T) {
		r := newTestReceivable(t)
		id := r.ID
		p := validReceivableParams()
		p.CustomerName = "Other customer"
		p.GrossAmount = brl("2000")
		require.NoError(t, r.Update(p))
		assert.Equal(t, id, r.ID)
		assert.Equal(t, "Other customer", r.CustomerName())
		assert.Equal(t, "2000.00", r.NetAmount().StringFixed())
	})

	t.Run("invalid update leaves the receivable untouched", func(t *testing.T) {
		r := newTestReceivable(t)
		p := validReceivableParams()
		p.CustomerName = ""
		p.GrossAmount = brl("5")
		require.Error(t, r.Update(p))
		assert.Equal(t, "Construtora Horizonte", r.CustomerName())
		assert.Equal(t, "1000.00", r.GrossAmount.StringFixed())
	})
}

func TestNewPayable(t *testing.T) {
	params := PayableParams{
		VendorName:    "Distribuidora Sul",
		Description:   "Cables",
		Category:      " Materials ",
		Notes:         "deliver to site",
		ServiceDate:   day(2026, time.March, 1),
		DueDate:       day(2026, time.March, 5),
		PaymentMethod: PaymentMethodBoleto,
		GrossAmount:   brl("350"),
	}

	t.Run("creates and pays", func(t *testing.T) {
		p, err := NewPayable(params, testToday)
		require.NoError(t, err)
		assert.Equal(t, "Materials", p.Category)
		assert.Equal(t, "Distribuidora Sul", p.VendorName())
		assert.Equal(t, StatusOverdue, p.Status(testToday))

		require.NoError(t, p.RegisterPayment(brl("350"), testToday))
		assert.Equal(t, StatusSettled, p.Status(testToday))
		assert.Equal(t, "350.00", p.AmountPaid().StringFixed())
	})

	t.Run("category too long", func(t *testing.T) {
		bad := params
		bad.Category = strings.Repeat("c", MaxCategoryLength+1)
		_, err := NewPayable(bad, testToday)
		assert.Equal(t, CodeDomainInvariantViolation, shared.CodeOf(err))
	})

	t.Run("vendor label in messages", func(t *testing.T) {
		bad := params
		bad.VendorName = ""
		_, err := NewPayable(bad, testToday)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Vendor name is required.", de.Message)
	})

	t.Run("update rejects long notes", func(t *testing.T) {
		p, err := NewPayable(params, testToday)
		require.NoError(t, err)
		bad := params
		bad.Notes = strings.Repeat("n", MaxNotesLength+1)
		assert.Error(t, p.Update(bad))
		assert.Equal(t, "deliver to site", p.Notes)
	})
}
