package csvimport

import (
	"testing"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "deposito", NormalizeText(" Depósito "))
	assert.Equal(t, "cartao de credito", NormalizeText("Cartão de Crédito"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"R$ 99,90", "99.9"},
		{"99.9", "99.9"},
		{"1000", "1000"},
		{"-15,5", "-15.5"},
		{"1.000.000,00", "1000000"},
		{"", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDecimal(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	for _, bad := range []string{"abc", "1,2,3", "--"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseDecimal(bad)
			assert.Error(t, err)
		})
	}
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2026-03-10", shared.Date(2026, time.March, 10)},
		{"10/03/2026", shared.Date(2026, time.March, 10)},
		{"1/3/26", shared.Date(2026, time.March, 1)},
		{"46091", shared.Date(2026, time.March, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFlexibleDate(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	t.Run("empty is zero", func(t *testing.T) {
		got, err := ParseFlexibleDate(" ")
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	for _, bad := range []string{"2026-02-30", "31/04/2026", "12345", "March 10", "2026/03/10"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseFlexibleDate(bad)
			assert.Error(t, err)
		})
	}
}

func TestMapPaymentMethod(t *testing.T) {
	tests := []struct {
		raw  string
		want finance.PaymentMethod
	}{
		{"PIX", finance.PaymentMethodPix},
		{"Pix instantâneo", finance.PaymentMethodPix},
		{"Depósito bancário", finance.PaymentMethodDeposit},
		{"Transferência", finance.PaymentMethodDeposit},
		{"Cartão de Débito", finance.PaymentMethodDebit},
		{"Cartão de Crédito", finance.PaymentMethodCredit},
		{"credit", finance.PaymentMethodCredit},
		{"Boleto bancário", finance.PaymentMethodBoleto},
		{"dinheiro", finance.PaymentMethodBoleto},
		{"", finance.PaymentMethodBoleto},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MapPaymentMethod(tt.raw))
		})
	}
}
