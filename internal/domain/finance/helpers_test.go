package finance

import (
	"testing"
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testToday = shared.Date(2026, time.March, 10)

func brl(amount string) valueobject.Money {
	return valueobject.MustMoney(decimal.RequireFromString(amount), valueobject.BRL)
}

func day(y int, m time.Month, d int) time.Time {
	return shared.Date(y, m, d)
}

func validReceivableParams() ReceivableParams {
	return ReceivableParams{
		CustomerName:       "Construtora Horizonte",
		ServiceDescription: "Electrical maintenance",
		ServiceDate:        day(2026, time.March, 1),
		DueDate:            day(2026, time.March, 20),
		PaymentMethod:      PaymentMethodPix,
		GrossAmount:        brl("1000"),
	}
}

func newTestReceivable(t *testing.T) *Receivable {
	t.Helper()
	r, err := NewReceivable(validReceivableParams(), testToday)
	require.NoError(t, err)
	return r
}
