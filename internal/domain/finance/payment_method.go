package finance

import (
	"fmt"
	"strings"

	"github.com/joaodebarro/backend/internal/domain/shared"
)

// PaymentMethod is the closed set of settlement instruments
type PaymentMethod string

const (
	PaymentMethodBoleto  PaymentMethod = "Boleto"
	PaymentMethodDebit   PaymentMethod = "Debit"
	PaymentMethodCredit  PaymentMethod = "Credit"
	PaymentMethodDeposit PaymentMethod = "Deposit"
	PaymentMethodPix     PaymentMethod = "Pix"
)

// AllPaymentMethods lists every method in wire order
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodBoleto,
		PaymentMethodDebit,
		PaymentMethodCredit,
		PaymentMethodDeposit,
		PaymentMethodPix,
	}
}

// IsValid checks if the payment method is one of the known values
func (m PaymentMethod) IsValid() bool {
	for _, known := range AllPaymentMethods() {
		if m == known {
			return true
		}
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// ParsePaymentMethod parses a method name case-insensitively. Unknown values are
// rejected rather than defaulted.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	trimmed := strings.TrimSpace(s)
	for _, known := range AllPaymentMethods() {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", shared.NewDomainError(CodeInvalidPaymentMethod, fmt.Sprintf("payment method is invalid: %q", s))
}
