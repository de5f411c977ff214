package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	BRL Currency = "BRL" // Brazilian Real (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = BRL

// Scale is the number of decimal places every Money amount is kept at.
const Scale int32 = 2

// Money error codes
const (
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeCurrencyMismatch = "CURRENCY_MISMATCH"
	CodeNegativeResult   = "NEGATIVE_RESULT"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCurrency trims and uppercases a currency code.
func NormalizeCurrency(code string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(code)))
}

// Money is a value object representing a non-negative monetary amount.
// It is immutable - all operations return new Money instances.
// Amounts are always held rounded to two places, half away from zero.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	cur := NormalizeCurrency(string(currency))
	if cur == "" {
		return Money{}, shared.NewDomainError(CodeInvalidAmount, "currency cannot be empty")
	}
	rounded := amount.Round(Scale)
	if rounded.IsNegative() {
		return Money{}, shared.NewDomainError(CodeInvalidAmount,
			fmt.Sprintf("amount cannot be negative: %s", amount.String()))
	}
	return Money{amount: rounded, currency: cur}, nil
}

// MustMoney is NewMoney for values known to be valid; it panics otherwise.
func MustMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, shared.NewDomainError(CodeInvalidAmount, fmt.Sprintf("invalid amount string: %q", amount))
	}
	return NewMoney(d, currency)
}

// NewMoneyFromCents creates Money from an integer number of cents
func NewMoneyFromCents(cents int64, currency Currency) (Money, error) {
	return NewMoney(decimal.New(cents, -Scale), currency)
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

// MustZero is Zero for a currency known to be non-empty.
func MustZero(currency Currency) Money {
	return MustMoney(decimal.Zero, currency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Cents returns the amount as an integer number of cents
func (m Money) Cents() int64 {
	return m.amount.Mul(hundred).IntPart()
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// SameCurrency reports whether both values share a currency
func (m Money) SameCurrency(other Money) bool {
	return m.currency == other.currency
}

func mismatch(op string, a, b Currency) error {
	return shared.NewDomainError(CodeCurrencyMismatch,
		fmt.Sprintf("cannot %s money with different currencies: %s and %s", op, a, b))
}

// Add returns a new Money with the sum of both amounts
// Returns error if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch("add", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount.Add(other.amount).Round(Scale),
		currency: m.currency,
	}, nil
}

// Subtract returns a new Money with the difference.
// Returns error if currencies don't match or if the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch("subtract", m.currency, other.currency)
	}
	if m.amount.LessThan(other.amount) {
		return Money{}, shared.NewDomainError(CodeNegativeResult,
			fmt.Sprintf("cannot subtract %s from %s: result would be negative", other, m))
	}
	return Money{
		amount:   m.amount.Sub(other.amount).Round(Scale),
		currency: m.currency,
	}, nil
}

// SubtractFloor subtracts other and floors the result at zero instead of failing.
func (m Money) SubtractFloor(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch("subtract", m.currency, other.currency)
	}
	if m.amount.LessThanOrEqual(other.amount) {
		return Money{amount: decimal.Zero, currency: m.currency}, nil
	}
	return Money{amount: m.amount.Sub(other.amount).Round(Scale), currency: m.currency}, nil
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, mismatch("compare", m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, mismatch("compare", m.currency, other.currency)
	}
	return m.amount.LessThan(other.amount), nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(Scale), m.currency)
}

// StringFixed returns the amount with two decimal places
func (m Money) StringFixed() string {
	return m.amount.StringFixed(Scale)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(Scale),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It goes through NewMoney so the
// same rounding and non-negativity rules apply to decoded values.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds all values, which must share currency. An empty slice sums to zero in
// the given currency.
func Sum(currency Currency, values ...Money) (Money, error) {
	total, err := Zero(currency)
	if err != nil {
		return Money{}, err
	}
	for _, v := range values {
		total, err = total.Add(v)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
