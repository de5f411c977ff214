package finance

import (
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
)

// MaxInstallments bounds every installment computation.
const MaxInstallments = 120

// SplitAmount divides total into parts amounts that sum to total cent for cent.
// The split works on integer cents: every part gets total/parts cents and the
// remainder cents go one each to the earliest parts.
func SplitAmount(total valueobject.Money, parts int) ([]valueobject.Money, error) {
	if parts < 1 || parts > MaxInstallments {
		return nil, invalidSchedule("parts must be between 1 and %d, got %d", MaxInstallments, parts)
	}

	cents := total.Cents()
	base := cents / int64(parts)
	remainder := cents % int64(parts)

	result := make([]valueobject.Money, parts)
	for i := range parts {
		c := base
		if int64(i) < remainder {
			c++
		}
		m, err := valueobject.NewMoneyFromCents(c, total.Currency())
		if err != nil {
			return nil, err
		}
		result[i] = m
	}
	return result, nil
}

// AllocateTaxes makes the first installment large enough to absorb one-time
// withholdings, since they are retained on the first document issued.
//
// The deficit between taxes and the first part is pulled from the later parts,
// last one first, never taking any below zero. If the later parts cannot cover it,
// whatever was moved is all the first part gets. The total is preserved in every
// case; only the "first >= taxes" floor is best-effort.
func AllocateTaxes(split []valueobject.Money, taxes valueobject.Money) ([]valueobject.Money, error) {
	if len(split) == 0 {
		return nil, invalidSchedule("cannot allocate taxes over an empty split")
	}
	cur := split[0].Currency()
	if taxes.Currency() != cur {
		return nil, shared.NewDomainError(valueobject.CodeCurrencyMismatch,
			"taxes currency "+string(taxes.Currency())+" does not match installment currency "+string(cur))
	}

	cents := make([]int64, len(split))
	for i, m := range split {
		if m.Currency() != cur {
			return nil, shared.NewDomainError(valueobject.CodeCurrencyMismatch, "installments must share one currency")
		}
		cents[i] = m.Cents()
	}

	if deficit := taxes.Cents() - cents[0]; deficit > 0 {
		remaining := deficit
		for i := len(cents) - 1; i >= 1 && remaining > 0; i-- {
			take := min(cents[i], remaining)
			cents[i] -= take
			remaining -= take
		}
		cents[0] += deficit
		if remaining > 0 {
			// later installments exhausted: give back what could not be covered
			cents[0] = max(cents[0]-remaining, 0)
		}
	}

	result := make([]valueobject.Money, len(cents))
	for i, c := range cents {
		m, err := valueobject.NewMoneyFromCents(c, cur)
		if err != nil {
			return nil, err
		}
		result[i] = m
	}
	return result, nil
}
