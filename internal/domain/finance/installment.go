package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// IssMode tells whether ISS is typed by hand or computed from a rate
type IssMode string

const (
	IssModeManual IssMode = "manual"
	IssModeAuto   IssMode = "auto"
)

// DefaultIssRate is the ISS percentage used when none is configured.
var DefaultIssRate = decimal.NewFromInt(5)

var (
	minIssRate = decimal.Zero
	maxIssRate = decimal.NewFromInt(100)
)

// IsValid checks if the mode is a known value
func (m IssMode) IsValid() bool {
	return m == IssModeManual || m == IssModeAuto
}

// ParseIssMode parses a mode case-insensitively
func ParseIssMode(s string) (IssMode, error) {
	m := IssMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown ISS mode: %q", s))
	}
	return m, nil
}

// ClampIssRate bounds a percentage to [0, 100].
func ClampIssRate(rate decimal.Decimal) decimal.Decimal {
	if rate.LessThan(minIssRate) {
		return minIssRate
	}
	if rate.GreaterThan(maxIssRate) {
		return maxIssRate
	}
	return rate
}

// CalculateIss computes gross * rate / 100 rounded to cents, with the rate clamped to [0, 100].
func CalculateIss(gross valueobject.Money, rate decimal.Decimal) (valueobject.Money, error) {
	r := ClampIssRate(rate)
	return valueobject.NewMoney(gross.Amount().Mul(r).Div(maxIssRate), gross.Currency())
}

// InstallmentPlanRequest is the input of an installment preview. Iss and Inss are
// the one-time withholdings for the whole invoice.
type InstallmentPlanRequest struct {
	Gross    valueobject.Money
	Iss      valueobject.Money
	Inss     valueobject.Money
	Schedule ScheduleRequest
}

// InstallmentPreviewRow is one projected installment. It is never persisted.
type InstallmentPreviewRow struct {
	InstallmentNumber int
	DueDate           time.Time
	GrossAmount       valueobject.Money
	IssAmount         valueobject.Money
	InssAmount        valueobject.Money
	NetAmount         valueobject.Money
	Adjusted          bool
}

// BuildInstallmentPreview splits the gross amount across the scheduled due dates and
// places both withholdings on the first installment.
func BuildInstallmentPreview(req InstallmentPlanRequest, today time.Time) ([]InstallmentPreviewRow, error) {
	cur := req.Gross.Currency()
	if cur == "" {
		return nil, invalidSchedule("gross amount is required")
	}
	iss, inss := req.Iss, req.Inss
	if iss.Currency() == "" {
		iss = valueobject.MustZero(cur)
	}
	if inss.Currency() == "" {
		inss = valueobject.MustZero(cur)
	}
	taxes, err := iss.Add(inss)
	if err != nil {
		return nil, err
	}
	if !taxes.SameCurrency(req.Gross) {
		return nil, shared.NewDomainError(valueobject.CodeCurrencyMismatch, "withholdings must share the gross amount currency")
	}
	if taxes.Amount().GreaterThan(req.Gross.Amount()) {
		return nil, invariantViolation("ISS plus INSS amounts cannot exceed gross amount.")
	}

	dates, err := ScheduleInstallments(req.Schedule, today)
	if err != nil {
		return nil, err
	}
	split, err := SplitAmount(req.Gross, len(dates))
	if err != nil {
		return nil, err
	}
	split, err = AllocateTaxes(split, taxes)
	if err != nil {
		return nil, err
	}

	zero := valueobject.MustZero(cur)
	rows := make([]InstallmentPreviewRow, len(dates))
	for i, d := range dates {
		rowIss, rowInss := zero, zero
		if i == 0 {
			rowIss, rowInss = iss, inss
		}
		net, err := split[i].SubtractFloor(rowIss)
		if err != nil {
			return nil, err
		}
		net, err = net.SubtractFloor(rowInss)
		if err != nil {
			return nil, err
		}
		rows[i] = InstallmentPreviewRow{
			InstallmentNumber: d.Installment,
			DueDate:           d.DueDate,
			GrossAmount:       split[i],
			IssAmount:         rowIss,
			InssAmount:        rowInss,
			NetAmount:         net,
			Adjusted:          d.Adjusted,
		}
	}
	return rows, nil
}
