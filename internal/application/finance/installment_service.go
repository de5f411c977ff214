package finance

import (
	"context"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// InstallmentPreviewRequest describes an invoice to split. With IssMode auto the
// ISS amount is computed from IssRate (the configured default when nil) and
// IssAmount is ignored.
type InstallmentPreviewRequest struct {
	GrossAmount decimal.Decimal
	Currency    string
	IssMode     finance.IssMode
	IssRate     *decimal.Decimal
	IssAmount   decimal.Decimal
	InssAmount  decimal.Decimal
	BaseDate    time.Time
	Count       int
	Rule        finance.ScheduleRule
	FixedDay    int
}

// InstallmentRow is one projected installment
type InstallmentRow struct {
	InstallmentNumber int             `json:"installmentNumber"`
	DueDate           string          `json:"dueDate"`
	GrossAmount       decimal.Decimal `json:"grossAmount"`
	IssAmount         decimal.Decimal `json:"issAmount"`
	InssAmount        decimal.Decimal `json:"inssAmount"`
	NetAmount         decimal.Decimal `json:"netAmount"`
	Adjusted          bool            `json:"adjusted"`
}

// InstallmentPreviewResponse lists the projected installments and the withholdings
// that were applied to the first one
type InstallmentPreviewResponse struct {
	Currency   string           `json:"currency"`
	IssMode    string           `json:"issMode"`
	IssRate    *decimal.Decimal `json:"issRate,omitempty"`
	IssAmount  decimal.Decimal  `json:"issAmount"`
	InssAmount decimal.Decimal  `json:"inssAmount"`
	Rows       []InstallmentRow `json:"rows"`
}

// InstallmentService previews installment plans. Nothing is persisted.
type InstallmentService struct {
	serviceDeps
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(opts ...ServiceOption) *InstallmentService {
	return &InstallmentService{serviceDeps: newServiceDeps(opts)}
}

// Preview splits the gross amount over the scheduled due dates
func (s *InstallmentService) Preview(ctx context.Context, req InstallmentPreviewRequest) (*InstallmentPreviewResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "InstallmentService", "Preview",
		telemetry.SpanAttrAmount, req.GrossAmount.String(),
		telemetry.SpanAttrBatchSize, req.Count,
	)
	defer span.End()

	resp, err := s.preview(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *InstallmentService) preview(req InstallmentPreviewRequest) (*InstallmentPreviewResponse, error) {
	currency := valueobject.NormalizeCurrency(req.Currency)
	if currency == "" {
		currency = s.currency
	}
	mode := req.IssMode
	if mode == "" {
		mode = finance.IssModeManual
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "issMode must be auto or manual")
	}

	gross, err := valueobject.NewMoney(req.GrossAmount, currency)
	if err != nil {
		return nil, err
	}
	inss, err := valueobject.NewMoney(req.InssAmount, currency)
	if err != nil {
		return nil, err
	}

	var (
		iss  valueobject.Money
		rate *decimal.Decimal
	)
	if mode == finance.IssModeAuto {
		r := s.issRate
		if req.IssRate != nil {
			r = finance.ClampIssRate(*req.IssRate)
		}
		rate = &r
		iss, err = finance.CalculateIss(gross, r)
	} else {
		iss, err = valueobject.NewMoney(req.IssAmount, currency)
	}
	if err != nil {
		return nil, err
	}

	rows, err := finance.BuildInstallmentPreview(finance.InstallmentPlanRequest{
		Gross: gross,
		Iss:   iss,
		Inss:  inss,
		Schedule: finance.ScheduleRequest{
			BaseDate: req.BaseDate,
			Count:    req.Count,
			Rule:     req.Rule,
			FixedDay: req.FixedDay,
		},
	}, s.today())
	if err != nil {
		return nil, err
	}

	out := make([]InstallmentRow, len(rows))
	for i, r := range rows {
		out[i] = InstallmentRow{
			InstallmentNumber: r.InstallmentNumber,
			DueDate:           shared.FormatDate(r.DueDate),
			GrossAmount:       r.GrossAmount.Amount(),
			IssAmount:         r.IssAmount.Amount(),
			InssAmount:        r.InssAmount.Amount(),
			NetAmount:         r.NetAmount.Amount(),
			Adjusted:          r.Adjusted,
		}
	}
	return &InstallmentPreviewResponse{
		Currency:   string(currency),
		IssMode:    string(mode),
		IssRate:    rate,
		IssAmount:  iss.Amount(),
		InssAmount: inss.Amount(),
		Rows:       out,
	}, nil
}
