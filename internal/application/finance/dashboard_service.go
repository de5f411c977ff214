package finance

import (
	"context"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardSide is the roll-up of one ledger side
type DashboardSide struct {
	Totals  finance.Totals       `json:"totals"`
	Buckets finance.BucketCounts `json:"buckets"`
}

// DashboardResponse compares what is owed to the business with what it owes.
// Balance is receivable outstanding minus payable outstanding.
type DashboardResponse struct {
	Today       string          `json:"today"`
	Month       string          `json:"month,omitempty"`
	Receivables DashboardSide   `json:"receivables"`
	Payables    DashboardSide   `json:"payables"`
	Balance     decimal.Decimal `json:"balance"`
}

// DashboardService aggregates receivables and payables side by side
type DashboardService struct {
	receivables finance.ReceivableRepository
	payables    finance.PayableRepository
	serviceDeps
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(receivables finance.ReceivableRepository, payables finance.PayableRepository, opts ...ServiceOption) *DashboardService {
	return &DashboardService{
		receivables: receivables,
		payables:    payables,
		serviceDeps: newServiceDeps(opts),
	}
}

// Get loads both sides concurrently. Either load failing fails the dashboard.
func (s *DashboardService) Get(ctx context.Context, month *finance.MonthRef) (*DashboardResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DashboardService", "Get", telemetry.SpanAttrMonth, monthAttr(month))
	defer span.End()

	today := s.today()
	filter := finance.EntryFilter{Month: month}
	var receivableViews, payableViews []finance.EntryView

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.receivables.List(gctx, filter)
		if err != nil {
			return err
		}
		receivableViews = make([]finance.EntryView, len(items))
		for i := range items {
			receivableViews[i] = finance.ViewOf(&items[i].Entry, today)
		}
		return nil
	})
	g.Go(func() error {
		items, err := s.payables.List(gctx, filter)
		if err != nil {
			return err
		}
		payableViews = make([]finance.EntryView, len(items))
		for i := range items {
			payableViews[i] = finance.ViewOf(&items[i].Entry, today)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := &DashboardResponse{
		Today:       shared.FormatDate(today),
		Receivables: side(receivableViews, today),
		Payables:    side(payableViews, today),
	}
	resp.Balance = resp.Receivables.Totals.OutstandingAmount.Sub(resp.Payables.Totals.OutstandingAmount)
	if month != nil {
		resp.Month = month.String()
	}
	return resp, nil
}

func side(views []finance.EntryView, today time.Time) DashboardSide {
	return DashboardSide{
		Totals:  finance.ComputeTotals(views),
		Buckets: finance.CountBuckets(views, today),
	}
}
