package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const payableSpan = "PayableService"

// PayableService provides application-level payable operations
type PayableService struct {
	repo finance.PayableRepository
	serviceDeps
}

// NewPayableService creates a new PayableService
func NewPayableService(repo finance.PayableRepository, opts ...ServiceOption) *PayableService {
	return &PayableService{
		repo:        repo,
		serviceDeps: newServiceDeps(opts),
	}
}

// Get returns one payable
func (s *PayableService) Get(ctx context.Context, id uuid.UUID) (*PayableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, payableSpan, "Get", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toPayableResponse(p, s.today()), nil
}

// List returns payables ordered by due date then vendor name, optionally
// restricted to the month their due date falls in
func (s *PayableService) List(ctx context.Context, month *finance.MonthRef) ([]PayableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, payableSpan, "List", telemetry.SpanAttrMonth, monthAttr(month))
	defer span.End()

	items, err := s.repo.List(ctx, finance.EntryFilter{Month: month})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	today := s.today()
	out := make([]PayableResponse, len(items))
	for i := range items {
		out[i] = *toPayableResponse(&items[i], today)
	}
	return out, nil
}

// Summary builds the list view-model for the quick filter and search term
func (s *PayableService) Summary(ctx context.Context, q SummaryQuery) (*SummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, payableSpan, "Summary",
		telemetry.SpanAttrMonth, monthAttr(q.Month),
		telemetry.SpanAttrQuickFilter, string(q.Filter),
	)
	defer span.End()

	views, err := s.views(ctx, q.Month)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return buildSummary(views, q, s.today()), nil
}

func (s *PayableService) views(ctx context.Context, month *finance.MonthRef) ([]finance.EntryView, error) {
	items, err := s.repo.List(ctx, finance.EntryFilter{Month: month})
	if err != nil {
		return nil, err
	}
	today := s.today()
	views := make([]finance.EntryView, len(items))
	for i := range items {
		views[i] = finance.ViewOf(&items[i].Entry, today)
	}
	return views, nil
}

// Create validates the input and stores a new payable
func (s *PayableService) Create(ctx context.Context, in finance.EntryInput) (*PayableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, payableSpan, "Create")
	defer span.End()

	p, err := s.build(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrEntryID, p.ID.String())
	s.metrics.RecordEntryCreated(ctx, string(finance.KindPayable), p.PaymentMethod.String())
	s.log(ctx).Info("payable created",
		zap.String("payable_id", p.ID.String()),
		zap.String("gross_amount", p.GrossAmount.StringFixed()),
	)
	return toPayableResponse(p, s.today()), nil
}

func (s *PayableService) build(ctx context.Context, in finance.EntryInput) (*finance.Payable, error) {
	in.Kind = finance.KindPayable
	p, err := s.withCurrency(in, "").BuildPayable(s.now())
	if err != nil {
		return nil, s.buildFailure(ctx, finance.KindPayable, err)
	}
	return p, nil
}

// CreateBatch creates every item independently. Items failing validation never
// reach the store; failures of either kind are reported by input index and never
// undo the items that were created.
func (s *PayableService) CreateBatch(ctx context.Context, inputs []finance.EntryInput) finance.BatchResult {
	ctx, span := telemetry.StartServiceSpan(ctx, payableSpan, "CreateBatch", telemetry.SpanAttrBatchSize, len(inputs))
	defer span.End()

	var (
		valid    []*finance.Payable
		saved    []int
		rejected []finance.BatchFailure
	)
	for i, in := range inputs {
		p, err := s.build(ctx, in)
		if err != nil {
			rejected = append(rejected, finance.BatchFailure{Index: i, Code: failureCode(err), Message: err.Error()})
			continue
		}
		valid = append(valid, p)
		saved = append(saved, i)
	}

	var stored finance.BatchResult
	if len(valid) > 0 {
		stored = s.repo.SaveBatch(ctx, valid)
	}
	result := mergeBatch(stored, saved, rejected)

	created := make(map[uuid.UUID]bool, len(result.Created))
	for _, id := range result.Created {
		created[id] = true
	}
	for _, p := range valid {
		if created[p.ID] {
			s.metrics.RecordEntryCreated(ctx, string(finance.KindPayable), p.PaymentMethod.String())
		}
	}
	s.logBatchFailures(ctx, result)
	return result
}

func (s *PayableService) logBatchFailures(ctx context.Context, result finance.BatchResult) {
	for _, f := range result.Failures {
		s.metrics.RecordBatchFailure(ctx, string(finance.KindPayable), f.Code)
		s.log(ctx).Warn("payable batch item rejected",
			zap.Int("index", f.Index),
			zap.String("code", f.Code),
			zap.String("message", f.Message),
		)
	}
}

// Update fully replaces a payable's attributes. expectedVersion, when positive,
// must match the stored version; the store then re-checks it atomically.
func (s *PayableService) Update(ctx context.Context, id uuid.UUID, expectedVersion int, in finance.EntryInput) (*PayableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, payableSpan, "Update", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := checkVersion(expectedVersion, p.Version); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	in.Kind = finance.KindPayable
	if err := s.withCurrency(in, p.Currency()).ApplyToPayable(p); err != nil {
		err = s.buildFailure(ctx, finance.KindPayable, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	p.Touch(s.now())
	if err := s.repo.Update(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toPayableResponse(p, s.today()), nil
}

// RegisterPayment adds a paid amount to a payable
func (s *PayableService) RegisterPayment(ctx context.Context, id uuid.UUID, req SettlementRequest) (*PayableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, payableSpan, "RegisterPayment",
		telemetry.SpanAttrEntryID, id.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)
	defer span.End()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := checkVersion(req.ExpectedVersion, p.Version); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	amount, err := valueobject.NewMoney(req.Amount, p.Currency())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := p.RegisterPayment(amount, s.settlementDate(req.Date)); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	p.Touch(s.now())
	if err := s.repo.Update(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordSettlement(ctx, string(finance.KindPayable))
	s.log(ctx).Info("payment registered",
		zap.String("payable_id", p.ID.String()),
		zap.String("amount", amount.StringFixed()),
		zap.String("outstanding", p.OutstandingAmount().StringFixed()),
	)
	return toPayableResponse(p, s.today()), nil
}
