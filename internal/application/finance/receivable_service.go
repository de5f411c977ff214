package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const receivableSpan = "ReceivableService"

// ReceivableService provides application-level receivable operations
type ReceivableService struct {
	repo finance.ReceivableRepository
	serviceDeps
}

// NewReceivableService creates a new ReceivableService
func NewReceivableService(repo finance.ReceivableRepository, opts ...ServiceOption) *ReceivableService {
	return &ReceivableService{
		repo:        repo,
		serviceDeps: newServiceDeps(opts),
	}
}

// Get returns one receivable
func (s *ReceivableService) Get(ctx context.Context, id uuid.UUID) (*ReceivableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receivableSpan, "Get", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toReceivableResponse(r, s.today()), nil
}

// List returns receivables ordered by due date then customer name, optionally
// restricted to the month their due date falls in
func (s *ReceivableService) List(ctx context.Context, month *finance.MonthRef) ([]ReceivableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receivableSpan, "List", telemetry.SpanAttrMonth, monthAttr(month))
	defer span.End()

	items, err := s.repo.List(ctx, finance.EntryFilter{Month: month})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	today := s.today()
	out := make([]ReceivableResponse, len(items))
	for i := range items {
		out[i] = *toReceivableResponse(&items[i], today)
	}
	return out, nil
}

// Summary builds the list view-model for the quick filter and search term
func (s *ReceivableService) Summary(ctx context.Context, q SummaryQuery) (*SummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receivableSpan, "Summary",
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

func (s *ReceivableService) views(ctx context.Context, month *finance.MonthRef) ([]finance.EntryView, error) {
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

// Create validates the input and stores a new receivable
func (s *ReceivableService) Create(ctx context.Context, in finance.EntryInput) (*ReceivableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receivableSpan, "Create")
	defer span.End()

	r, err := s.build(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrEntryID, r.ID.String())
	s.metrics.RecordEntryCreated(ctx, string(finance.KindReceivable), r.PaymentMethod.String())
	s.log(ctx).Info("receivable created",
		zap.String("receivable_id", r.ID.String()),
		zap.String("gross_amount", r.GrossAmount.StringFixed()),
	)
	return toReceivableResponse(r, s.today()), nil
}

func (s *ReceivableService) build(ctx context.Context, in finance.EntryInput) (*finance.Receivable, error) {
	in.Kind = finance.KindReceivable
	r, err := s.withCurrency(in, "").BuildReceivable(s.now())
	if err != nil {
		return nil, s.buildFailure(ctx, finance.KindReceivable, err)
	}
	return r, nil
}

// CreateBatch creates every item independently. Items failing validation never
// reach the store; failures of either kind are reported by input index and never
// undo the items that were created.
func (s *ReceivableService) CreateBatch(ctx context.Context, inputs []finance.EntryInput) finance.BatchResult {
	ctx, span := telemetry.StartServiceSpan(ctx, receivableSpan, "CreateBatch", telemetry.SpanAttrBatchSize, len(inputs))
	defer span.End()

	var (
		valid    []*finance.Receivable
		saved    []int
		rejected []finance.BatchFailure
	)
	for i, in := range inputs {
		r, err := s.build(ctx, in)
		if err != nil {
			rejected = append(rejected, finance.BatchFailure{Index: i, Code: failureCode(err), Message: err.Error()})
			continue
		}
		valid = append(valid, r)
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
	for _, r := range valid {
		if created[r.ID] {
			s.metrics.RecordEntryCreated(ctx, string(finance.KindReceivable), r.PaymentMethod.String())
		}
	}
	s.logBatchFailures(ctx, result)
	return result
}

func (s *ReceivableService) logBatchFailures(ctx context.Context, result finance.BatchResult) {
	for _, f := range result.Failures {
		s.metrics.RecordBatchFailure(ctx, string(finance.KindReceivable), f.Code)
		s.log(ctx).Warn("receivable batch item rejected",
			zap.Int("index", f.Index),
			zap.String("code", f.Code),
			zap.String("message", f.Message),
		)
	}
}

// Update fully replaces a receivable's attributes. expectedVersion, when positive,
// must match the stored version; the store then re-checks it atomically.
func (s *ReceivableService) Update(ctx context.Context, id uuid.UUID, expectedVersion int, in finance.EntryInput) (*ReceivableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receivableSpan, "Update", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := checkVersion(expectedVersion, r.Version); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	in.Kind = finance.KindReceivable
	if err := s.withCurrency(in, r.Currency()).ApplyToReceivable(r); err != nil {
		err = s.buildFailure(ctx, finance.KindReceivable, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	r.Touch(s.now())
	if err := s.repo.Update(ctx, r); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toReceivableResponse(r, s.today()), nil
}

// RegisterReceipt adds a received amount to a receivable
func (s *ReceivableService) RegisterReceipt(ctx context.Context, id uuid.UUID, req SettlementRequest) (*ReceivableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, receivableSpan, "RegisterReceipt",
		telemetry.SpanAttrEntryID, id.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)
	defer span.End()

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := checkVersion(req.ExpectedVersion, r.Version); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	amount, err := valueobject.NewMoney(req.Amount, r.Currency())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := r.RegisterReceipt(amount, s.settlementDate(req.Date)); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	r.Touch(s.now())
	if err := s.repo.Update(ctx, r); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordSettlement(ctx, string(finance.KindReceivable))
	s.log(ctx).Info("receipt registered",
		zap.String("receivable_id", r.ID.String()),
		zap.String("amount", amount.StringFixed()),
		zap.String("outstanding", r.OutstandingAmount().StringFixed()),
	)
	return toReceivableResponse(r, s.today()), nil
}

func monthAttr(m *finance.MonthRef) string {
	if m == nil {
		return "all"
	}
	return m.String()
}
