package handler

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var testToday = shared.Date(2026, time.March, 10)

func testClock() shared.Clock {
	return shared.FixedClock{At: testToday.Add(9 * time.Hour)}
}

// MockReceivableRepository is a mock implementation of finance.ReceivableRepository
type MockReceivableRepository struct {
	mock.Mock
}

func (m *MockReceivableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Receivable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) List(ctx context.Context, filter finance.EntryFilter) ([]finance.Receivable, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) Save(ctx context.Context, r *finance.Receivable) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReceivableRepository) SaveBatch(ctx context.Context, items []*finance.Receivable) finance.BatchResult {
	args := m.Called(ctx, items)
	if len(args) > 0 {
		return args.Get(0).(finance.BatchResult)
	}
	result := finance.BatchResult{}
	for _, r := range items {
		result.Created = append(result.Created, r.ID)
	}
	return result
}

func (m *MockReceivableRepository) Update(ctx context.Context, r *finance.Receivable) error {
	return m.Called(ctx, r).Error(0)
}

// MockPayableRepository is a mock implementation of finance.PayableRepository
type MockPayableRepository struct {
	mock.Mock
}

func (m *MockPayableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payable), args.Error(1)
}

func (m *MockPayableRepository) List(ctx context.Context, filter finance.EntryFilter) ([]finance.Payable, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Payable), args.Error(1)
}

func (m *MockPayableRepository) Save(ctx context.Context, p *finance.Payable) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPayableRepository) SaveBatch(ctx context.Context, items []*finance.Payable) finance.BatchResult {
	args := m.Called(ctx, items)
	if len(args) > 0 {
		return args.Get(0).(finance.BatchResult)
	}
	result := finance.BatchResult{}
	for _, p := range items {
		result.Created = append(result.Created, p.ID)
	}
	return result
}

func (m *MockPayableRepository) Update(ctx context.Context, p *finance.Payable) error {
	return m.Called(ctx, p).Error(0)
}

// storeDown fails every item of a batch the way an unreachable database does
func storeDown(n int) finance.BatchResult {
	result := finance.BatchResult{}
	for i := range n {
		result.Failures = append(result.Failures, finance.BatchFailure{
			Index:   i,
			Code:    shared.CodeStoreUnavailable,
			Message: "store unavailable: connection refused",
		})
	}
	return result
}

// memoryPreferences keeps preferences in a map
type memoryPreferences struct {
	mu    sync.Mutex
	items map[string]finance.Preferences
}

func (s *memoryPreferences) Get(_ context.Context, scope string) (finance.Preferences, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[scope]
	return p, ok
}

func (s *memoryPreferences) Set(_ context.Context, scope string, prefs finance.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[scope] = prefs
}

func (s *memoryPreferences) Clear(_ context.Context, scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, scope)
}

// testAPI wires every finance handler over mock repositories under /api/v1
type testAPI struct {
	engine      *gin.Engine
	receivables *MockReceivableRepository
	payables    *MockPayableRepository
	prefs       *memoryPreferences
}

func newTestAPI() *testAPI {
	api := &testAPI{
		engine:      gin.New(),
		receivables: new(MockReceivableRepository),
		payables:    new(MockPayableRepository),
		prefs:       &memoryPreferences{items: map[string]finance.Preferences{}},
	}
	opts := []financeapp.ServiceOption{financeapp.WithClock(testClock())}
	installments := financeapp.NewInstallmentService(opts...)
	rh := NewReceivableHandler(financeapp.NewReceivableService(api.receivables, opts...), installments)
	ph := NewPayableHandler(financeapp.NewPayableService(api.payables, opts...), installments)
	dh := NewDashboardHandler(financeapp.NewDashboardService(api.receivables, api.payables, opts...))
	prh := NewPreferenceHandler(financeapp.NewPreferenceService(api.prefs, opts...))

	v1 := api.engine.Group("/api/v1")
	rg := v1.Group("/receivables")
	rg.GET("", rh.List)
	rg.GET("/summary", rh.Summary)
	rg.GET("/:id", rh.Get)
	rg.POST("", rh.Create)
	rg.POST("/batch", rh.CreateBatch)
	rg.POST("/installments/preview", rh.PreviewInstallments)
	rg.PUT("/:id", rh.Update)
	rg.POST("/:id/receipts", rh.RegisterReceipt)

	pg := v1.Group("/payables")
	pg.GET("", ph.List)
	pg.GET("/:id", ph.Get)
	pg.POST("", ph.Create)
	pg.POST("/batch", ph.CreateBatch)
	pg.PUT("/:id", ph.Update)
	pg.POST("/:id/payments", ph.RegisterPayment)

	v1.GET("/dashboard", dh.Get)
	v1.GET("/preferences/:scope", prh.Get)
	v1.PUT("/preferences/:scope", prh.Put)
	v1.DELETE("/preferences/:scope", prh.Delete)
	return api
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newReceivable(gross string) *finance.Receivable {
	r, err := finance.EntryInput{
		Kind:          finance.KindReceivable,
		Counterparty:  "Construtora Horizonte",
		Description:   "Electrical maintenance",
		ServiceDate:   "2026-03-01",
		DueDate:       "2026-03-20",
		PaymentMethod: "Pix",
		GrossAmount:   dec(gross),
	}.BuildReceivable(testToday)
	if err != nil {
		panic(err)
	}
	return r
}

func newPayable(gross string) *finance.Payable {
	p, err := finance.EntryInput{
		Kind:          finance.KindPayable,
		Counterparty:  "Copel Distribuicao",
		Description:   "Electricity bill",
		Category:      "Utilities",
		ServiceDate:   "2026-02-28",
		DueDate:       "2026-03-08",
		PaymentMethod: "Boleto",
		GrossAmount:   dec(gross),
	}.BuildPayable(testToday)
	if err != nil {
		panic(err)
	}
	return p
}
