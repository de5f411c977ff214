package finance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var testToday = shared.Date(2026, time.March, 10)

func testClock() shared.Clock {
	return shared.FixedClock{At: testToday.Add(14 * time.Hour)}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func receivableInput() finance.EntryInput {
	return finance.EntryInput{
		Counterparty:  "Construtora Horizonte",
		Description:   "Electrical maintenance",
		ServiceDate:   "2026-03-01",
		DueDate:       "2026-03-20",
		PaymentMethod: "pix",
		GrossAmount:   dec("1000"),
	}
}

func payableInput() finance.EntryInput {
	return finance.EntryInput{
		Counterparty:  "Copel Distribuicao",
		Description:   "Electricity bill",
		Category:      "Utilities",
		ServiceDate:   "2026-02-28",
		DueDate:       "2026-03-08",
		PaymentMethod: "Boleto",
		GrossAmount:   dec("412.37"),
	}
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
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReceivableRepository) SaveBatch(ctx context.Context, items []*finance.Receivable) finance.BatchResult {
	args := m.Called(ctx, items)
	if fn, ok := args.Get(0).(func([]*finance.Receivable) finance.BatchResult); ok {
		return fn(items)
	}
	return args.Get(0).(finance.BatchResult)
}

func (m *MockReceivableRepository) Update(ctx context.Context, r *finance.Receivable) error {
	args := m.Called(ctx, r)
	return args.Error(0)
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
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPayableRepository) SaveBatch(ctx context.Context, items []*finance.Payable) finance.BatchResult {
	args := m.Called(ctx, items)
	if fn, ok := args.Get(0).(func([]*finance.Payable) finance.BatchResult); ok {
		return fn(items)
	}
	return args.Get(0).(finance.BatchResult)
}

func (m *MockPayableRepository) Update(ctx context.Context, p *finance.Payable) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// stubPreferenceStore keeps preferences in a map
type stubPreferenceStore struct {
	mu    sync.Mutex
	items map[string]finance.Preferences
}

func newStubPreferenceStore() *stubPreferenceStore {
	return &stubPreferenceStore{items: map[string]finance.Preferences{}}
}

func (s *stubPreferenceStore) Get(_ context.Context, scope string) (finance.Preferences, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[scope]
	return p, ok
}

func (s *stubPreferenceStore) Set(_ context.Context, scope string, prefs finance.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[scope] = prefs
}

func (s *stubPreferenceStore) Clear(_ context.Context, scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, scope)
}
