package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/shared"
)

// EntryFilter narrows list queries. A nil Month lists everything.
type EntryFilter struct {
	Month *MonthRef
}

// BatchFailure describes one rejected item of a batch.
type BatchFailure struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResult collects the outcome of a non-atomic batch: created ids in input order
// and per-item failures. Successes are never rolled back.
type BatchResult struct {
	Created  []uuid.UUID    `json:"created"`
	Failures []BatchFailure `json:"failures"`
}

// AllFailed reports whether nothing in a non-empty batch was created.
func (r BatchResult) AllFailed() bool {
	return len(r.Created) == 0 && len(r.Failures) > 0
}

// HasFailures reports whether any item was rejected.
func (r BatchResult) HasFailures() bool {
	return len(r.Failures) > 0
}

// StoreUnavailable reports whether any item failed because the store could not
// be reached.
func (r BatchResult) StoreUnavailable() bool {
	for _, f := range r.Failures {
		if f.Code == shared.CodeStoreUnavailable {
			return true
		}
	}
	return false
}

// ReceivableRepository defines the interface for receivable persistence
type ReceivableRepository interface {
	// FindByID returns shared.ErrNotFound when no receivable has the id
	FindByID(ctx context.Context, id uuid.UUID) (*Receivable, error)

	// List returns receivables ordered by due date, then customer name
	List(ctx context.Context, filter EntryFilter) ([]Receivable, error)

	// Save inserts a new receivable
	Save(ctx context.Context, r *Receivable) error

	// SaveBatch inserts each receivable independently, collecting failures by index
	SaveBatch(ctx context.Context, items []*Receivable) BatchResult

	// Update writes r when its stored version still matches, bumping the version.
	// shared.ErrConcurrencyConflict is returned otherwise.
	Update(ctx context.Context, r *Receivable) error
}

// PayableRepository defines the interface for payable persistence
type PayableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payable, error)
	List(ctx context.Context, filter EntryFilter) ([]Payable, error)
	Save(ctx context.Context, p *Payable) error
	SaveBatch(ctx context.Context, items []*Payable) BatchResult
	Update(ctx context.Context, p *Payable) error
}
