package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// FinanceMetrics counts bookkeeping activity: entries created, settlements
// registered and rejected batch items.
type FinanceMetrics struct {
	entriesCreated metric.Int64Counter
	settlements    metric.Int64Counter
	batchFailures  metric.Int64Counter
}

// NewFinanceMetrics registers the bookkeeping counters on meter.
func NewFinanceMetrics(meter metric.Meter) (*FinanceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	in := NewInstruments(meter)
	fm := &FinanceMetrics{
		entriesCreated: in.Counter("bookkeeping_entries_created_total",
			"Total number of receivables and payables created", "{entries}"),
		settlements: in.Counter("bookkeeping_settlements_total",
			"Total number of receipts and payments registered", "{settlements}"),
		batchFailures: in.Counter("bookkeeping_batch_failures_total",
			"Total number of rejected batch items", "{items}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return fm, nil
}

// RecordEntryCreated counts one created entry. Safe on a nil receiver.
func (fm *FinanceMetrics) RecordEntryCreated(ctx context.Context, kind, paymentMethod string) {
	if fm == nil {
		return
	}
	fm.entriesCreated.Add(ctx, 1, metric.WithAttributes(
		AttrEntryKind.String(kind), AttrPaymentMethod.String(paymentMethod)))
}

// RecordSettlement counts one receipt or payment. Safe on a nil receiver.
func (fm *FinanceMetrics) RecordSettlement(ctx context.Context, kind string) {
	if fm == nil {
		return
	}
	fm.settlements.Add(ctx, 1, metric.WithAttributes(AttrEntryKind.String(kind)))
}

// RecordBatchFailure counts one rejected batch item by error code. Safe on a nil receiver.
func (fm *FinanceMetrics) RecordBatchFailure(ctx context.Context, kind, code string) {
	if fm == nil {
		return
	}
	fm.batchFailures.Add(ctx, 1, metric.WithAttributes(
		AttrEntryKind.String(kind), AttrErrorCode.String(code)))
}
