package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/joaodebarro/backend/internal/infrastructure/logger"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ServiceOption configures the finance application services
type ServiceOption func(*serviceDeps)

// serviceDeps are the collaborators every finance service shares
type serviceDeps struct {
	logger   *zap.Logger
	clock    shared.Clock
	metrics  *telemetry.FinanceMetrics
	currency valueobject.Currency
	issRate  decimal.Decimal
}

// WithLogger sets the fallback logger used when the request context carries none
func WithLogger(l *zap.Logger) ServiceOption {
	return func(d *serviceDeps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClock sets the clock "today" is read from
func WithClock(c shared.Clock) ServiceOption {
	return func(d *serviceDeps) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithMetrics enables the business counters
func WithMetrics(m *telemetry.FinanceMetrics) ServiceOption {
	return func(d *serviceDeps) {
		d.metrics = m
	}
}

// WithDefaultCurrency sets the currency applied to inputs that carry none
func WithDefaultCurrency(code string) ServiceOption {
	return func(d *serviceDeps) {
		if c := valueobject.NormalizeCurrency(code); c != "" {
			d.currency = c
		}
	}
}

// WithDefaultIssRate sets the ISS percentage used by automatic ISS calculation
func WithDefaultIssRate(rate decimal.Decimal) ServiceOption {
	return func(d *serviceDeps) {
		d.issRate = finance.ClampIssRate(rate)
	}
}

func newServiceDeps(opts []ServiceOption) serviceDeps {
	d := serviceDeps{
		logger:   zap.NewNop(),
		clock:    shared.NewSystemClock(time.UTC),
		currency: valueobject.DefaultCurrency,
		issRate:  finance.DefaultIssRate,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d serviceDeps) now() time.Time {
	return d.clock.Now()
}

func (d serviceDeps) today() time.Time {
	return shared.Today(d.clock)
}

func (d serviceDeps) log(ctx context.Context) *zap.Logger {
	return logger.Or(ctx, d.logger)
}

// withCurrency fills in the default currency when the input has none
func (d serviceDeps) withCurrency(in finance.EntryInput, fallback valueobject.Currency) finance.EntryInput {
	if valueobject.NormalizeCurrency(in.Currency) == "" {
		if fallback == "" {
			fallback = d.currency
		}
		in.Currency = string(fallback)
	}
	return in
}

// buildFailure turns an invariant violation raised after validation succeeded into
// an internal error. Validation already enforces every invariant, so reaching one
// means the two rule sets drifted apart.
func (d serviceDeps) buildFailure(ctx context.Context, kind finance.EntryKind, err error) error {
	if shared.CodeOf(err) != finance.CodeDomainInvariantViolation {
		return err
	}
	d.log(ctx).Error("validated input violated an entry invariant",
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %v", shared.ErrInternal, err)
}

// checkVersion rejects a write made against a stale copy. Zero skips the check.
func checkVersion(expected, stored int) error {
	if expected > 0 && expected != stored {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("version %d is stale, current version is %d", expected, stored))
	}
	return nil
}

// failureCode extracts the code reported for a rejected batch item
func failureCode(err error) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	if errors.Is(err, finance.ErrValidationFailed) {
		return finance.CodeValidationFailed
	}
	return shared.CodeInternal
}

// settlementDate is the day a receipt or payment is recorded on
func (d serviceDeps) settlementDate(on *time.Time) time.Time {
	if on == nil || on.IsZero() {
		return d.today()
	}
	return shared.DateOnly(*on)
}
