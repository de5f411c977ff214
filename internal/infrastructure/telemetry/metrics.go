package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const defaultExportInterval = time.Minute

// MetricsConfig controls OTLP metric export.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	// ExportInterval defaults to one minute
	ExportInterval time.Duration
	ServiceName    string
	ServiceVersion string
	Insecure       bool
}

// MeterProvider owns the SDK provider when export is enabled. A disabled
// provider hands out meters from the global (no-op) provider.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
}

// NewMeterProvider starts periodic OTLP export and installs the provider globally.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{}
	if !cfg.Enabled {
		logger.Info("Metrics disabled")
		return mp, nil
	}

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("Metrics export started",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Shutdown flushes the last interval and stops export.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled reports whether metrics leave the process.
func (mp *MeterProvider) IsEnabled() bool {
	return mp != nil && mp.provider != nil
}

// Instruments creates instruments on one meter and keeps the first error, so
// a metrics set can be declared without checking after every call. Once an
// error is recorded further instruments are no-ops.
type Instruments struct {
	meter metric.Meter
	err   error
}

// NewInstruments starts an instrument set on meter.
func NewInstruments(meter metric.Meter) *Instruments {
	return &Instruments{meter: meter}
}

// Counter creates a monotonic int64 counter.
func (in *Instruments) Counter(name, description, unit string) metric.Int64Counter {
	if in.err == nil {
		c, err := in.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
		if err == nil {
			return c
		}
		in.err = fmt.Errorf("counter %s: %w", name, err)
	}
	return noop.Int64Counter{}
}

// UpDownCounter creates a gauge-like int64 counter.
func (in *Instruments) UpDownCounter(name, description, unit string) metric.Int64UpDownCounter {
	if in.err == nil {
		c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
		if err == nil {
			return c
		}
		in.err = fmt.Errorf("up-down counter %s: %w", name, err)
	}
	return noop.Int64UpDownCounter{}
}

// Histogram creates a float64 histogram with explicit bucket boundaries.
func (in *Instruments) Histogram(name, description, unit string, bounds ...float64) metric.Float64Histogram {
	if in.err == nil {
		opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
		if len(bounds) > 0 {
			opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
		}
		h, err := in.meter.Float64Histogram(name, opts...)
		if err == nil {
			return h
		}
		in.err = fmt.Errorf("histogram %s: %w", name, err)
	}
	return noop.Float64Histogram{}
}

// Err returns the first instrument creation error.
func (in *Instruments) Err() error {
	return in.err
}

// Attribute keys shared by the HTTP and bookkeeping metrics.
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrEntryKind     = attribute.Key("entry_kind")
	AttrPaymentMethod = attribute.Key("payment_method")
	AttrErrorCode     = attribute.Key("error_code")
)

// HTTPDurationBuckets are request latency boundaries in seconds.
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
