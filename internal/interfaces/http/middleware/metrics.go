package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

// httpInstruments are the server-side request instruments
type httpInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	in := telemetry.NewInstruments(meter)
	hi := &httpInstruments{
		requests: in.Counter("http_server_request_total",
			"HTTP requests by route, status and error code", "{request}"),
		duration: in.Histogram("http_server_request_duration_seconds",
			"HTTP request latency in seconds", "s", telemetry.HTTPDurationBuckets...),
		inFlight: in.UpDownCounter("http_server_active_requests",
			"HTTP requests being served", "{request}"),
	}
	return hi, in.Err()
}

// HTTPMetrics counts requests and records latency per route pattern.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"))
}

// HTTPMetricsWithMeter records request metrics on meter. Requests answered
// with an error envelope carry its code, so rejected settlements and stale
// updates can be told apart from plain 4xx traffic.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	hi, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		hi.inFlight.Add(ctx, 1)
		c.Next()
		hi.inFlight.Add(ctx, -1)

		route := attribute.NewSet(
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		)
		hi.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributeSet(route))

		attrs := append(route.ToSlice(), telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if code := ErrorCode(c); code != "" {
			attrs = append(attrs, telemetry.AttrErrorCode.String(code))
		}
		hi.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// routePattern labels by the matched route, never the raw path, so ids do not
// become label values.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// statusClass buckets a status code as "2xx", "4xx" and so on.
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
