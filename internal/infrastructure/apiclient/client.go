// Package apiclient talks to the bookkeeping HTTP API on behalf of the seed tool.
// Calls are throttled by a token bucket, retried with backoff on transport
// failures and 5xx responses, and guarded by a circuit breaker.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrTransport marks failures where the API could not give a usable answer:
// connection errors, an open breaker, or 5xx responses after every retry.
var ErrTransport = errors.New("api transport failure")

// Failure kinds reported by Kind
const (
	KindTransport  = "transport"
	KindValidation = "validation"
	KindAPI        = "api"
)

// APIError is a non-2xx response carrying the API's error body
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    []dto.ValidationDetail
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api returned %d", e.StatusCode)
}

// Is makes server-side failures match ErrTransport
func (e *APIError) Is(target error) bool {
	return target == ErrTransport && e.StatusCode >= http.StatusInternalServerError
}

// Kind classifies an error returned by the client
func Kind(err error) string {
	if errors.Is(err, ErrTransport) {
		return KindTransport
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		return KindValidation
	}
	return KindAPI
}

// Config holds client tuning
type Config struct {
	BaseURL           string
	APIVersion        string
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerThreshold  uint32
	BreakerCooldown   time.Duration
}

// DefaultConfig returns settings suitable for a local import run
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		APIVersion:        "v1",
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    200 * time.Millisecond,
		RequestsPerSecond: 20,
		Burst:             5,
		BreakerThreshold:  5,
		BreakerCooldown:   10 * time.Second,
	}
}

// Client is a bookkeeping API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        Config
	cb         *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for cfg.BaseURL
func New(cfg Config, opts ...Option) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/api/" + cfg.APIVersion,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		logger:     zap.NewNop(),
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bookkeeping-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		// client errors are answers, not outages
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransport)
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope mirrors dto.Response with the payload left undecoded
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

// Ping checks the API is reachable
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodGet, "/ping", nil)
	return err
}

// CreateReceivable posts one receivable
func (c *Client) CreateReceivable(ctx context.Context, req dto.ReceivableRequest) (*financeapp.ReceivableResponse, error) {
	env, err := c.call(ctx, http.MethodPost, "/receivables", req)
	if err != nil {
		return nil, err
	}
	var out financeapp.ReceivableResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("decode receivable: %w", err)
	}
	return &out, nil
}

// CreateReceivableBatch posts receivables in one request. A batch where every
// item was rejected still returns its per-item failures.
func (c *Client) CreateReceivableBatch(ctx context.Context, items []dto.ReceivableRequest) (*dto.BatchCreateResponse, error) {
	env, err := c.call(ctx, http.MethodPost, "/receivables/batch", items)
	var apiErr *APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && len(env.Data) > 0) {
		return nil, err
	}
	var out dto.BatchCreateResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("decode batch result: %w", err)
	}
	return &out, nil
}

// call runs one logical request through the breaker. The envelope is returned
// alongside an APIError so callers can read data attached to 4xx answers.
func (c *Client) call(ctx context.Context, method, path string, body any) (envelope, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	var env envelope
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.retry(ctx, func() error {
			var err error
			env, err = c.do(ctx, method, path, payload)
			return err
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return envelope{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return env, err
}

// retry repeats fn with exponential backoff and jitter while it fails with a
// transport error
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}

		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, ErrTransport) {
			return lastErr
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		wait := c.cfg.InitialBackoff << attempt
		if wait > 0 {
			wait += rand.N(wait/2 + 1)
		}
		c.logger.Debug("retrying api call",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
		case <-time.After(wait):
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (envelope, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			return envelope{}, fmt.Errorf("decode response: %w", decodeErr)
		}
		return env, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Body: raw}
	if decodeErr == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	return env, apiErr
}
