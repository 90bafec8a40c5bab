package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/richxcame/osrm-route/pkg/logger"
	"github.com/richxcame/osrm-route/pkg/middleware"
	"github.com/richxcame/osrm-route/pkg/resilience"
)

// maxBodyBytes bounds how much of an upstream response is read. Larger
// bodies are rejected rather than truncated.
const maxBodyBytes = 32 << 20

// ErrBodyTooLarge is wrapped by the TransportError for an oversized body.
var ErrBodyTooLarge = errors.New("response body too large")

// ErrTransport is matched by every *TransportError.
var ErrTransport = errors.New("transport failure")

// TransportError is a failed exchange: a non-2xx status (StatusCode and Body
// set), a connection or timeout failure (Err set, StatusCode 0) or a body
// that could not be read in full (Err and StatusCode set).
type TransportError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("transport failure: %v", e.Err)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, truncate(e.Body, 256))
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Client wraps http.Client with optional retry and circuit breaking.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	retryConfig  *resilience.RetryConfig
	breaker      *resilience.CircuitBreaker
	maxBodyBytes int64
}

// Option configures the HTTP client
type Option func(*Client)

// WithRetry enables retry logic with the given configuration. A nil
// RetryableChecker is replaced by the transient-status check.
func WithRetry(config resilience.RetryConfig) Option {
	if config.RetryableChecker == nil {
		config.RetryableChecker = isHTTPRetryable
	}
	return func(c *Client) {
		c.retryConfig = &config
	}
}

// WithCircuitBreaker routes every request through breaker.
func WithCircuitBreaker(breaker *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

// NewClient creates a new HTTP client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:      baseURL,
		maxBodyBytes: maxBodyBytes,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the prefix prepended to request paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Available reports whether the circuit breaker, if any, would let a
// request through.
func (c *Client) Available() bool {
	return c.breaker.Allow()
}

// Get makes a GET request to baseURL+path and returns the response body.
// Failures are *TransportError, except breaker rejections which are
// resilience.ErrCircuitOpen and context errors which are returned as is.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	operation := func(ctx context.Context) ([]byte, error) {
		return c.doGet(ctx, path, headers)
	}

	if c.retryConfig != nil {
		if c.breaker != nil {
			return resilience.RetryWithBreaker(ctx, *c.retryConfig, c.breaker, operation)
		}
		return resilience.Retry(ctx, *c.retryConfig, "http.get", operation)
	}

	return c.breaker.Execute(ctx, operation)
}

func (c *Client) doGet(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	injectCorrelationID(ctx, req)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(respBody)) > c.maxBodyBytes {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return respBody, nil
}

// isHTTPRetryable retries transient statuses and connection failures.
func isHTTPRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.StatusCode != 0 {
			return resilience.IsRetryableHTTPStatus(transportErr.StatusCode)
		}
		return true
	}
	return false
}

// IsServerFailure reports whether err should count against a circuit
// breaker: connection failures and 5xx/429 answers, but not 4xx answers,
// which OSRM uses for well-formed logical errors such as NoRoute.
func IsServerFailure(err error) bool {
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		return false
	}
	return transportErr.StatusCode == 0 ||
		transportErr.StatusCode >= 500 ||
		transportErr.StatusCode == http.StatusTooManyRequests
}

func injectCorrelationID(ctx context.Context, req *http.Request) {
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.CorrelationIDHeader, correlationID)
	}
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "...(truncated)"
}
