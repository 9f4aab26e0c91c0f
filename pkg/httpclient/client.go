package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/pkg/resilience"
)

const defaultTimeout = 5 * time.Second

// maxBodyBytes bounds provider responses; Overpass answers for dense city
// centres are the largest we read.
const maxBodyBytes = 8 << 20

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Client is a small JSON/form HTTP client for third-party providers with an
// optional retry policy and circuit breaker.
type Client struct {
	name        string
	baseURL     string
	httpClient  *http.Client
	headers     map[string]string
	retryConfig *resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// NewClient creates a client rooted at baseURL. The first timeout, when
// positive, bounds each request; otherwise 5 seconds is used.
func NewClient(baseURL string, timeout ...time.Duration) *Client {
	t := defaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		t = timeout[0]
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: t},
		headers:    map[string]string{},
	}
}

// With applies options and returns the client for chaining.
func (c *Client) With(opts ...Option) *Client {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithRetry sets a retry policy for every request.
func WithRetry(config resilience.RetryConfig) Option {
	return func(c *Client) {
		cfg := config
		c.retryConfig = &cfg
	}
}

// WithDefaultRetry retries transport failures and retryable HTTP statuses.
func WithDefaultRetry() Option {
	return func(c *Client) {
		cfg := resilience.DefaultRetryConfig()
		cfg.RetryableChecker = IsRetryableError
		c.retryConfig = &cfg
	}
}

// WithBreaker guards every request with breaker.
func WithBreaker(breaker *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

// WithName labels the client's request metrics.
func WithName(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

// WithHeader sets a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// IsRetryableError reports whether err is a transport error or a retryable
// HTTP status.
func IsRetryableError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
	}
	return true
}

// Get performs a GET on path (which may carry a query string).
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, "", headers)
}

// Post sends body as JSON. A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	if body == nil {
		return c.do(ctx, http.MethodPost, path, nil, "", headers)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, "application/json", headers)
}

// PostForm sends form as application/x-www-form-urlencoded.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, []byte(form.Encode()), "application/x-www-form-urlencoded", headers)
}

// GetJSON performs a GET with query parameters and decodes the JSON response.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	body, err := c.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, contentType string, headers map[string]string) ([]byte, error) {
	op := func(ctx context.Context) (interface{}, error) {
		return c.send(ctx, method, path, payload, contentType, headers)
	}
	if c.breaker != nil {
		inner := op
		op = func(ctx context.Context) (interface{}, error) {
			return c.breaker.Execute(ctx, inner)
		}
	}

	var (
		result interface{}
		err    error
	)
	start := time.Now()
	defer func() { observe(c.name, start, err) }()

	if c.retryConfig != nil {
		result, err = resilience.Retry(ctx, *c.retryConfig, op)
	} else {
		result, err = op(ctx)
	}
	if err != nil {
		return nil, err
	}
	body, _ := result.([]byte)
	return body, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType string, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
