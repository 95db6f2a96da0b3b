// Package transport implements the single bounded-timeout HTTP client used to
// reach the analysis backend. Every failure is normalized into a
// *common.APIError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/service"
	"github.com/google/uuid"
)

// Defaults used when configuration leaves a value unset.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
)

var _ service.Transport = (*Client)(nil)

// Client performs JSON calls against a base URL with a hard per-call deadline.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	userAgent  string
	timeout    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the wall-clock deadline applied to every call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every call.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: base URL must be an absolute http(s) URL: %q", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL:   baseURL,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
		userAgent: "stocklens",
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-call deadline.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Call(ctx, http.MethodPost, endpoint, body, out)
}

// Get decodes the response of a GET into out.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.Call(ctx, http.MethodGet, endpoint, nil, out)
}

// Call performs one request. The deadline starts when Call is entered and is
// released when Call returns, whichever comes first. No retries happen here.
func (c *Client) Call(ctx context.Context, method, endpoint string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return common.NewProtocolError("failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return common.NewNetworkError(fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		callErr := classify(ctx, err)
		c.logger.Debug("Backend call failed",
			"method", method,
			"endpoint", endpoint,
			"request_id", requestID,
			"duration", time.Since(start),
			"error", callErr)
		return callErr
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, err)
	}

	c.logger.Debug("Backend call completed",
		"method", method,
		"endpoint", endpoint,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp.StatusCode, data)
	}

	if !json.Valid(data) {
		return common.NewProtocolError("response body is not valid JSON", nil)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return common.NewProtocolError("unexpected response shape", err)
	}

	return nil
}

// classify maps a failed round trip onto the taxonomy. Deadline expiry is a
// timeout; everything else, including caller cancellation, is a network error.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return common.NewTimeoutError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.NewTimeoutError(err)
	}

	return common.NewNetworkError(err)
}

// httpError builds an HTTP error, preferring a server-provided message.
func httpError(status int, data []byte) error {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return common.NewHTTPError(status, "", nil)
	}

	var message string
	for _, key := range []string{"message", "detail"} {
		if s, ok := body[key].(string); ok && s != "" {
			message = s
			break
		}
	}

	return common.NewHTTPError(status, message, body)
}
