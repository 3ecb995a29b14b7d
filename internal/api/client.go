package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ava-companion/ava/pkg/logger"
	"github.com/ava-companion/ava/pkg/metrics"
)

// TokenSource supplies the current bearer token. An empty token is attached
// as-is and left for the server to reject; gating calls on session presence
// is the caller's job.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource holding a fixed token. Useful in tests.
type StaticToken string

// Token returns the fixed token.
func (s StaticToken) Token() string { return string(s) }

// Client performs authenticated HTTP calls against the backend. It is
// stateless aside from its configuration and safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// New creates a client for the backend at baseURL. No timeout is applied
// beyond the transport default.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		tokens:     tokens,
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one typed operation.
type request struct {
	op       string // metric label and log tag
	method   string
	path     string
	body     any
	authed   bool
	fallback string // error message when the server's is unparseable
}

// do performs the request and decodes a 2xx body into out when out is
// non-nil. Non-2xx responses become *APIError; resource methods that treat
// particular statuses specially inspect the error themselves.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", req.op, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Correlation-ID", uuid.New().String())
	if req.authed {
		// Attached even when empty; verification is the server's job.
		httpReq.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordAPIRequest(req.op, "transport_error", time.Since(start).Seconds())
		return transportError(req.op, err)
	}
	defer resp.Body.Close()

	metrics.RecordAPIRequest(req.op, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	c.logger.Debug("api call",
		zap.String("operation", req.op),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, serverMessage(resp.Body), req.fallback)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", req.op, err)
		}
	}
	return nil
}

// serverMessage extracts the server-supplied error message, tolerating both
// the backend's {"detail": ...} and {"error": ...} shapes.
func serverMessage(r io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Error
}
