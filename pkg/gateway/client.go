// Package gateway is the HTTP client for the document service. Every call
// resolves the endpoint first, so the first request of the process
// triggers discovery.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/internal/logging"
)

// RequestIDHeader carries a per-request identifier for server-side tracing.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Resolver yields the base URL requests are sent to.
type Resolver interface {
	Resolve(ctx context.Context) string
	Current() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics shares a metrics set between clients.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client talks to the document service.
type Client struct {
	resolver   Resolver
	httpClient *http.Client
	logger     *logrus.Entry
	metrics    *Metrics
}

// New creates a client. Ordinary calls carry no client-side timeout; the
// caller's context bounds them.
func New(resolver Resolver, opts ...Option) *Client {
	c := &Client{
		resolver:   resolver,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewLogger("ged.gateway")
	}
	if c.metrics == nil {
		c.metrics = NewMetrics()
	}
	return c
}

// Metrics returns the client's request metrics.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// BaseURL returns the endpoint the next request would use without probing.
func (c *Client) BaseURL() string {
	return c.resolver.Current()
}

// request describes one call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// jsonRequest encodes payload as the request body.
func jsonRequest(op, method, path string, payload any) (request, error) {
	r := request{op: op, method: method, path: path, contentType: "application/json"}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return r, fmt.Errorf("encode %s body: %w", op, err)
		}
		r.body = bytes.NewReader(data)
	}
	return r, nil
}

// do sends r and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	base := c.resolver.Resolve(ctx)
	target := base + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	body := r.body
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", r.op, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	log := c.logger.WithFields(logrus.Fields{
		"op":         r.op,
		"method":     r.method,
		"url":        target,
		"request_id": reqID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(r.op, 0, time.Since(start))
		log.WithError(err).Debug("Request failed")
		return fmt.Errorf("%s %s: %w", r.method, target, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(r.op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := newServiceError(resp.StatusCode, data)
		log.WithFields(logrus.Fields{"status": resp.StatusCode, "message": serr.Message}).Debug("Service returned an error")
		return serr
	}

	log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed": time.Since(start)}).Debug("Request completed")

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.op, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, payload, out any) error {
	r, err := jsonRequest(op, method, path, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, r, out)
}

// seg escapes one path segment. Item IDs are base64 and may contain '/'.
func seg(s string) string {
	return url.PathEscape(s)
}

func joinPath(parts ...string) string {
	return strings.Join(parts, "/")
}
