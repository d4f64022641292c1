package digit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
	maxErrorBody      = 512
)

// ErrUnexpectedStatus is wrapped by StatusError for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status from platform service")

// StatusError describes a non-2xx answer from a platform service.
type StatusError struct {
	Client     string
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Client, e.Operation, e.StatusCode, e.Body)
}

// Unwrap returns ErrUnexpectedStatus.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Observer receives one call per outbound request.
type Observer interface {
	ObserveClientRequest(client, operation string, err error, d time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryOn5xx enables or disables the single retry of GET requests on
// 5xx and network errors. Other methods are never retried.
func WithRetryOn5xx(enabled bool) Option {
	return func(c *Client) { c.retryOn5xx = enabled }
}

// WithRetryDelay sets the pause before the retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client is the JSON-over-HTTP transport shared by the service clients.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	retryOn5xx bool
	retryDelay time.Duration
	observer   Observer
	logger     *slog.Logger
}

// NewClient creates a transport for the service at baseURL.
func NewClient(name, baseURL string, timeout time.Duration, log *slog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retryOn5xx: true,
		retryDelay: defaultRetryDelay,
		logger:     log.With(slog.String("component", "digit_client"), slog.String("client", name)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the client name used in logs and metrics.
func (c *Client) Name() string {
	return c.name
}

// call describes one outbound request.
type call struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
	// header overrides the propagated headers.
	header http.Header
}

// retryReason returns why the first attempt should be repeated, or "" when
// it should not. Only GET lookups qualify: a POST the server processed
// before failing would otherwise start a second workflow or send a second
// notification.
func (c *Client) retryReason(ctx context.Context, cl call, resp *http.Response, err error) string {
	if !c.retryOn5xx || cl.method != http.MethodGet || ctx.Err() != nil {
		return ""
	}
	if err != nil {
		return "network error"
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return "status " + strconv.Itoa(resp.StatusCode)
	}
	return ""
}

// response is a fully read 2xx response.
type response struct {
	statusCode int
	body       []byte
}

// do executes cl and, when out is non-nil and the body is not empty, decodes
// the JSON body into out. Non-2xx answers return a *StatusError.
func (c *Client) do(ctx context.Context, cl call, out any) (*response, error) {
	start := time.Now()
	resp, err := c.execute(ctx, cl)
	if err == nil && out != nil && len(bytes.TrimSpace(resp.body)) > 0 {
		if decodeErr := json.Unmarshal(resp.body, out); decodeErr != nil {
			err = fmt.Errorf("%s %s: decode response: %w", c.name, cl.operation, decodeErr)
		}
	}
	if c.observer != nil {
		c.observer.ObserveClientRequest(c.name, cl.operation, err, time.Since(start))
	}
	return resp, err
}

func (c *Client) execute(ctx context.Context, cl call) (*response, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode request: %w", c.name, cl.operation, err)
		}
	}

	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	log.DebugContext(ctx, "platform request",
		slog.String("client", c.name),
		slog.String("operation", cl.operation),
		slog.String("method", cl.method),
		slog.String("url", endpoint))

	httpResp, err := c.send(ctx, cl, endpoint, payload)
	if reason := c.retryReason(ctx, cl, httpResp, err); reason != "" {
		log.WarnContext(ctx, "platform retry",
			slog.String("client", c.name),
			slog.String("operation", cl.operation),
			slog.String("reason", reason))
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}
		if !c.sleep(ctx) {
			return nil, ctx.Err()
		}
		httpResp, err = c.send(ctx, cl, endpoint, payload)
	}
	if err != nil {
		log.ErrorContext(ctx, "platform request failed",
			slog.String("client", c.name),
			slog.String("operation", cl.operation),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s %s: request failed: %w", c.name, cl.operation, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", c.name, cl.operation, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{
			Client:     c.name,
			Operation:  cl.operation,
			StatusCode: httpResp.StatusCode,
			Body:       snippet,
		}
	}

	return &response{statusCode: httpResp.StatusCode, body: body}, nil
}

func (c *Client) send(ctx context.Context, cl call, endpoint string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	HeadersFromContext(ctx).Apply(req)
	for name, values := range cl.header {
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}

	return c.httpClient.Do(req)
}

func (c *Client) sleep(ctx context.Context) bool {
	if c.retryDelay <= 0 {
		return true
	}
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
