package dizquetv

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client talks to the dizqueTV HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	timeout   time.Duration
	tracing   bool
	logger    *logrus.Logger
	metrics   *Metrics
	rand      Rand
	now       func() time.Time
}

const (
	defaultBaseURL   = "127.0.0.1:8000"
	defaultUserAgent = "dizquetv-go/0.1"
	requestTimeout   = 5 * time.Second
	requestIDHeader  = "X-Request-ID"
	apiPrefix        = "/api"
)

// Option customises a Client built by New.
type Option func(*Client)

// WithHTTPClient sends requests through hc. The client is copied, so later
// options never mutate the caller's value.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger routes request logging to logger. Requests are logged at debug
// level and failures at error level.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request counts and latencies into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracing wraps the transport with OpenTelemetry instrumentation using the
// globally registered tracer provider.
func WithTracing() Option {
	return func(c *Client) { c.tracing = true }
}

// WithRand sets the random source used by shuffling helpers.
func WithRand(r Rand) Option {
	return func(c *Client) {
		if r != nil {
			c.rand = r
		}
	}
}

// WithClock sets the time source used for start times and flex padding.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Client for the dizqueTV server at baseURL. A missing scheme
// defaults to http and an empty value to 127.0.0.1:8000.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := &Client{
		baseURL:   base,
		userAgent: defaultUserAgent,
		logger:    logger,
		rand:      defaultRand{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: requestTimeout}
	}
	if c.timeout > 0 {
		c.http.Timeout = c.timeout
	}
	if c.tracing {
		transport := c.http.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		c.http.Transport = otelhttp.NewTransport(transport)
	}
	return c, nil
}

// URL returns the normalised server base URL.
func (c *Client) URL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// ServerDetails holds component versions reported by /api/version.
type ServerDetails struct {
	DizqueTV string `json:"dizquetv"`
	FFMPEG   string `json:"ffmpeg"`
	NodeJS   string `json:"nodejs"`
}

// Server fetches version information from the server.
func (c *Client) Server(ctx context.Context) (*ServerDetails, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload ServerDetails
	if err := c.do(ctx, http.MethodGet, "/version", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DizqueTVVersion returns the server version string.
func (c *Client) DizqueTVVersion(ctx context.Context) (string, error) {
	details, err := c.Server(ctx)
	if err != nil {
		return "", err
	}
	return details.DizqueTV, nil
}

// FFMPEGVersion returns the FFMPEG version used by the server.
func (c *Client) FFMPEGVersion(ctx context.Context) (string, error) {
	details, err := c.Server(ctx)
	if err != nil {
		return "", err
	}
	return details.FFMPEG, nil
}

// NodeJSVersion returns the Node.js version running the server.
func (c *Client) NodeJSVersion(ctx context.Context) (string, error) {
	details, err := c.Server(ctx)
	if err != nil {
		return "", err
	}
	return details.NodeJS, nil
}

func (c *Client) apiURL(path string, query url.Values) *url.URL {
	rel := &url.URL{Path: c.baseURL.Path + apiPrefix + path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	return rel
}

func (c *Client) rootURL(path string, query url.Values) *url.URL {
	rel := &url.URL{Path: c.baseURL.Path + path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	return rel
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	return c.doURL(ctx, method, c.apiURL(path, nil), payload, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, payload, dest any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.send(ctx, method, rel, body, contentType)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		// Several write endpoints answer 200 with an empty body.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) fetchText(ctx context.Context, rel *url.URL) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, rel, nil, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType string) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	entry := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       rel.Path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(method, rel.Path, 0, elapsed)
		entry.WithError(err).Error("dizquetv request failed")
		return nil, fmt.Errorf("execute request: %w", err)
	}
	c.metrics.observe(method, rel.Path, resp.StatusCode, elapsed)

	entry = entry.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": elapsed,
	})
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		entry.Error("dizquetv request rejected")
		return nil, &APIError{Method: method, Path: rel.String(), StatusCode: resp.StatusCode}
	}
	entry.Debug("dizquetv request")
	return resp, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
