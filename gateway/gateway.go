// Package gateway is the single outbound pipeline to the HR backend. It
// attaches the session bearer token, unwraps the {success, data} envelope
// and dispatches authorization failures to handlers registered per error code.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout bounds every request, connect through body read
	DefaultTimeout = 10 * time.Second

	// HeaderPaymentAccessToken carries the OTP-issued payslip credential
	HeaderPaymentAccessToken = "X-Payment-Access-Token"

	maxResponseBytes = 10 << 20
)

// BearerSource supplies the session token attached to outbound requests.
// An empty string means "no session"; the header is then omitted.
type BearerSource interface {
	BearerToken() string
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
	storage    storage.Storage
	metrics    *metrics

	mu       sync.RWMutex
	headers  http.Header
	bearer   BearerSource
	handlers map[string]registration
	nextReg  uint64
}

type Option func(*Client) error

// WithHTTPClient uses a copy of hc for transport. The copy's Timeout is
// replaced by the gateway timeout and a nil Jar gets the default cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client is nil")
		}
		cp := *hc
		c.httpClient = &cp
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.timeout = d
		return nil
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithStorage gives the gateway access to durable storage for the
// degraded token-expiry path used before any handler is registered.
func WithStorage(s storage.Storage) Option {
	return func(c *Client) error {
		c.storage = s
		return nil
	}
}

// WithMetrics registers request counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) error {
		m, err := newMetrics(reg)
		if err != nil {
			return err
		}
		c.metrics = m
		return nil
	}
}

// New creates a Client rooted at baseURL (e.g. "https://hr.example.com/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[gateway New] invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("[gateway New] base url must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
		headers:    make(http.Header),
		handlers:   make(map[string]registration),
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("[gateway New] %w", err)
		}
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	c.httpClient.Timeout = c.timeout

	// Credentials mode: cookies set by the backend are sent back on later requests
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("[gateway New] cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// BaseURL returns the API root this client targets
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Timeout returns the per-request timeout
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// SetBearerSource binds the token supplier consulted before every request.
func (c *Client) SetBearerSource(src BearerSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bearer = src
}

// UnbindBearerSource clears the bearer source if it is still src. A source
// that has since been replaced is left alone.
func (c *Client) UnbindBearerSource(src BearerSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bearer == src {
		c.bearer = nil
	}
}

// SetDefaultAuthorization sets a static Authorization header used when no
// bearer source yields a token. An empty token clears it.
func (c *Client) SetDefaultAuthorization(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.headers.Del("Authorization")
		return
	}
	c.headers.Set("Authorization", "Bearer "+token)
}

// DefaultHeader returns the current value of a default header
func (c *Client) DefaultHeader(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(key)
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends one request. On success the envelope's data is decoded into out
// (when out is non-nil). Failures are returned as *APIError for non-2xx
// responses, ErrProtocolViolation for malformed envelopes, and ErrRequest
// wrapping the transport error otherwise. Nothing is retried.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	start := time.Now()
	outcome := outcomeNetworkError
	defer func() {
		c.metrics.observe(method, outcome, time.Since(start))
	}()

	req, err := c.newRequest(ctx, method, path, body, opts)
	if err != nil {
		outcome = outcomeRequestError
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("gateway: transport failure")
		return hrerrors.Join(hrerrors.ErrRequest, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return hrerrors.Join(hrerrors.ErrRequest, fmt.Errorf("%s %s: read body: %w", method, path, err))
	}

	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("gateway: response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = outcomeAPIError
		apiErr := newAPIError(resp.StatusCode, payload)
		apiErr.SentBearer = bearerOf(req)
		apiErr.SentPaymentToken = req.Header.Get(HeaderPaymentAccessToken)
		c.dispatch(apiErr)
		return apiErr
	}

	if err := unwrapEnvelope(payload, out); err != nil {
		outcome = outcomeProtocolError
		c.logger.Warn().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("gateway: malformed success envelope")
		return err
	}

	outcome = outcomeSuccess
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, opts []RequestOption) (*http.Request, error) {
	ro := requestOptions{}
	for _, opt := range opts {
		opt(&ro)
	}

	u := c.baseURL.JoinPath(path)
	if len(ro.query) > 0 {
		u.RawQuery = ro.query.Encode()
	}

	var reader io.Reader
	switch {
	case ro.rawBody != nil:
		reader = ro.rawBody
	case body != nil:
		b, err := json.Marshal(body)
		if err != nil {
			return nil, hrerrors.Join(hrerrors.ErrInvalidArgument, fmt.Errorf("encode %s %s body: %w", method, path, err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, hrerrors.Join(hrerrors.ErrInvalidArgument, fmt.Errorf("build %s %s: %w", method, path, err))
	}

	c.mu.RLock()
	req.Header = c.headers.Clone()
	src := c.bearer
	c.mu.RUnlock()

	if src != nil {
		if token := src.BearerToken(); token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}

	if ro.rawBody != nil {
		req.Header.Set("Content-Type", ro.contentType)
	}
	for k, vs := range ro.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// bearerOf returns the token of a Bearer Authorization header, or ""
func bearerOf(req *http.Request) string {
	scheme, token, ok := strings.Cut(req.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// unwrapEnvelope requires {"success": true, "data": ...}. A present but
// null data leaves out untouched.
func unwrapEnvelope(payload []byte, out any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return hrerrors.ErrProtocolViolation
	}

	var success bool
	if raw, ok := fields["success"]; !ok || json.Unmarshal(raw, &success) != nil || !success {
		return hrerrors.ErrProtocolViolation
	}
	data, ok := fields["data"]
	if !ok {
		return hrerrors.ErrProtocolViolation
	}

	if out == nil || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return hrerrors.Join(hrerrors.ErrProtocolViolation, err)
	}
	return nil
}
