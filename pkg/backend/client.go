package backend

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

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/curricula/pkg/cache"
	errs "github.com/matzehuels/curricula/pkg/errors"
	"github.com/matzehuels/curricula/pkg/observability"
)

// DefaultBaseURL is the hosted recommendation backend.
const DefaultBaseURL = "https://complejidad-recomendador.onrender.com"

const (
	httpTimeout = 10 * time.Second

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 16 << 20

	defaultRate     = 10
	defaultBurst    = 10
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
)

// Client talks to the recommendation backend. It is safe for concurrent use.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	cache    cache.Cache
	keys     cache.Keyer
	limiter  *rate.Limiter
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithCache enables response caching for catalog data.
func WithCache(cc cache.Cache, keys cache.Keyer) Option {
	return func(c *Client) {
		if cc != nil {
			c.cache = cc
		}
		if keys != nil {
			c.keys = keys
		}
	}
}

// WithRateLimit sets the request rate (per second) and burst. A non-positive
// rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithRetry sets how many times idempotent requests are attempted and the
// initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if err := errs.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid backend URL")
	}
	c := &Client{
		baseURL:  u,
		http:     &http.Client{Timeout: httpTimeout},
		cache:    cache.NullCache{},
		keys:     cache.NewDefaultKeyer(),
		limiter:  rate.NewLimiter(defaultRate, defaultBurst),
		attempts: defaultAttempts,
		delay:    defaultDelay,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

type tokenKey struct{}

// WithToken returns a context whose requests carry token as a bearer
// credential. An empty token leaves requests anonymous.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// =============================================================================
// Errors
// =============================================================================

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string // backend "detail" or "message", possibly empty
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Status)
}

// Code classifies the response status.
func (e *APIError) Code() errs.Code {
	switch e.Status {
	case http.StatusUnauthorized:
		return errs.ErrCodeUnauthorized
	case http.StatusForbidden:
		return errs.ErrCodeForbidden
	case http.StatusNotFound:
		return errs.ErrCodeNotFound
	case http.StatusTooManyRequests:
		return errs.ErrCodeRateLimited
	default:
		return errs.ErrCodeBackend
	}
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// =============================================================================
// Request plumbing
// =============================================================================

// request describes one backend call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

func (r request) idempotent() bool {
	return r.method == http.MethodGet
}

// do executes req and returns the raw response body. Idempotent requests
// are retried on transient failures.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "encode %s body", req.path)
		}
	}

	var out []byte
	attempt := func() error {
		body, err := c.roundTrip(ctx, req, payload)
		if err != nil {
			if req.idempotent() && transient(err) {
				c.logger.Debug("backend request failed, retrying", "method", req.method, "path", req.path, "error", err)
				return cache.Retryable(err)
			}
			return err
		}
		out = body
		return nil
	}
	if !req.idempotent() {
		return out, attempt()
	}
	return out, cache.RetryWithBackoffN(ctx, c.attempts, c.delay, attempt)
}

func (c *Client) roundTrip(ctx context.Context, req request, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrCodeTimeout, err, "rate limiter")
	}

	u := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "build request")
	}
	hreq.Header.Set("Accept", "application/json")
	if payload != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if tok := TokenFromContext(ctx); tok != "" {
		hreq.Header.Set("Authorization", "Bearer "+tok)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.method, u.Host, req.path)
	start := time.Now()

	resp, err := c.http.Do(hreq)
	if err != nil {
		hooks.OnError(ctx, req.method, u.Host, req.path, err)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, errs.Wrap(errs.ErrCodeTimeout, err, "%s %s", req.method, req.path)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "%s %s", req.method, req.path)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.method, u.Host, req.path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "read %s %s", req.method, req.path)
	}
	if err := checkStatus(req, resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

func checkStatus(req request, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &APIError{
		Method: req.method,
		Path:   req.path,
		Status: status,
		Detail: detailOf(body),
	}
}

// transient reports whether a failed request may succeed if repeated.
func transient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	return errs.Is(err, errs.ErrCodeNetwork)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// detailOf extracts the backend's error message. FastAPI answers with
// {"detail": "..."} or, for validation failures, {"detail": [...]}.
func detailOf(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return truncate(string(body), 200)
	}
	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		var compact bytes.Buffer
		if json.Compact(&compact, raw) == nil {
			return truncate(compact.String(), 200)
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// getJSON performs a GET and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	data, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	return decode(data, path, v)
}

// send performs a mutating request and returns the raw response body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	data, err := c.do(ctx, request{method: method, path: path, query: query, body: body})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, errs.New(errs.ErrCodeBackend, "%s %s: response is not JSON", method, path)
	}
	return json.RawMessage(data), nil
}

func decode(data []byte, path string, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.ErrCodeBackend, err, "decode %s response", path)
	}
	return nil
}

// cached serves key from the response cache, or fetches, parses, and
// stores it. Bytes are cached only after they parse.
func cached[T any](ctx context.Context, c *Client, kind, key string, ttl time.Duration, fetch func() ([]byte, error), parse func([]byte) (T, error)) (T, error) {
	hooks := observability.Cache()
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		if v, err := parse(data); err == nil {
			hooks.OnCacheHit(ctx, kind)
			return v, nil
		}
		_ = c.cache.Delete(ctx, key)
	}
	hooks.OnCacheMiss(ctx, kind)

	var zero T
	data, err := fetch()
	if err != nil {
		return zero, err
	}
	v, err := parse(data)
	if err != nil {
		return zero, err
	}
	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		c.logger.Debug("cache write failed", "key", kind, "error", err)
	} else {
		hooks.OnCacheSet(ctx, kind, len(data))
	}
	return v, nil
}

// programQuery returns ?carrera=program, or nil for an empty program.
func programQuery(program string) url.Values {
	program = strings.TrimSpace(program)
	if program == "" {
		return nil
	}
	return url.Values{"carrera": {program}}
}
