// Package backend talks to the LawAI REST services: the inference endpoint,
// the case store and the statute catalog.
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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/lawai/internal/model"
	"github.com/ppiankov/lawai/internal/worker"
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string // truncated excerpt
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

const maxErrorBody = 512

// ErrBodyTooLarge is returned when a response exceeds http.max_body_bytes
var ErrBodyTooLarge = errors.New("response body too large")

// Client is a thin JSON-over-HTTP client shared by all LawAI services
type Client struct {
	httpClient *http.Client
	baseURL    string
	catalogURL string
	paths      model.BackendConfig
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLimiter rate-limits requests per host
func WithLimiter(l *worker.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client from configuration
func NewClient(cfg *model.Config, opts ...Option) *Client {
	timeout := cfg.HTTP.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}

	catalogURL := cfg.Backend.CatalogURL
	if catalogURL == "" {
		catalogURL = cfg.Backend.BaseURL
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
			},
		},
		baseURL:    strings.TrimSuffix(cfg.Backend.BaseURL, "/"),
		catalogURL: strings.TrimSuffix(catalogURL, "/"),
		paths:      cfg.Backend,
		userAgent:  cfg.HTTP.UserAgent,
		maxBytes:   maxBytes,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CloseIdleConnections releases pooled connections
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// endpoint joins a base URL and a configured path, falling back to def
func endpoint(base, path, def string) string {
	if path == "" {
		path = def
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// doJSON sends body (if non-nil) as JSON and returns the raw 2xx response body
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	resp, err := c.send(ctx, method, rawURL, reader, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, rawURL, ErrBodyTooLarge, c.maxBytes)
	}
	return data, nil
}

// send performs the request and returns the response for 2xx statuses.
// The caller owns the body.
func (c *Client) send(ctx context.Context, method, rawURL string, body io.Reader, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log := c.logger.With(
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	return resp, nil
}

func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
