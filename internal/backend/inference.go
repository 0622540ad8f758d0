package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/lawai/internal/cache"
	"github.com/ppiankov/lawai/internal/model"
)

// Inference maps a free-text legal query to a raw JSON payload.
// The payload shape is deliberately not interpreted here.
type Inference interface {
	Name() string
	Infer(ctx context.Context, query string) ([]byte, error)
}

type queryRequest struct {
	Query string `json:"query"`
}

// HTTPInference calls the LawAI inference endpoint (POST /encode/)
type HTTPInference struct {
	client   *Client
	endpoint string
}

// NewHTTPInference creates the REST inference provider
func NewHTTPInference(c *Client) *HTTPInference {
	return &HTTPInference{
		client:   c,
		endpoint: endpoint(c.baseURL, c.paths.InferencePath, "/encode/"),
	}
}

// Name returns the provider name
func (h *HTTPInference) Name() string {
	return "http"
}

// Endpoint returns the full inference URL
func (h *HTTPInference) Endpoint() string {
	return h.endpoint
}

// Infer posts {"query": query} and returns the response body
func (h *HTTPInference) Infer(ctx context.Context, query string) ([]byte, error) {
	body, err := h.client.doJSON(ctx, http.MethodPost, h.endpoint, queryRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	return body, nil
}

// CachedInference memoizes successful payloads. Failures are never cached.
type CachedInference struct {
	next   Inference
	cache  cache.Cache
	scope  string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedInference wraps next. scope separates keys of different backends.
func NewCachedInference(next Inference, c cache.Cache, scope string, ttl time.Duration, logger *zap.Logger) *CachedInference {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedInference{
		next:   next,
		cache:  c,
		scope:  scope,
		ttl:    ttl,
		logger: logger,
	}
}

// Name returns the wrapped provider name
func (c *CachedInference) Name() string {
	return c.next.Name()
}

// Infer serves from cache when possible
func (c *CachedInference) Infer(ctx context.Context, query string) ([]byte, error) {
	key := cache.QueryKey(c.scope, query)
	if payload, ok := c.cache.Get(key); ok {
		c.logger.Debug("inference cache hit", zap.String("provider", c.next.Name()))
		return payload, nil
	}

	payload, err := c.next.Infer(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(key, payload, c.ttl); err != nil {
		c.logger.Warn("inference cache write failed", zap.Error(err))
	}
	return payload, nil
}

// NewInference builds the configured provider, wrapped in the cache when
// one is given.
func NewInference(cfg *model.Config, c *Client, store cache.Cache, logger *zap.Logger) (Inference, error) {
	var (
		provider Inference
		scope    string
	)

	switch strings.ToLower(cfg.Inference.Provider) {
	case "", "http", "rest":
		h := NewHTTPInference(c)
		provider, scope = h, h.Endpoint()

	case "openai":
		o, err := NewOpenAIInference(cfg.Inference)
		if err != nil {
			return nil, err
		}
		provider, scope = o, "openai:"+o.model

	default:
		return nil, fmt.Errorf("unknown inference provider: %s (supported: http, openai)", cfg.Inference.Provider)
	}

	if store == nil {
		return provider, nil
	}
	return NewCachedInference(provider, store, scope, cfg.Cache.DiskTTL, logger), nil
}
