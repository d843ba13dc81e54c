// internal/common/http/client.go
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"f1-previews/internal/common/logger"
	"f1-previews/internal/common/metrics"
)

// Cache stores raw upstream bodies. *database.RedisClient satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Client is a JSON GET client for the public race-data APIs.
type Client struct {
	httpClient *http.Client
	source     string
	cache      Cache
	cacheTTL   time.Duration
	logger     logger.Logger
}

type Option func(*Client)

// WithCache serves repeated GETs from cache for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

func NewClient(source string, timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		source:     source,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.get(ctx, url)
	if err != nil {
		metrics.UpstreamFetchFailures.WithLabelValues(c.source).Inc()
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.UpstreamFetchFailures.WithLabelValues(c.source).Inc()
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	cacheKey := "http-cache:" + url
	if c.cache != nil {
		if cached, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
			c.logger.Debug("upstream cache hit", map[string]interface{}{"url": url})
			return []byte(cached), nil
		} else if err != nil {
			c.logger.Warn("upstream cache read failed", map[string]interface{}{"url": url, "error": err.Error()})
		}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamFetchDuration.WithLabelValues(c.source).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	if c.cache != nil && json.Valid(body) {
		if err := c.cache.SetWithTTL(ctx, cacheKey, string(body), c.cacheTTL); err != nil {
			c.logger.Warn("upstream cache write failed", map[string]interface{}{"url": url, "error": err.Error()})
		}
	}
	return body, nil
}
