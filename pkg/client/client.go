// Package client provides the CMS HTTP client with token auth, a single
// 401 refresh, an optional Redis query cache and typed content operations.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/cms-client/pkg/asseturl"
	"github.com/Sternrassler/cms-client/pkg/auth"
	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Version is reported in the default User-Agent.
const Version = "0.1.0"

// Prometheus metrics for CMS client operations.
var (
	cmsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_requests_total",
		Help: "Total CMS requests by endpoint and status",
	}, []string{"endpoint", "status"})

	cmsRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cms_request_duration_seconds",
		Help:    "CMS request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	cmsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_errors_total",
		Help: "Total CMS errors by class",
	}, []string{"class"})
)

// Endpoint labels. Paths carry ids and types, so metrics use these instead.
const (
	endpointList     = "list"
	endpointDetail   = "detail"
	endpointFile     = "file"
	endpointExternal = "external_file"
)

// placeholderPattern matches unresolved CI/CD template values.
var placeholderPattern = regexp.MustCompile(`^(\$\{[^}]+\}|\$[A-Z_]+|\{\{[^}]+\}\})$`)

// Client is the CMS client. Create one with New; there is no shared default.
type Client struct {
	httpClient  *http.Client
	plainClient *http.Client
	do          RequestFunc
	cache       *cache.Manager
	resolver    asseturl.Resolver
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the CMS API, e.g. "https://cms.example.com/api" (REQUIRED)
	BaseURL string

	// FileBaseURL is the host serving assets. Optional.
	FileBaseURL string

	// Tenant is sent as X-Tenant when set.
	Tenant string

	// APIKey is sent as X-API-Key when set.
	APIKey string

	// Auth supplies bearer tokens. Nil disables the Authorization header.
	Auth auth.TokenProvider

	Timeout   time.Duration
	UserAgent string

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger

	// Redis enables the query cache when set.
	Redis     *redis.Client
	ListTTL   time.Duration
	DetailTTL time.Duration

	// HTTPClient replaces the default client for CMS requests.
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		Timeout:   30 * time.Second,
		UserAgent: "cms-client/" + Version,
		ListTTL:   5 * time.Minute,
		DetailTTL: 10 * time.Minute,
	}
}

// New validates cfg and creates a client.
func New(cfg Config) (*Client, error) {
	baseURL, err := validateBaseURL("BaseURL", cfg.BaseURL, true)
	if err != nil {
		return nil, err
	}
	fileBaseURL, err := validateBaseURL("FileBaseURL", cfg.FileBaseURL, false)
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = baseURL
	cfg.FileBaseURL = fileBaseURL

	defaults := DefaultConfig(baseURL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = defaults.ListTTL
	}
	if cfg.DetailTTL <= 0 {
		cfg.DetailTTL = defaults.DetailTTL
	}

	logger := logging.ComponentLogger(cfg.Logger, logging.ComponentClient)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		httpClient: httpClient,
		plainClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: httpClient.Transport,
		},
		resolver: asseturl.New(baseURL, fileBaseURL),
		config:   cfg,
		logger:   logger,
	}

	c.do = httpClient.Do
	if cfg.Auth != nil {
		c.do = WithAuthRetry(c.do, cfg.Auth, logger)
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// validateBaseURL trims trailing slashes and rejects values that cannot be a
// CMS base URL. An empty optional value is returned as is.
func validateBaseURL(field, raw string, required bool) (string, error) {
	value := strings.TrimRight(strings.TrimSpace(raw), "/")
	if value == "" {
		if required {
			return "", &ConfigError{Field: field, Reason: "is required"}
		}
		return "", nil
	}

	if placeholderPattern.MatchString(value) {
		return "", &ConfigError{Field: field, Value: value, Reason: "looks like an unresolved template variable"}
	}

	u, err := url.Parse(value)
	if err != nil {
		return "", &ConfigError{Field: field, Value: value, Reason: err.Error()}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &ConfigError{Field: field, Value: value, Reason: "must be an absolute http(s) URL"}
	}

	return value, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Resolver returns the asset URL resolver bound to the configured bases.
func (c *Client) Resolver() asseturl.Resolver {
	return c.resolver
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	c.plainClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing). Auth decoration is
// applied again.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
	c.plainClient = &http.Client{Timeout: c.config.Timeout, Transport: client.Transport}
	c.do = client.Do
	if c.config.Auth != nil {
		c.do = WithAuthRetry(c.do, c.config.Auth, c.logger)
	}
}

// GetCache returns the cache manager, nil when caching is off.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

// InvalidateCache drops cached queries of one family, or all content
// queries when kind is empty. Without Redis it is a no-op.
func (c *Client) InvalidateCache(ctx context.Context, kind cache.Kind) (int64, error) {
	if c.cache == nil {
		return 0, nil
	}
	key := cache.ContentKey(c.config.Tenant)
	if kind != "" {
		key = cache.FamilyKey(c.config.Tenant, kind)
	}

	deleted, err := c.cache.InvalidatePrefix(ctx, key)
	if err != nil {
		return deleted, fmt.Errorf("invalidate %s: %w", key, err)
	}
	c.logger.Info().Str("prefix", key.String()).Int64("keys", deleted).Msg("Cache invalidated")
	return deleted, nil
}

// getJSON reads path through the query cache and decodes it into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, key cache.Key, ttl time.Duration, out any) error {
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			if err := json.Unmarshal(entry.Data, out); err == nil {
				c.logger.Debug().Str("endpoint", endpoint).Str("key", key.String()).Msg("Served from cache")
				return nil
			}
			c.logger.Warn().Str("key", key.String()).Msg("Cached entry undecodable, refetching")
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	body, contentType, err := c.fetch(ctx, endpoint, target, true)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	if c.cache != nil {
		entry := cache.NewEntry(body, ttl)
		entry.ContentType = contentType
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
		}
	}
	return nil
}

// fetch performs a GET and returns the body of a 2xx response.
//
// Authenticated requests carry the CMS headers and go through the auth
// decorator; the rest are sent bare through the plain client.
func (c *Client) fetch(ctx context.Context, endpoint, target string, authenticated bool) ([]byte, string, error) {
	startTime := time.Now()
	defer func() {
		cmsRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	send := c.plainClient.Do
	if authenticated {
		c.setHeaders(req)
		send = c.do
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", req.URL.Redacted()).
		Msg("Executing CMS request")

	resp, err := send(req)
	if err != nil {
		cmsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		cmsRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, "", &TransportError{Endpoint: req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	status := strconv.Itoa(resp.StatusCode)
	if err != nil {
		cmsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		cmsRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, "", &TransportError{Endpoint: req.URL.Path, Err: fmt.Errorf("read body: %w", err)}
	}

	cmsRequestsTotal.WithLabelValues(endpoint, status).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		class := classifyStatus(resp.StatusCode)
		if class == "" {
			class = ErrorClassClient
		}
		cmsErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("CMS request error")

		return nil, "", &APIError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Endpoint:   req.URL.Path,
			Body:       body,
		}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Tenant != "" {
		req.Header.Set("X-Tenant", c.config.Tenant)
	}
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}
}
