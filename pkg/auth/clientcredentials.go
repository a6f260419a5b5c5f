package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// DefaultSafetyMargin is subtracted from a token's expiry before it is
// considered stale.
const DefaultSafetyMargin = 10 * time.Second

var (
	cmsTokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_token_refreshes_total",
		Help: "Total number of token exchanges by result",
	}, []string{"result"})

	cmsTokenRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cms_token_refresh_duration_seconds",
		Help:    "Duration of token exchanges in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// ClientCredentialsConfig holds the OAuth2 client-credentials settings.
type ClientCredentialsConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// SafetyMargin defaults to DefaultSafetyMargin.
	SafetyMargin time.Duration

	// HTTPClient is used for the token endpoint. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger defaults to the global logger.
	Logger *zerolog.Logger
}

// ClientCredentials fetches and caches tokens from an OAuth2 token endpoint.
//
// Concurrent callers that need a new token share a single exchange.
type ClientCredentials struct {
	cfg    clientcredentials.Config
	margin time.Duration
	http   *http.Client
	logger zerolog.Logger
	now    func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCredentials validates cfg and returns a provider.
func NewClientCredentials(cfg ClientCredentialsConfig) (*ClientCredentials, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("token URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}

	margin := cfg.SafetyMargin
	if margin <= 0 {
		margin = DefaultSafetyMargin
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := logging.ComponentLogger(cfg.Logger, logging.ComponentAuth)

	return &ClientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		margin: margin,
		http:   httpClient,
		logger: logger,
		now:    time.Now,
	}, nil
}

// AccessToken returns a cached token unless it is about to expire or
// forceRefresh is set.
func (c *ClientCredentials) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
	}

	ch := c.group.DoChan("token", func() (any, error) {
		return c.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token.
func (c *ClientCredentials) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

func (c *ClientCredentials) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil || c.token.AccessToken == "" {
		return "", false
	}
	// A token without expires_in has a zero Expiry and is never reused.
	if c.token.Expiry.IsZero() || !c.now().Add(c.margin).Before(c.token.Expiry) {
		return "", false
	}
	return c.token.AccessToken, true
}

func (c *ClientCredentials) exchange(ctx context.Context) (string, error) {
	start := time.Now()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.cfg.Token(ctx)
	cmsTokenRefreshDuration.Observe(time.Since(start).Seconds())

	if err == nil && tok.AccessToken == "" {
		err = ErrEmptyToken
	}
	if err != nil {
		cmsTokenRefreshesTotal.WithLabelValues("failure").Inc()

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			c.logger.Error().
				Int("status", retrieveErr.Response.StatusCode).
				Str("error_code", retrieveErr.ErrorCode).
				Msg("Token endpoint rejected credentials")
		} else {
			c.logger.Error().Err(err).Msg("Token exchange failed")
		}
		return "", &TokenError{TokenURL: c.cfg.TokenURL, Err: err}
	}

	cmsTokenRefreshesTotal.WithLabelValues("success").Inc()

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	c.logger.Debug().
		Time("expiry", tok.Expiry).
		Dur("duration", time.Since(start)).
		Msg("Access token refreshed")

	return tok.AccessToken, nil
}
