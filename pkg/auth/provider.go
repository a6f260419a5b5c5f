// Package auth provides access-token sources for the CMS client.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyToken is returned when a token source yields no token.
var ErrEmptyToken = errors.New("empty access token")

// TokenProvider yields bearer tokens for CMS requests.
//
// With forceRefresh set the provider must not answer from a cache; the client
// uses it after a 401.
type TokenProvider interface {
	AccessToken(ctx context.Context, forceRefresh bool) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context, forceRefresh bool) (string, error)

// AccessToken calls f.
func (f TokenProviderFunc) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	return f(ctx, forceRefresh)
}

// Static always returns the same token. Forced refreshes return it as well.
type Static string

// AccessToken returns the static token.
func (s Static) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	if s == "" {
		return "", ErrEmptyToken
	}
	return string(s), nil
}

// TokenError reports a failed credential exchange.
type TokenError struct {
	TokenURL string
	Err      error
}

// Error implements the error interface.
func (e *TokenError) Error() string {
	return fmt.Sprintf("token exchange with %s failed: %v", e.TokenURL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TokenError) Unwrap() error {
	return e.Err
}

// FromConfig picks a provider: client credentials when a token URL is set,
// otherwise the static token. With neither it returns nil, meaning requests
// go out unauthenticated.
func FromConfig(cfg ClientCredentialsConfig, staticToken string) (TokenProvider, error) {
	switch {
	case cfg.TokenURL != "":
		cc, err := NewClientCredentials(cfg)
		if err != nil {
			return nil, err
		}
		return cc, nil
	case staticToken != "":
		return Static(staticToken), nil
	default:
		return nil, nil
	}
}
