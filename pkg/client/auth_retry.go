package client

import (
	"io"
	"net/http"

	"github.com/Sternrassler/cms-client/pkg/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Outcomes of the 401 refresh path.
const (
	retryOutcomeSuccess       = "success"
	retryOutcomeRejected      = "rejected"
	retryOutcomeRefreshFailed = "refresh_failed"
	retryOutcomeError         = "error"
)

var cmsAuthRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cms_auth_retries_total",
	Help: "Total number of 401-triggered retries by outcome",
}, []string{"outcome"})

// RequestFunc sends a single request. (*http.Client).Do satisfies it.
type RequestFunc func(*http.Request) (*http.Response, error)

// WithAuthRetry decorates next with bearer-token injection and a single
// refresh-and-retry on 401.
//
// A failing token lookup is logged and the request goes out without
// credentials. After a 401 the token is force-refreshed and the request is
// sent exactly once more; that second response is returned whatever its
// status. When the forced refresh fails, the original 401 is returned.
func WithAuthRetry(next RequestFunc, tokens auth.TokenProvider, logger zerolog.Logger) RequestFunc {
	return func(req *http.Request) (*http.Response, error) {
		ctx := req.Context()
		endpoint := req.URL.Path

		first := req.Clone(ctx)
		if token, err := tokens.AccessToken(ctx, false); err != nil {
			logger.Error().
				Err(err).
				Str("endpoint", endpoint).
				Msg("Access token fetch failed, sending unauthenticated request")
		} else if token != "" {
			first.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := next(first)
		if err != nil || resp.StatusCode != http.StatusUnauthorized {
			return resp, err
		}

		retry, ok := cloneForRetry(req)
		if !ok {
			logger.Warn().Str("endpoint", endpoint).Msg("Request body cannot be replayed, not retrying 401")
			return resp, nil
		}

		token, err := tokens.AccessToken(ctx, true)
		if err != nil || token == "" {
			cmsAuthRetriesTotal.WithLabelValues(retryOutcomeRefreshFailed).Inc()
			logger.Error().
				Err(err).
				Str("endpoint", endpoint).
				Msg("Forced token refresh failed")
			return resp, nil
		}

		drain(resp)
		retry.Header.Set("Authorization", "Bearer "+token)

		logger.Debug().Str("endpoint", endpoint).Msg("Retrying request after 401 with refreshed token")

		retryResp, err := next(retry)
		switch {
		case err != nil:
			cmsAuthRetriesTotal.WithLabelValues(retryOutcomeError).Inc()
		case retryResp.StatusCode == http.StatusUnauthorized:
			cmsAuthRetriesTotal.WithLabelValues(retryOutcomeRejected).Inc()
			logger.Warn().Str("endpoint", endpoint).Msg("Refreshed token rejected")
		default:
			cmsAuthRetriesTotal.WithLabelValues(retryOutcomeSuccess).Inc()
		}
		return retryResp, err
	}
}

// cloneForRetry copies req with a fresh body. It fails only for requests
// whose body cannot be obtained again.
func cloneForRetry(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
