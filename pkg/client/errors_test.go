package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{status: 200, want: ""},
		{status: 304, want: ""},
		{status: 400, want: ErrorClassClient},
		{status: 401, want: ErrorClassAuth},
		{status: 403, want: ErrorClassAuth},
		{status: 404, want: ErrorClassClient},
		{status: 429, want: ErrorClassClient},
		{status: 500, want: ErrorClassServer},
		{status: 503, want: ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.want {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "error with wrapped error",
			apiError: &APIError{
				StatusCode: 500,
				Class:      ErrorClassServer,
				Endpoint:   "/api/content/1",
				Err:        errors.New("upstream timeout"),
			},
			expected: "CMS server error (status 500) on /api/content/1: upstream timeout",
		},
		{
			name: "error without wrapped error",
			apiError: &APIError{
				StatusCode: 404,
				Class:      ErrorClassClient,
				Endpoint:   "/api/content/9",
			},
			expected: "CMS client error (status 404) on /api/content/9: Not Found",
		},
		{
			name: "auth error",
			apiError: &APIError{
				StatusCode: 401,
				Class:      ErrorClassAuth,
				Endpoint:   "/api/content/type/NEWS",
			},
			expected: "CMS auth error (status 401) on /api/content/type/NEWS: Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.apiError.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	apiError := &APIError{StatusCode: 500, Class: ErrorClassServer, Err: wrappedErr}

	if !errors.Is(apiError, wrappedErr) {
		t.Error("errors.Is should work with wrapped error")
	}

	if (&APIError{StatusCode: 404}).Unwrap() != nil {
		t.Error("Unwrap() on error without cause should be nil")
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := error(&TransportError{Endpoint: "/api/content/1", Err: context.DeadlineExceeded})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should see the cause")
	}
	if want := "CMS request to /api/content/1 failed: context deadline exceeded"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConfigError_Error(t *testing.T) {
	if got := (&ConfigError{Field: "BaseURL", Reason: "is required"}).Error(); got != "invalid BaseURL: is required" {
		t.Errorf("Error() = %q", got)
	}
	got := (&ConfigError{Field: "BaseURL", Value: "${CMS}", Reason: "looks like an unresolved template variable"}).Error()
	if want := `invalid BaseURL "${CMS}": looks like an unresolved template variable`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("fetch page 2: %w", &APIError{StatusCode: 404})

	if !IsStatus(err, 404) {
		t.Error("IsStatus should match wrapped APIError")
	}
	if IsStatus(err, 500) {
		t.Error("IsStatus matched wrong status")
	}
	if IsStatus(errors.New("plain"), 404) {
		t.Error("IsStatus matched non-API error")
	}
}
