// Package testutil provides testing utilities for the CMS client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/cms-client/pkg/content"
)

// TokenPath is where the mock serves OAuth2 client-credentials tokens.
const TokenPath = "/oauth/token"

// MockCMSResponse defines the behavior for a mock CMS endpoint response.
type MockCMSResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCMS is a configurable mock CMS server for testing.
//
// The API lives under /api; anything else is treated as a file host.
type MockCMS struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// requiredToken, when set, must be presented as a bearer token on /api.
	requiredToken string
	tokenCount    int
	tokenTTL      int

	// Tracking
	RequestCount      int
	TokenRequests     int
	Paths             []string
	LastRequestHeader http.Header
}

// NewMockCMS creates a new mock CMS server.
func NewMockCMS() *MockCMS {
	mock := &MockCMS{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		tokenTTL: 3600,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == TokenPath {
			mock.tokenHandler(w, r)
			return
		}

		mock.mu.Lock()
		mock.RequestCount++
		mock.Paths = append(mock.Paths, r.URL.RequestURI())
		mock.LastRequestHeader = r.Header.Clone()
		required := mock.requiredToken
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if required != "" && strings.HasPrefix(r.URL.Path, "/api/") &&
			r.Header.Get("Authorization") != "Bearer "+required {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status":"FAILURE","message":"Unauthorized"}`))
			return
		}

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"FAILURE","message":"Not found"}`))
	}))

	return mock
}

// URL returns the mock server origin.
func (m *MockCMS) URL() string {
	return m.server.URL
}

// APIBase returns the API base URL, i.e. URL() + "/api".
func (m *MockCMS) APIBase() string {
	return m.server.URL + "/api"
}

// TokenURL returns the client-credentials token endpoint.
func (m *MockCMS) TokenURL() string {
	return m.server.URL + TokenPath
}

// Close shuts down the mock server.
func (m *MockCMS) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCMS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.TokenRequests = 0
	m.Paths = nil
	m.LastRequestHeader = nil
}

// RequireToken makes /api reject requests without "Bearer token".
// The token endpoint hands out "token-1", "token-2", ... in order.
func (m *MockCMS) RequireToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requiredToken = token
}

// SetTokenTTL sets expires_in for issued tokens.
func (m *MockCMS) SetTokenTTL(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenTTL = seconds
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCMS) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockCMS) SetResponse(path string, resp MockCMSResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetListPages serves pages of contentType by the "page" query parameter.
// Pages past the end are served empty.
func (m *MockCMS) SetListPages(contentType string, pages ...string) {
	m.SetHandler("/api/content/type/"+contentType, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		if page < 0 || page >= len(pages) {
			w.Write([]byte(PageBody(nil, page, nil)))
			return
		}
		w.Write([]byte(pages[page]))
	})
}

// SetDetail serves rec under /api/content/{id}.
func (m *MockCMS) SetDetail(rec content.Record) {
	body, err := json.Marshal(content.DetailResponse{Status: content.StatusSuccess, Data: &rec})
	if err != nil {
		panic(err)
	}
	m.SetResponse(fmt.Sprintf("/api/content/%d", rec.ID), NewHealthyResponse(string(body)))
}

// SetFile serves a file at path with the given content type.
func (m *MockCMS) SetFile(path, contentType string, data []byte) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(data)
	})
}

// GetRequestCount returns the number of non-token requests.
func (m *MockCMS) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetTokenRequests returns the number of token exchanges.
func (m *MockCMS) GetTokenRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TokenRequests
}

// GetPaths returns the request URIs seen so far.
func (m *MockCMS) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.Paths...)
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockCMS) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Clone()
}

func (m *MockCMS) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unsupported_grant_type"}`))
		return
	}

	m.mu.Lock()
	m.TokenRequests++
	m.tokenCount++
	n, ttl := m.tokenCount, m.tokenTTL
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"bearer","expires_in":%d}`, n, ttl)
}

// Records builds minimal records for the given ids.
func Records(contentType string, ids ...int64) []content.Record {
	out := make([]content.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, content.Record{
			ID:    id,
			Title: fmt.Sprintf("Item %d", id),
			Type:  contentType,
		})
	}
	return out
}

// PageBody renders a successful list envelope. totalPages is omitted when nil.
func PageBody(records []content.Record, page int, totalPages *int) string {
	if records == nil {
		records = []content.Record{}
	}
	number := page
	size := len(records)
	resp := content.ListResponse{
		Status: content.StatusSuccess,
		Data: &content.Page[content.Record]{
			Content:    records,
			Number:     &number,
			TotalPages: totalPages,
		},
	}
	if size > 0 {
		resp.Data.NumberOfElements = &size
	}

	body, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	return string(body)
}

// NewHealthyResponse creates a standard 200 OK JSON response.
func NewHealthyResponse(data string) MockCMSResponse {
	return MockCMSResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUnauthorizedResponse creates a 401 response.
func NewUnauthorizedResponse() MockCMSResponse {
	return MockCMSResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"status":"FAILURE","message":"Unauthorized"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockCMSResponse {
	return MockCMSResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status":"FAILURE","message":"Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
