//go:build integration

package integration

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/cms-client/internal/testutil"
	"github.com/Sternrassler/cms-client/pkg/auth"
	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/content"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const publicHost = "cms.example.com"

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// testTransport sends requests for the public CMS host to the mock server.
type testTransport struct {
	mockServer *testutil.MockCMS
}

func (t *testTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.EqualFold(req.URL.Host, publicHost) {
		req = req.Clone(req.Context())
		req.URL.Scheme = "http"
		req.URL.Host = strings.TrimPrefix(t.mockServer.URL(), "http://")
	}
	return http.DefaultTransport.RoundTrip(req)
}

func newClient(t *testing.T, mock *testutil.MockCMS, redisClient *redis.Client, tokens auth.TokenProvider) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("https://" + publicHost + "/api/")
	cfg.FileBaseURL = "https://" + publicHost
	cfg.Tenant = "acme"
	cfg.Redis = redisClient
	cfg.Auth = tokens

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	c.SetHTTPClient(&http.Client{
		Transport: &testTransport{mockServer: mock},
		Timeout:   30 * time.Second,
	})
	return c
}

func newTokens(t *testing.T, mock *testutil.MockCMS) *auth.ClientCredentials {
	t.Helper()

	tokens, err := auth.NewClientCredentials(auth.ClientCredentialsConfig{
		TokenURL:     mock.TokenURL(),
		ClientID:     "cms-client",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("Failed to create token provider: %v", err)
	}
	return tokens
}

func intPtr(v int) *int { return &v }

// TestFullFlow walks token exchange, 401 refresh, aggregation, normalization,
// caching and download against one mock CMS.
func TestFullFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCMS()
	defer mock.Close()

	// The first issued token is rejected, so the client must refresh once.
	mock.RequireToken("token-2")

	page0 := []content.Record{
		{ID: 1, Title: "Report", Type: "REPORT", CustomFields: content.CustomFields{
			"publication_pdf": "https://" + publicHost + "/api/files/report.pdf",
		}},
	}
	page1 := append(page0, content.Record{ID: 2, Title: "News", Type: "NEWS"})
	mock.SetListPages("ALL",
		testutil.PageBody(page0, 0, intPtr(2)),
		testutil.PageBody(page1, 1, intPtr(2)),
	)
	mock.SetFile("/files/report.pdf", "application/pdf", []byte("%PDF"))

	c := newClient(t, mock, redisClient, newTokens(t, mock))
	ctx := context.Background()

	t.Log("Step 1: aggregate with refresh")
	items, err := c.ListAllNormalized(ctx, content.ListParams{}, 0)
	if err != nil {
		t.Fatalf("ListAllNormalized failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 2 {
		t.Fatalf("items = %+v, want ids [1 2]", items)
	}
	if got := mock.GetTokenRequests(); got != 2 {
		t.Errorf("token requests = %d, want 2", got)
	}

	// 401 + retry for page 0, then page 1 with the refreshed token.
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("CMS requests = %d, want 3", got)
	}

	wantPDF := "https://" + publicHost + "/files/report.pdf"
	if items[0].PDFPath != wantPDF {
		t.Errorf("PDFPath = %q, want %q", items[0].PDFPath, wantPDF)
	}

	t.Log("Step 2: cached aggregate")
	if _, err := c.ListAllNormalized(ctx, content.ListParams{}, 0); err != nil {
		t.Fatalf("cached ListAllNormalized failed: %v", err)
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("CMS requests after cached call = %d, want 3", got)
	}

	t.Log("Step 3: authenticated download")
	data, contentType, err := c.DownloadFile(ctx, items[0].PDFPath)
	if err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if string(data) != "%PDF" || contentType != "application/pdf" {
		t.Errorf("download = %q (%s)", data, contentType)
	}
	if got := mock.GetLastRequestHeader().Get("Authorization"); got != "Bearer token-2" {
		t.Errorf("download Authorization = %q, want %q", got, "Bearer token-2")
	}
	if got := mock.GetLastRequestHeader().Get("X-Tenant"); got != "acme" {
		t.Errorf("download X-Tenant = %q, want acme", got)
	}
}

// TestInvalidation drops the cached families and verifies refetching.
func TestInvalidation(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCMS()
	defer mock.Close()
	mock.SetListPages("NEWS", testutil.PageBody(testutil.Records("NEWS", 1), 0, intPtr(1)))
	mock.SetDetail(content.Record{ID: 1})

	c := newClient(t, mock, redisClient, nil)
	ctx := context.Background()

	if _, err := c.ListContent(ctx, content.ListParams{Type: "NEWS"}); err != nil {
		t.Fatalf("ListContent failed: %v", err)
	}
	if _, err := c.GetContent(ctx, 1); err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}

	deleted, err := c.InvalidateCache(ctx, cache.KindList)
	if err != nil {
		t.Fatalf("InvalidateCache failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if _, err := c.GetContent(ctx, 1); err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if _, err := c.ListContent(ctx, content.ListParams{Type: "NEWS"}); err != nil {
		t.Fatalf("ListContent failed: %v", err)
	}

	// Only the list page was refetched.
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("CMS requests = %d, want 3", got)
	}
}

// TestRefreshFailureSurfaces401 verifies the original 401 is reported when
// the token endpoint cannot issue a replacement.
func TestRefreshFailureSurfaces401(t *testing.T) {
	mock := testutil.NewMockCMS()
	defer mock.Close()
	mock.RequireToken("unreachable")

	calls := 0
	tokens := auth.TokenProviderFunc(func(ctx context.Context, force bool) (string, error) {
		calls++
		if force {
			return "", errors.New("token endpoint unavailable")
		}
		return "stale", nil
	})

	c := newClient(t, mock, nil, tokens)

	_, err := c.GetContent(context.Background(), 1)

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *client.APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
	if calls != 2 {
		t.Errorf("token calls = %d, want 2", calls)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("CMS requests = %d, want 1", got)
	}
}
