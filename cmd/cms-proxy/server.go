package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/content"
	"github.com/Sternrassler/cms-client/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Query parameters consumed by the proxy itself and never forwarded as
// CMS filters.
var reservedParams = map[string]bool{
	"page":      true,
	"size":      true,
	"sortBy":    true,
	"direction": true,
	"normalize": true,
	"maxPages":  true,
}

type server struct {
	cms     *client.Client
	redis   *redis.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func newServer(cms *client.Client, redisClient *redis.Client, timeout time.Duration, logger zerolog.Logger) *server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &server{cms: cms, redis: redisClient, timeout: timeout, logger: logger}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", healthHandler)
	r.Get("/ready", s.readyHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/content", func(r chi.Router) {
		r.Get("/type/{type}", s.listHandler)
		r.Get("/type/{type}/all", s.allHandler)
		r.Get("/{id}", s.detailHandler)
	})
	r.Get("/files", s.fileHandler)
	r.Delete("/cache", s.invalidateHandler)

	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request served")
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, http.StatusText(http.StatusOK))
}

// readyHandler reports 503 while the configured cache is unreachable.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			render.Status(r, http.StatusServiceUnavailable)
			render.PlainText(w, r, "redis unavailable")
			return
		}
	}
	render.PlainText(w, r, http.StatusText(http.StatusOK))
}

func (s *server) listHandler(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp, err := s.cms.ListContent(ctx, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("normalize") != "true" {
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, content.Envelope[*content.Page[content.Normalized]]{
		Status:  resp.Status,
		Message: resp.Message,
		Data:    s.normalizePage(resp.Data),
	})
}

func (s *server) normalizePage(page *content.Page[content.Record]) *content.Page[content.Normalized] {
	if page == nil {
		return nil
	}
	out := &content.Page[content.Normalized]{
		Content:          make([]content.Normalized, 0, len(page.Content)),
		Number:           page.Number,
		Size:             page.Size,
		NumberOfElements: page.NumberOfElements,
		TotalElements:    page.TotalElements,
		TotalPages:       page.TotalPages,
		First:            page.First,
		Last:             page.Last,
		Empty:            page.Empty,
	}
	for _, rec := range page.Content {
		out.Content = append(out.Content, s.cms.Normalize(rec))
	}
	return out
}

func (s *server) allHandler(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	maxPages, err := intParam(r, "maxPages")
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	items, err := s.cms.ListAllNormalized(ctx, params, maxPages)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, content.Envelope[[]content.Normalized]{
		Status: content.StatusSuccess,
		Data:   items,
	})
}

func (s *server) detailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.badRequest(w, r, "invalid content ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp, err := s.cms.GetContent(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := content.Envelope[*content.Normalized]{Status: resp.Status, Message: resp.Message}
	if resp.Data != nil {
		n := s.cms.Normalize(*resp.Data)
		out.Data = &n
	}
	render.JSON(w, r, out)
}

func (s *server) fileHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		s.badRequest(w, r, "path is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	data, contentType, err := s.cms.DownloadFile(ctx, path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write file response")
	}
}

func (s *server) invalidateHandler(w http.ResponseWriter, r *http.Request) {
	kind := cache.Kind(r.URL.Query().Get("kind"))
	switch kind {
	case "", cache.KindList, cache.KindDetail, cache.KindAll:
	default:
		s.badRequest(w, r, "kind must be list, detail or all")
		return
	}

	deleted, err := s.cms.InvalidateCache(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]int64{"deleted": deleted})
}

// listParams builds list parameters from the query string. Unreserved
// parameters become filters.
func listParams(r *http.Request) (content.ListParams, error) {
	q := r.URL.Query()
	params := content.ListParams{
		Type:      chi.URLParam(r, "type"),
		SortBy:    q.Get("sortBy"),
		Direction: content.Direction(strings.ToUpper(q.Get("direction"))),
	}

	var err error
	if params.Page, err = intParam(r, "page"); err != nil {
		return params, err
	}
	if params.PageSize, err = intParam(r, "size"); err != nil {
		return params, err
	}

	for key, values := range q {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		if params.Filters == nil {
			params.Filters = make(map[string]any)
		}
		params.Filters[key] = values[0]
	}
	return params, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

func (s *server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, content.Envelope[any]{Status: content.StatusFailure, Message: msg})
}

// writeError maps client errors to proxy responses. A CMS 404 stays a 404;
// any other upstream failure is a bad gateway.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var apiErr *client.APIError
	var transportErr *client.TransportError
	switch {
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		if apiErr.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
	case errors.As(err, &transportErr):
		status = http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
	}

	s.logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")

	render.Status(r, status)
	render.JSON(w, r, content.Envelope[any]{Status: content.StatusFailure, Message: err.Error()})
}
