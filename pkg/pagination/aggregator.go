package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/cms-client/pkg/content"
	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxPages caps the number of fetches of one aggregation.
	DefaultMaxPages = 20

	// DefaultPageSize is the page size requested when the caller sets none.
	DefaultPageSize = 100
)

// Stop reasons, used as metric labels and log fields.
const (
	StopNoData     = "no_data"
	StopEmptyPage  = "empty_page"
	StopNoNewItems = "no_new_items"
	StopLastPage   = "last_page"
	StopMaxPages   = "max_pages"
	StopError      = "error"
)

// ErrInvalidOptions is returned when Options cannot be defaulted for T and K.
var ErrInvalidOptions = errors.New("invalid aggregation options")

var (
	cmsAggregationPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_aggregation_pages_total",
		Help: "Total number of pages fetched by the aggregator",
	})

	cmsAggregationStopsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_aggregation_stops_total",
		Help: "Total number of finished aggregations by stop reason",
	}, []string{"reason"})

	cmsAggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cms_aggregation_duration_seconds",
		Help:    "Duration of a full aggregation in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// PageFetcher fetches a single page of a list endpoint.
type PageFetcher interface {
	FetchPage(ctx context.Context, params content.ListParams) (*content.ListResponse, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, params content.ListParams) (*content.ListResponse, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, params content.ListParams) (*content.ListResponse, error) {
	return f(ctx, params)
}

// Keyed is implemented by items that carry their own dedupe key.
type Keyed[K comparable] interface {
	DedupeKey() K
}

// Options controls one aggregation.
type Options[T any, K comparable] struct {
	// Map converts each raw record. Defaults to identity, which requires T
	// to be content.Record.
	Map func(content.Record) T

	// KeyOf extracts the dedupe key from a mapped item. Defaults to
	// DedupeKey, which requires T to implement Keyed[K].
	KeyOf func(T) K

	// MaxPages caps the number of fetches. Defaults to DefaultMaxPages.
	MaxPages int

	// Logger receives aggregation progress. Defaults to the global logger.
	Logger *zerolog.Logger
}

func (o Options[T, K]) withDefaults() (Options[T, K], error) {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}

	if o.Map == nil {
		var zero T
		if _, ok := any(zero).(content.Record); !ok {
			return o, fmt.Errorf("%w: Map is required when items are %T", ErrInvalidOptions, zero)
		}
		o.Map = func(rec content.Record) T {
			return any(rec).(T)
		}
	}

	if o.KeyOf == nil {
		var zero T
		if _, ok := any(zero).(Keyed[K]); !ok {
			var key K
			return o, fmt.Errorf("%w: KeyOf is required, %T has no DedupeKey() %T", ErrInvalidOptions, zero, key)
		}
		o.KeyOf = func(item T) K {
			return any(item).(Keyed[K]).DedupeKey()
		}
	}

	return o, nil
}

// Aggregate fetches pages starting at 0 and returns every distinct mapped
// item in first-seen order. params.Page is ignored.
//
// The first item with a given key wins; later duplicates are dropped. An
// empty result is not an error. Any fetch error aborts the aggregation.
func Aggregate[T any, K comparable](ctx context.Context, fetcher PageFetcher, params content.ListParams, opts Options[T, K]) ([]T, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		cmsAggregationDuration.Observe(time.Since(start).Seconds())
	}()

	logger := logging.ComponentLogger(opts.Logger, logging.ComponentPagination)

	if params.PageSize <= 0 {
		params.PageSize = DefaultPageSize
	}
	params = params.Normalized()
	requestedSize := params.PageSize

	acc := newAccumulator[T, K]()
	page := 0
	reason := StopMaxPages

	for i := 0; i < opts.MaxPages; i++ {
		req := params
		req.Page = page

		resp, err := fetcher.FetchPage(ctx, req)
		cmsAggregationPagesTotal.Inc()
		if err != nil {
			cmsAggregationStopsTotal.WithLabelValues(StopError).Inc()
			logger.Warn().
				Err(err).
				Str("type", params.Type).
				Int("page", page).
				Msg("Page fetch failed, aborting aggregation")
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		if resp == nil || resp.Data == nil {
			reason = StopNoData
			break
		}
		data := resp.Data

		if len(data.Content) == 0 {
			reason = StopEmptyPage
			break
		}

		added := 0
		for _, rec := range data.Content {
			item := opts.Map(rec)
			if acc.add(opts.KeyOf(item), item) {
				added++
			}
		}

		logger.Debug().
			Int("page", page).
			Int("items", len(data.Content)).
			Int("added", added).
			Msg("Page aggregated")

		if added == 0 {
			reason = StopNoNewItems
			break
		}

		current, more := nextPage(data, page, requestedSize)
		if !more {
			reason = StopLastPage
			break
		}
		page = current + 1
	}

	cmsAggregationStopsTotal.WithLabelValues(reason).Inc()
	logger.Debug().
		Str("type", params.Type).
		Str("reason", reason).
		Int("items", acc.count()).
		Dur("duration", time.Since(start)).
		Msg("Aggregation complete")

	return acc.values(), nil
}

// nextPage reports the page index the backend considers current and whether
// another page should be fetched.
//
// The first metadata signal present decides, in this order: totalPages,
// totalElements, last, and finally "the page was full". The last one is a
// guess: an exactly full final page costs one extra fetch, which then stops
// on the empty-page check.
func nextPage[R any](data *content.Page[R], localPage, requestedSize int) (current int, more bool) {
	current = localPage
	if data.Number != nil {
		current = *data.Number
	}

	size := requestedSize
	if data.Size != nil {
		size = *data.Size
	}

	itemsInPage := len(data.Content)
	if data.NumberOfElements != nil {
		itemsInPage = *data.NumberOfElements
	}

	switch {
	case data.TotalPages != nil:
		more = current+1 < *data.TotalPages
	case data.TotalElements != nil:
		more = int64(current)*int64(size)+int64(itemsInPage) < *data.TotalElements
	case data.Last != nil:
		more = !*data.Last
	default:
		more = itemsInPage == size
	}
	return current, more
}

// accumulator is an insertion-ordered set of mapped items.
type accumulator[T any, K comparable] struct {
	seen  map[K]struct{}
	items []T
}

func newAccumulator[T any, K comparable]() *accumulator[T, K] {
	return &accumulator[T, K]{seen: make(map[K]struct{})}
}

// add stores item unless key is already known and reports whether it did.
func (a *accumulator[T, K]) add(key K, item T) bool {
	if _, ok := a.seen[key]; ok {
		return false
	}
	a.seen[key] = struct{}{}
	a.items = append(a.items, item)
	return true
}

func (a *accumulator[T, K]) count() int {
	return len(a.items)
}

func (a *accumulator[T, K]) values() []T {
	if a.items == nil {
		return []T{}
	}
	return a.items
}
