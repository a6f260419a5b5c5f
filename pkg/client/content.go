package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Sternrassler/cms-client/pkg/asseturl"
	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/content"
	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// ListContent fetches one page of content of params.Type.
func (c *Client) ListContent(ctx context.Context, params content.ListParams) (*content.ListResponse, error) {
	p := params.Normalized()

	var resp content.ListResponse
	key := cache.ListKey(c.config.Tenant, p)
	if err := c.getJSON(ctx, endpointList, p.Path(), p.Query(), key, c.config.ListTTL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchPage implements pagination.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, params content.ListParams) (*content.ListResponse, error) {
	return c.ListContent(ctx, params)
}

// GetContent fetches a single record.
func (c *Client) GetContent(ctx context.Context, id int64) (*content.DetailResponse, error) {
	var resp content.DetailResponse
	path := "/content/" + strconv.FormatInt(id, 10)
	key := cache.DetailKey(c.config.Tenant, id)
	if err := c.getJSON(ctx, endpointDetail, path, nil, key, c.config.DetailTTL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAllContent returns every record of params.Type across all pages,
// deduplicated by id. maxPages <= 0 uses pagination.DefaultMaxPages.
func (c *Client) ListAllContent(ctx context.Context, params content.ListParams, maxPages int) ([]content.Record, error) {
	key := c.allKey(params, maxPages, "raw")
	return cachedAggregate(ctx, c, key, func() ([]content.Record, error) {
		return pagination.Aggregate(ctx, c, params, pagination.Options[content.Record, int64]{
			MaxPages: maxPages,
			Logger:   c.config.Logger,
		})
	})
}

// ListAllNormalized is ListAllContent with every record normalized against
// the configured bases.
func (c *Client) ListAllNormalized(ctx context.Context, params content.ListParams, maxPages int) ([]content.Normalized, error) {
	key := c.allKey(params, maxPages, "normalized")
	return cachedAggregate(ctx, c, key, func() ([]content.Normalized, error) {
		return pagination.Aggregate(ctx, c, params, pagination.Options[content.Normalized, int64]{
			Map:      c.Normalize,
			MaxPages: maxPages,
			Logger:   c.config.Logger,
		})
	})
}

// AssetURL resolves raw against the configured bases.
func (c *Client) AssetURL(raw string) string {
	return c.resolver.Resolve(raw)
}

// Normalize projects rec onto the fixed shape using the configured bases.
func (c *Client) Normalize(rec content.Record) content.Normalized {
	return content.Normalize(rec, c.resolver)
}

// DownloadFile fetches a file and returns its body and content type.
//
// Relative paths are resolved first. Only URLs on the API or file base get
// the CMS headers and credentials; anything else is fetched anonymously.
func (c *Client) DownloadFile(ctx context.Context, path string) ([]byte, string, error) {
	target := path
	if !asseturl.IsAbsolute(path) {
		target = c.resolver.Resolve(path)
	}
	if target == "" {
		return nil, "", fmt.Errorf("download: empty path")
	}

	if c.resolver.Owns(target) {
		return c.fetch(ctx, endpointFile, target, true)
	}

	c.logger.Debug().Str("url", target).Msg("Downloading external file without credentials")
	return c.fetch(ctx, endpointExternal, target, false)
}

func (c *Client) allKey(params content.ListParams, maxPages int, view string) cache.Key {
	if params.PageSize <= 0 {
		params.PageSize = pagination.DefaultPageSize
	}
	if maxPages <= 0 {
		maxPages = pagination.DefaultMaxPages
	}
	key := cache.AllKey(c.config.Tenant, params, maxPages)
	key.Params.Set("view", view)
	return key
}

// cachedAggregate serves an aggregated result from the query cache or runs
// fetch and stores its result.
func cachedAggregate[T any](ctx context.Context, c *Client, key cache.Key, fetch func() ([]T, error)) ([]T, error) {
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			var items []T
			if err := json.Unmarshal(entry.Data, &items); err == nil && items != nil {
				return items, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
	}

	items, err := fetch()
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		data, err := json.Marshal(items)
		if err == nil {
			err = c.cache.Set(ctx, key, cache.NewEntry(data, c.config.ListTTL))
		}
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache aggregate")
		}
	}
	return items, nil
}
