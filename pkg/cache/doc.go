// Package cache provides a Redis-backed read-through cache for CMS queries.
//
// Keys are hierarchical so whole query families can be dropped at once:
//
//	cms:content                                  every content query
//	cms:content:list                             every list page
//	cms:content:list:NEWS:direction=DESC:...     one list page
//	cms:content:detail:42                        one record
//	cms:content:all:NEWS:...:mode=all            one aggregated query
//
// A tenant adds a segment right after the "cms" root.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.ListKey("", content.ListParams{Type: "NEWS"})
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the CMS, then
//		_ = manager.Set(ctx, key, cache.NewEntry(body, 5*time.Minute))
//	}
//
//	// Drop every cached list page
//	_, _ = manager.InvalidatePrefix(ctx, cache.FamilyKey("", cache.KindList))
//
// # Metrics
//
//   - cms_cache_hits_total{kind} - Cache hits
//   - cms_cache_misses_total{kind} - Cache misses
//   - cms_cache_written_bytes_total - Bytes written
//   - cms_cache_invalidated_keys_total - Keys removed by InvalidatePrefix
//   - cms_cache_errors_total{operation} - Cache operation errors
//
// Callers treat every cache error as a miss; the cache never fails a request.
package cache
