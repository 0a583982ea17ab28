// Package cache stores upstream API responses in Redis.
//
// The public drug information services publish slowly changing data and
// every call counts against the daily allowance of the service key, so
// successful JSON responses are kept for a fixed TTL (24h by default).
//
// - Deterministic cache keys (sorted query parameters)
// - The service key is never part of a cache key
// - Fixed TTL per entry, enforced by Redis expiry
// - Prometheus metrics for hits, misses and errors
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint: "DrbEasyDrugInfoService/getDrbEasyDrugList",
//		Params:   url.Values{"itemName": []string{"타이레놀"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from upstream
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp, 24*time.Hour)
//	if err != nil {
//		return err
//	}
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
//	// later, serve the cached copy
//	resp := cache.EntryToResponse(entry)
//
// # Metrics
//
//   - medimatch_cache_hits_total
//   - medimatch_cache_misses_total
//   - medimatch_cache_entry_bytes
//   - medimatch_cache_errors_total{operation}
package cache
