package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultTTL matches the daily revalidation window of the web front end.
	DefaultTTL = 24 * time.Hour

	// HeaderCache marks responses served from the cache.
	HeaderCache = "X-Cache"
)

// ResponseToEntry converts an HTTP response to a CacheEntry that expires
// after ttl (DefaultTTL if ttl <= 0). The response body is restored after
// reading.
func ResponseToEntry(resp *http.Response, ttl time.Duration) (*CacheEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	headers := http.Header{}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}

	return &CacheEntry{
		Data:       body,
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Expires:    now.Add(ttl),
		CachedAt:   now,
	}, nil
}

// EntryToResponse rebuilds an HTTP response from a cache entry. The
// response carries X-Cache: HIT and an Age header.
func EntryToResponse(entry *CacheEntry) *http.Response {
	header := entry.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(HeaderCache, "HIT")
	header.Set("Age", strconv.Itoa(int(entry.Age().Seconds())))

	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
	}
}
