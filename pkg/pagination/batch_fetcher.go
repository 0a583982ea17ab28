package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	// The upstream service key has a daily call allowance, keep this small.
	MaxConcurrency int

	// Timeout per page fetch
	Timeout time.Duration

	// MaxPages caps how many pages are fetched in total (0 = no cap).
	MaxPages int
}

// DefaultConfig returns a conservative configuration for the upstream API.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		MaxPages:       50,
	}
}

// BatchFetcher fetches every page of a result set, the remaining pages in
// parallel once page 1 has revealed the page count.
type BatchFetcher[T any] struct {
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &BatchFetcher[T]{config: config}
}

// FetchAll fetches all pages of a result set. If first is non-nil it is used
// as page 1 instead of fetching it. Pages are returned ordered by page
// number. When a page fails, the pages fetched so far are returned together
// with the error.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, fetch PageFunc[T], first *Page[T]) ([]Page[T], error) {
	start := time.Now()

	var firstPage Page[T]
	if first != nil {
		firstPage = *first
	} else {
		p, err := bf.fetchPage(ctx, fetch, 1)
		if err != nil {
			return nil, fmt.Errorf("fetch first page: %w", err)
		}
		firstPage = p
	}

	totalPages := firstPage.TotalPages()
	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		log.Warn().
			Int("total_pages", totalPages).
			Int("max_pages", bf.config.MaxPages).
			Msg("Result set exceeds page cap, truncating")
		totalPages = bf.config.MaxPages
	}

	if totalPages <= 1 {
		log.Debug().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return []Page[T]{firstPage}, nil
	}

	log.Info().
		Int("total_pages", totalPages).
		Int("concurrency", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	var mu sync.Mutex
	pages := []Page[T]{firstPage}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for pageNo := 2; pageNo <= totalPages; pageNo++ {
		pageNo := pageNo
		g.Go(func() error {
			p, err := bf.fetchPage(gctx, fetch, pageNo)
			if err != nil {
				log.Warn().Err(err).Int("page", pageNo).Msg("Page fetch failed")
				return fmt.Errorf("page %d: %w", pageNo, err)
			}
			mu.Lock()
			pages = append(pages, p)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNo < pages[j].PageNo })

	if err != nil {
		return pages, fmt.Errorf("partial data: %d/%d pages: %w", len(pages), totalPages, err)
	}

	log.Info().
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return pages, nil
}

// fetchPage fetches a single page with the per-page timeout.
func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, fetch PageFunc[T], pageNo int) (Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return fetch(pageCtx, pageNo)
}
