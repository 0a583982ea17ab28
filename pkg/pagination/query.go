package pagination

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Source describes one paginated result set: the query key identifying it,
// whether it may be fetched at all, and how to fetch a page.
type Source[T any] struct {
	// Key identifies the result set, built from the search parameters.
	Key Key

	// Feed labels metrics and logs (e.g. "search", "ingredient").
	Feed string

	// Enabled is false when the parameters are missing or invalid. A
	// disabled query never calls Fetch.
	Enabled bool

	Fetch PageFunc[T]
}

// Key is the tuple of parameters identifying a result set.
type Key []string

// String returns the canonical form used to index sessions.
func (k Key) String() string {
	return strings.Join(k, "\x1f")
}

// State is a snapshot of a query session.
type State[T any] struct {
	// Items is the flattened view across all fetched pages, in fetch order.
	Items []T

	Pages []Page[T]

	// IsFetching is true while a page fetch is outstanding.
	IsFetching bool

	// Err is the error of the last failed fetch, cleared by a success.
	Err error

	HasNextPage bool

	// Disabled is true for sources without a valid query.
	Disabled bool
}

// Query is one session over a paginated result set. At most one page fetch
// is in flight at a time; concurrent FetchNext calls return immediately.
type Query[T any] struct {
	source Source[T]

	mu         sync.Mutex
	pages      []Page[T]
	fetching   bool
	err        error
	generation uint64
	createdAt  time.Time
	lastUsed   time.Time
	now        func() time.Time
}

// NewQuery creates a session for src. Most callers obtain sessions from a
// Store instead.
func NewQuery[T any](src Source[T]) *Query[T] {
	now := time.Now()
	return &Query[T]{source: src, createdAt: now, lastUsed: now, now: time.Now}
}

// Key returns the session's query key.
func (q *Query[T]) Key() Key {
	return q.source.Key
}

// seed installs an initial page without fetching it.
func (q *Query[T]) seed(p Page[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pages) == 0 {
		q.pages = append(q.pages, p)
	}
}

// FetchNext fetches the page after the last fetched one. It is a no-op
// returning nil when the source is disabled, a fetch is already in flight,
// or no further page exists. On failure the error is recorded and returned
// and the cursor stays put, so the next call retries the same page.
func (q *Query[T]) FetchNext(ctx context.Context) error {
	q.mu.Lock()
	if !q.source.Enabled || q.fetching || !q.hasNextLocked() {
		q.mu.Unlock()
		return nil
	}
	pageNo := q.nextPageNoLocked()
	gen := q.generation
	q.fetching = true
	q.lastUsed = q.now()
	q.mu.Unlock()

	logger := log.With().
		Str("feed", q.source.Feed).
		Str("key", q.source.Key.String()).
		Int("page", pageNo).
		Logger()

	page, err := q.source.Fetch(ctx, pageNo)

	q.mu.Lock()
	defer q.mu.Unlock()

	if gen != q.generation {
		// Reset while the request was outstanding; the reset cleared fetching.
		PageFetches.WithLabelValues(q.source.Feed, "stale").Inc()
		logger.Debug().Msg("Discarding page fetched before reset")
		return nil
	}
	q.fetching = false

	if err != nil {
		q.err = err
		PageFetches.WithLabelValues(q.source.Feed, "error").Inc()
		logger.Warn().Err(err).Msg("Page fetch failed")
		return err
	}

	q.err = nil
	q.pages = append(q.pages, page)
	PageFetches.WithLabelValues(q.source.Feed, "ok").Inc()
	logger.Debug().
		Int("items", len(page.Items)).
		Int("total_count", page.TotalCount).
		Msg("Page fetched")

	return nil
}

// Reset discards fetched pages and any error. A fetch in flight at the time
// of the reset is ignored when it completes.
func (q *Query[T]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pages = nil
	q.err = nil
	q.fetching = false
	q.generation++
	q.createdAt = q.now()
}

// State returns a snapshot of the session.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	pages := make([]Page[T], len(q.pages))
	copy(pages, q.pages)

	return State[T]{
		Items:       Flatten(pages),
		Pages:       pages,
		IsFetching:  q.fetching,
		Err:         q.err,
		HasNextPage: q.source.Enabled && q.hasNextLocked(),
		Disabled:    !q.source.Enabled,
	}
}

// hasNextLocked is true before the first page and afterwards follows the
// last fetched page's metadata.
func (q *Query[T]) hasNextLocked() bool {
	if len(q.pages) == 0 {
		return true
	}
	return HasNextPage(q.pages[len(q.pages)-1])
}

func (q *Query[T]) nextPageNoLocked() int {
	if len(q.pages) == 0 {
		return 1
	}
	next, _ := NextPageNo(q.pages[len(q.pages)-1])
	return next
}

func (q *Query[T]) touch(now time.Time) {
	q.mu.Lock()
	q.lastUsed = now
	q.mu.Unlock()
}

func (q *Query[T]) ages(now time.Time) (sinceCreated, sinceUsed time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return now.Sub(q.createdAt), now.Sub(q.lastUsed)
}
