package pagination

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// StoreConfig holds session lifetimes.
type StoreConfig struct {
	// StaleTime is how long a session's pages are reused. Opening a key whose
	// session is older starts a fresh session.
	StaleTime time.Duration

	// GCTime is how long an unused session is kept before Sweep evicts it.
	GCTime time.Duration
}

// DefaultStoreConfig keeps pages for a day and idle sessions for two.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		StaleTime: 24 * time.Hour,
		GCTime:    48 * time.Hour,
	}
}

// OpenOption configures Store.Open.
type OpenOption[T any] func(*openOptions[T])

type openOptions[T any] struct {
	initial *Page[T]
}

// WithInitialPage seeds a new session with a page the caller already has,
// avoiding a redundant first fetch. Ignored if the session already has pages.
func WithInitialPage[T any](p Page[T]) OpenOption[T] {
	return func(o *openOptions[T]) {
		o.initial = &p
	}
}

// Store holds query sessions keyed by query key. Sessions for different keys
// are independent and may fetch concurrently.
type Store[T any] struct {
	config StoreConfig
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Query[T]
}

// NewStore creates an empty store.
func NewStore[T any](config StoreConfig) *Store[T] {
	if config.StaleTime <= 0 {
		config.StaleTime = 24 * time.Hour
	}
	if config.GCTime <= 0 {
		config.GCTime = 48 * time.Hour
	}
	return &Store[T]{
		config:   config,
		now:      time.Now,
		sessions: make(map[string]*Query[T]),
	}
}

// Open returns the session for src.Key, creating it when absent or stale.
// The returned session fetches with src.Fetch.
func (s *Store[T]) Open(src Source[T], opts ...OpenOption[T]) *Query[T] {
	var o openOptions[T]
	for _, opt := range opts {
		opt(&o)
	}

	key := src.Key.String()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.sessions[key]; ok {
		if sinceCreated, _ := q.ages(now); sinceCreated < s.config.StaleTime {
			q.touch(now)
			return q
		}
		log.Debug().Str("key", key).Msg("Replacing stale query session")
		delete(s.sessions, key)
		Sessions.Dec()
	}

	q := NewQuery(src)
	q.now = s.now
	q.createdAt = now
	q.lastUsed = now
	if o.initial != nil && src.Enabled {
		q.seed(*o.initial)
	}
	s.sessions[key] = q
	Sessions.Inc()

	return q
}

// Invalidate drops the session for key, if any. A fetch still in flight for
// it completes into the detached session and is never observed.
func (s *Store[T]) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key.String()]; ok {
		delete(s.sessions, key.String())
		Sessions.Dec()
	}
}

// Sweep evicts sessions unused for longer than GCTime and returns how many
// were removed.
func (s *Store[T]) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, q := range s.sessions {
		if _, sinceUsed := q.ages(now); sinceUsed > s.config.GCTime {
			delete(s.sessions, key)
			removed++
		}
	}
	Sessions.Sub(float64(removed))

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(s.sessions)).Msg("Swept idle query sessions")
	}
	return removed
}

// Len returns the number of sessions held.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
