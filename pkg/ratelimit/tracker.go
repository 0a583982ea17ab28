package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "medimatch_quota_used",
		Help: "Upstream requests issued in the current service day",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medimatch_quota_blocks_total",
		Help: "Total number of requests blocked because the daily quota is used up",
	})

	quotaExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medimatch_quota_exhausted_total",
		Help: "Total number of times upstream reported the request limit as exceeded",
	})
)

// keyGrace keeps counters around a little past the reset so a late State
// call still sees the closing value.
const keyGrace = time.Hour

// Tracker counts upstream requests per service day and gates requests once
// the allowance is used up.
type Tracker struct {
	redis  *redis.Client
	limit  int64
	logger zerolog.Logger
	now    func() time.Time
}

// NewTracker creates a new quota tracker. A limit <= 0 counts requests
// without ever blocking them, unless upstream reports the limit exceeded.
func NewTracker(redisClient *redis.Client, limit int64, logger zerolog.Logger) *Tracker {
	if limit < 0 {
		limit = 0
	}
	return &Tracker{
		redis:  redisClient,
		limit:  limit,
		logger: logger,
		now:    time.Now,
	}
}

func counterKey(day string) string   { return RedisKeyPrefix + day }
func exhaustedKey(day string) string { return RedisKeyPrefix + day + redisExhaustedSuffix }

// GetState retrieves the quota state of the current service day.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	day, resetAt := ServiceDay(t.now())

	used, err := t.redis.Get(ctx, counterKey(day)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get quota counter: %w", err)
	}

	exhausted, err := t.redis.Exists(ctx, exhaustedKey(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("get quota exhausted flag: %w", err)
	}

	return &QuotaState{
		Day:       day,
		Used:      used,
		Limit:     t.limit,
		Exhausted: exhausted > 0,
		ResetAt:   resetAt,
	}, nil
}

// Allow reserves one request of today's allowance. It returns false when
// the allowance is used up or upstream reported it as exceeded.
func (t *Tracker) Allow(ctx context.Context) (bool, error) {
	day, resetAt := ServiceDay(t.now())

	exhausted, err := t.redis.Exists(ctx, exhaustedKey(day)).Result()
	if err != nil {
		return false, fmt.Errorf("get quota exhausted flag: %w", err)
	}
	if exhausted > 0 {
		t.logger.Error().
			Str("day", day).
			Dur("wait_duration", time.Until(resetAt)).
			Msg("Upstream quota exhausted - blocking request")
		quotaBlocksTotal.Inc()
		return false, nil
	}

	pipe := t.redis.TxPipeline()
	incr := pipe.Incr(ctx, counterKey(day))
	pipe.ExpireAt(ctx, counterKey(day), resetAt.Add(keyGrace))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("increment quota counter: %w", err)
	}

	state := &QuotaState{Day: day, Used: incr.Val(), Limit: t.limit, ResetAt: resetAt}
	quotaUsed.Set(float64(state.Used))

	// The counter includes this request, so allow up to and including limit.
	if t.limit > 0 && state.Used > t.limit {
		t.logger.Error().
			Int64("used", state.Used).
			Int64("limit", t.limit).
			Msg("Daily quota used up - blocking request")
		quotaBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsWarning() {
		t.logger.Warn().
			Int64("remaining", state.Remaining()).
			Int64("limit", t.limit).
			Msg("Daily quota nearly used up")
	}

	return true, nil
}

// MarkExhausted records that upstream rejected a request because the
// service key's allowance is exceeded. Requests are blocked until the
// next service day.
func (t *Tracker) MarkExhausted(ctx context.Context) error {
	day, resetAt := ServiceDay(t.now())

	if err := t.redis.Set(ctx, exhaustedKey(day), 1, 0).Err(); err != nil {
		return fmt.Errorf("set quota exhausted flag: %w", err)
	}
	if err := t.redis.ExpireAt(ctx, exhaustedKey(day), resetAt).Err(); err != nil {
		return fmt.Errorf("expire quota exhausted flag: %w", err)
	}

	quotaExhaustedTotal.Inc()
	t.logger.Error().
		Str("day", day).
		Time("reset_at", resetAt).
		Msg("Upstream reported request limit exceeded")
	return nil
}
