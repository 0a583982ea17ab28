// Package ratelimit tracks the daily request allowance of the upstream
// service key. Counters live in Redis so every server instance sharing a
// key also shares its allowance.
package ratelimit

import (
	"time"
)

// Redis key layout for quota state. The date suffix is the service day in
// Korea Standard Time, which is when the upstream allowance resets.
const (
	RedisKeyPrefix       = "medimatch:quota:"
	redisExhaustedSuffix = ":exhausted"
)

// Thresholds for quota decisions, as fractions of the daily limit.
const (
	// WarningRatio starts warning when less than this share of the
	// allowance remains.
	WarningRatio = 0.1
)

// ServiceZone is the time zone the upstream allowance resets in.
var ServiceZone = time.FixedZone("KST", 9*60*60)

// QuotaState represents the request allowance of the current service day.
type QuotaState struct {
	// Day is the service day (YYYY-MM-DD, KST).
	Day string `json:"day"`

	// Used is the number of upstream requests issued today.
	Used int64 `json:"used"`

	// Limit is the daily allowance; 0 means unlimited.
	Limit int64 `json:"limit"`

	// Exhausted is set when upstream reported the limit as exceeded,
	// regardless of the local counter.
	Exhausted bool `json:"exhausted"`

	// ResetAt is the start of the next service day.
	ResetAt time.Time `json:"reset_at"`
}

// Remaining returns the number of requests left today, or -1 if unlimited.
func (s *QuotaState) Remaining() int64 {
	if s.Limit <= 0 {
		return -1
	}
	if s.Exhausted || s.Used >= s.Limit {
		return 0
	}
	return s.Limit - s.Used
}

// NeedsBlock returns true if requests must not be sent upstream.
func (s *QuotaState) NeedsBlock() bool {
	if s.Exhausted {
		return true
	}
	return s.Limit > 0 && s.Used >= s.Limit
}

// NeedsWarning returns true if the allowance is nearly used up.
func (s *QuotaState) NeedsWarning() bool {
	if s.Limit <= 0 || s.NeedsBlock() {
		return false
	}
	return float64(s.Remaining()) < float64(s.Limit)*WarningRatio
}

// TimeUntilReset returns the duration until the allowance resets.
// Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// ServiceDay returns the service day of t and the time it ends.
func ServiceDay(t time.Time) (day string, resetAt time.Time) {
	local := t.In(ServiceZone)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ServiceZone)
	return start.Format("2006-01-02"), start.AddDate(0, 0, 1)
}
