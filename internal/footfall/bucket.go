package footfall

import (
	"fmt"
	"time"
)

// Interval is the time-series bucketing granularity.
type Interval string

const (
	IntervalHour        Interval = "hour"
	IntervalQuarterHour Interval = "15m"
)

// ParseInterval maps a query-string value to an Interval.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "", "hour", "hourly":
		return IntervalHour, nil
	case "15m", "15min", "15-minute":
		return IntervalQuarterHour, nil
	default:
		return "", fmt.Errorf("unknown interval %q", s)
	}
}

// Duration returns the bucket width.
func (iv Interval) Duration() time.Duration {
	if iv == IntervalQuarterHour {
		return 15 * time.Minute
	}
	return time.Hour
}

// Truncate floors t to the start of its bucket. The computation stays in t's
// own location; no timezone conversion is performed. Truncating an already
// truncated timestamp returns it unchanged.
func Truncate(t time.Time, iv Interval) time.Time {
	y, mo, d := t.Date()
	h := t.Hour()
	if iv == IntervalQuarterHour {
		m := t.Minute()
		return time.Date(y, mo, d, h, m-m%15, 0, 0, t.Location())
	}
	return time.Date(y, mo, d, h, 0, 0, 0, t.Location())
}

// SameBucket reports whether two timestamps fall into the same bucket.
func SameBucket(a, b time.Time, iv Interval) bool {
	return Truncate(a, iv).Equal(Truncate(b, iv))
}
