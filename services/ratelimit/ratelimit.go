// Package ratelimit counts requests per key and tells when a key went over its quota.
package ratelimit

import (
	"context"
	"time"
)

// Limiter allows at most a fixed number of hits per key and per window.
type Limiter interface {
	// Allow records a hit for key and reports whether it is within the quota.
	Allow(ctx context.Context, key string) (bool, error)
}

// Noop allows every hit.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

// windowStart truncates t to the start of its window.
func windowStart(t time.Time, window time.Duration) time.Time {
	return t.Truncate(window)
}
