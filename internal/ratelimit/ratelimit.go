// Package ratelimit throttles the public intake endpoints per client IP
// using a sliding window, so a burst right before a window boundary cannot
// double the effective rate.
package ratelimit

import (
	"context"
	"time"
)

// Default throttle for the public intake endpoints.
const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key inside a sliding window.
type Store interface {
	// Allow records one request for the key and reports whether it fits
	// inside the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}
