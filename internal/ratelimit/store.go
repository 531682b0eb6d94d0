// Package ratelimit caps request rates per client key, backed by Redis or process memory.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the decision for a single request.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Store counts hits for key and decides whether another one fits in limit per window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
