// Package rate throttles login attempts per client key.
package rate

import (
	"context"
	"time"
)

// Limiter reports whether an attempt under key is allowed within the
// configured fixed window, and how long to wait otherwise.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}
