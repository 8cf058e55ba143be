// Package limiter throttles repeated failed admin password checks per client address.
package limiter

import (
	"context"
	"time"
)

// Limiter tracks failed attempts and temporary lockouts keyed by a hashed client address.
type Limiter interface {
	// Allow reports whether an attempt is currently allowed and an optional retry-after.
	Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
	// Success clears the failure counter.
	Success(ctx context.Context, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
}
