package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy bounds how often an external model call is re-attempted. The zero
// value never retries; the pipeline default is a single attempt so the core
// fails fast and leaves retry decisions to whoever wires it up.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Default is the fail-fast policy.
func Default() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs fn up to MaxAttempts times, sleeping an exponential backoff between
// attempts. The last error is returned; a context cancellation stops the loop
// immediately.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(CalculateBackoff(p.BaseDelay, attempt)):
		}
	}
	return err
}

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	// Cap at 30 seconds
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	// Add jitter: -25% to +25%
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}
