package orchestrator

import (
	"context"
	"log"
	"time"
)

// RetryPolicy is an explicit retry object wrapped around individual network
// call sites. Attempts, schedule, and the retryable predicate are all visible
// here instead of hidden in a decorator, so each call site's retry scope can
// be tested on its own.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    30 * time.Second,
		Retryable:   IsTransientNetwork,
	}
}

// Do runs op up to MaxAttempts times with exponential backoff between
// attempts, retrying only errors the predicate accepts.
func (p RetryPolicy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		log.Printf("[retry] %s attempt %d/%d failed: %v (next in %s)",
			name, attempt, p.MaxAttempts, lastErr, delay)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
