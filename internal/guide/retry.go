package guide

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"
)

const maxJitter = 250 * time.Millisecond

// RetryPolicy bounds automatic retries of transient failures.
type RetryPolicy struct {
	MaxAttempts int // total attempts including the first
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy suits a backend that may need a few seconds to wake
// from a cold start.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   800 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// RetryEvent describes a scheduled retry.
type RetryEvent struct {
	Attempt     int // attempt that just failed, starting at 1
	MaxAttempts int
	Delay       time.Duration
	Err         *Error
}

// Retrier re-runs an operation after transient failures with exponential
// backoff and jitter. The zero value uses DefaultRetryPolicy.
type Retrier struct {
	Policy  RetryPolicy
	Jitter  func() time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
	OnRetry func(RetryEvent)
}

// Do runs op until it succeeds, fails with a non-transient error, or runs out
// of attempts. The last error is returned when attempts are exhausted. A
// cancellation during a backoff wait returns KindCancelled immediately.
func (r Retrier) Do(ctx context.Context, op func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	policy := r.policy()
	var last *Error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		payload, err := op(ctx)
		if err == nil {
			return payload, nil
		}
		last = normalize(ctx, err)
		if !last.Transient() || attempt == policy.MaxAttempts-1 {
			return nil, last
		}

		delay := r.Backoff(attempt)
		event := RetryEvent{Attempt: attempt + 1, MaxAttempts: policy.MaxAttempts, Delay: delay, Err: last}
		if r.OnRetry != nil {
			r.OnRetry(event)
		}
		if observe := retryObserver(ctx); observe != nil {
			observe(event)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return nil, newError(KindCancelled, 0, "cancelled while waiting to retry", err)
		}
	}
	return nil, last
}

// Backoff returns min(base * 2^attempt, max) plus jitter in [0, 250ms).
func (r Retrier) Backoff(attempt int) time.Duration {
	policy := r.policy()
	delay := policy.BaseDelay
	for i := 0; i < attempt && delay < policy.MaxDelay; i++ {
		delay *= 2
	}
	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay + r.jitter()
}

func (r Retrier) policy() RetryPolicy {
	p := r.Policy
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

func (r Retrier) jitter() time.Duration {
	if r.Jitter != nil {
		j := r.Jitter()
		if j < 0 {
			return 0
		}
		if j >= maxJitter {
			return maxJitter - 1
		}
		return j
	}
	return rand.N(maxJitter)
}

func (r Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// normalize maps anything op returns onto *Error so nothing unclassified
// escapes the retry loop.
func normalize(ctx context.Context, err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return newError(KindCancelled, 0, "request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, 0, "request timed out", err)
	}
	return newError(KindNetwork, 0, err.Error(), err)
}

type retryObserverKey struct{}

// WithRetryObserver attaches fn to ctx; Retrier.Do calls it for every retry
// scheduled under that context.
func WithRetryObserver(ctx context.Context, fn func(RetryEvent)) context.Context {
	return context.WithValue(ctx, retryObserverKey{}, fn)
}

func retryObserver(ctx context.Context) func(RetryEvent) {
	fn, _ := ctx.Value(retryObserverKey{}).(func(RetryEvent))
	return fn
}
