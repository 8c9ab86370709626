package llm

import (
	"context"
	"time"
)

// RetryPolicy controls how rate-limited calls are retried
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Sleep waits between attempts (injectable for tests)
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each wait, if set
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultRetryPolicy retries three times starting at one second
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// WithRetry wraps a provider so that rate-limit errors are retried with
// exponential backoff. Any other error is returned immediately. When every
// attempt is rate limited the result is a *RateLimitError.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.Sleep == nil {
		policy.Sleep = sleepContext
	}
	return &retrying{next: p, policy: policy}
}

type retrying struct {
	next   Provider
	policy RetryPolicy
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) IsAvailable(ctx context.Context) bool { return r.next.IsAvailable(ctx) }

func (r *retrying) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var last error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRateLimit(err) {
			return nil, err
		}
		last = err

		if attempt == r.policy.MaxAttempts-1 {
			break
		}
		wait := r.backoff(attempt)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt+1, wait, err)
		}
		if err := r.policy.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, &RateLimitError{Attempts: r.policy.MaxAttempts, Err: last}
}

func (r *retrying) backoff(attempt int) time.Duration {
	d := r.policy.BaseDelay * time.Duration(1<<uint(attempt))
	if r.policy.MaxDelay > 0 && d > r.policy.MaxDelay {
		d = r.policy.MaxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
