package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

// Policy bounds retrying of transient provider failures: a maximum attempt
// count, exponential backoff with a cap, a per-attempt timeout, and an
// optional rate limiter shared across calls.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
	Limiter     *rate.Limiter
}

// PolicyFromConfig builds a retry policy from the LLM configuration.
func PolicyFromConfig(cfg model.LLMConfig) Policy {
	p := Policy{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
		MaxDelay:    cfg.MaxDelay,
		Timeout:     cfg.Timeout,
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Delay <= 0 {
		p.Delay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 60 * time.Second
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		p.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return p
}

// Do runs fn under the policy. Only errors marked transient are retried;
// anything else propagates immediately. Exhaustion is reported as
// ErrRetriesExhausted wrapping the last transient failure.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt)):
			}
		}

		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.MaxAttempts, lastErr)
}

// backoff returns the delay before the given attempt (attempt >= 2),
// doubling from the initial delay up to the cap.
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.Delay
	for i := 2; i < attempt; i++ {
		delay *= 2
		if delay > p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Retrying wraps a Client with the bounded retry policy.
type Retrying struct {
	inner  Client
	policy Policy
}

// NewRetrying wraps an existing client with retry logic.
func NewRetrying(inner Client, policy Policy) *Retrying {
	return &Retrying{inner: inner, policy: policy}
}

// Name returns the underlying provider name.
func (r *Retrying) Name() string {
	return r.inner.Name()
}

// IsAvailable delegates to the underlying client.
func (r *Retrying) IsAvailable(ctx context.Context) bool {
	return r.inner.IsAvailable(ctx)
}

// Complete sends a completion request with timeout and retry handling.
func (r *Retrying) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var out string
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.inner.Complete(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
