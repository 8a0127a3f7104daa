// Package resilience bounds every provider call with a timeout, a retry
// budget and a shared rate limiter.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ann82/dv-assistant-sub003/internal/observability"
)

// ErrProviderUnavailable matches every *ProviderError.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ProviderError is returned once a call has exhausted its attempts.
type ProviderError struct {
	Provider string
	Op       string
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Provider, e.Op, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// Policy configures an Executor.
type Policy struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Rate calls per Interval, with Burst headroom. Rate <= 0 disables limiting.
	Rate     int
	Interval time.Duration
	Burst    int
}

// DefaultPolicy is three attempts, 250ms doubling backoff and a 10s call timeout.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Rate:        60,
		Interval:    time.Minute,
		Burst:       10,
	}
}

// Executor runs provider calls under a Policy.
type Executor struct {
	name    string
	policy  Policy
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor whose limiter is shared by every call it runs.
func NewExecutor(name string, policy Policy) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 2 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if policy.Rate > 0 && policy.Interval > 0 {
		burst := policy.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(policy.Interval/time.Duration(policy.Rate)), burst)
	}

	return &Executor{
		name:    name,
		policy:  policy,
		limiter: limiter,
		sleep:   sleepContext,
	}
}

// Name returns the provider label used in errors and metrics.
func (e *Executor) Name() string {
	return e.name
}

// Do runs fn until it succeeds, returns a permanent error, or the attempts run
// out. Cancellation of ctx is never retried.
func (e *Executor) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	var lastErr error
	attempts := 0

	for attempts < e.policy.MaxAttempts {
		if err := e.limiter.Wait(ctx); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		attempts++
		lastErr = e.attempt(ctx, fn)
		if lastErr == nil {
			observability.RecordProviderCall(e.name, op, "success", time.Since(start))
			return nil
		}

		if ctx.Err() != nil || !retryable(lastErr) {
			break
		}
		if attempts < e.policy.MaxAttempts {
			delay := e.backoff(attempts)
			log.Debugf("[resilience] %s %s attempt %d failed, retrying in %s: %v", e.name, op, attempts, delay, lastErr)
			if err := e.sleep(ctx, delay); err != nil {
				break
			}
		}
	}

	observability.RecordProviderCall(e.name, op, "failure", time.Since(start))
	log.Warnf("[resilience] %s %s unavailable after %d attempt(s): %v", e.name, op, attempts, lastErr)
	return &ProviderError{Provider: e.name, Op: op, Attempts: attempts, Err: unwrapPermanent(lastErr)}
}

func (e *Executor) attempt(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	callCtx := ctx
	if e.policy.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.policy.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("provider panic: %v", r))
		}
	}()
	return fn(callCtx)
}

// backoff doubles BaseDelay per failed attempt, capped at MaxDelay.
func (e *Executor) backoff(attempt int) time.Duration {
	delay := e.policy.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= e.policy.MaxDelay {
			return e.policy.MaxDelay
		}
	}
	return delay
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}

func retryable(err error) bool {
	var p *permanentError
	if errors.As(err, &p) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
