package dataflow

import (
	"context"
	"time"
)

// Backoff returns how long to wait before retry number attempt (1-based).
type Backoff func(attempt int) time.Duration

// ConstantBackoff waits d before every retry.
func ConstantBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// LinearBackoff waits step, 2*step, 3*step and so on.
func LinearBackoff(step time.Duration) Backoff {
	return func(attempt int) time.Duration { return time.Duration(attempt) * step }
}

// ExponentialBackoff doubles base on every attempt and never waits longer
// than limit.
func ExponentialBackoff(base, limit time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt && d < limit; i++ {
			d *= 2
		}
		if d > limit {
			return limit
		}
		return d
	}
}

// Option configures a stage.
type Option func(*stageConfig)

type stageConfig struct {
	workers    int
	bufferSize int
	retries    int
	backoff    Backoff
	// onError returning true marks the error as handled.
	onError func(error) bool
}

func newStageConfig(opts []Option) stageConfig {
	c := stageConfig{workers: 1}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithWorkers runs a stage on n goroutines. One worker keeps input order.
func WithWorkers(n int) Option {
	return func(c *stageConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBufferSize sets the capacity of a stage's output channel. Zero hands
// values over one at a time.
func WithBufferSize(n int) Option {
	return func(c *stageConfig) {
		if n >= 0 {
			c.bufferSize = n
		}
	}
}

// WithRetry calls a failing stage function up to retries more times, waiting
// backoff between calls. A nil backoff retries immediately.
func WithRetry(retries int, backoff Backoff) Option {
	return func(c *stageConfig) {
		if retries < 0 {
			retries = 0
		}
		c.retries = retries
		c.backoff = backoff
	}
}

// WithErrorHandler sets a handler for stage errors. In Map a failed item is
// always skipped; in ForEach a handled error is not reported.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *stageConfig) {
		c.onError = h
	}
}

// attempt calls fn until it succeeds or the retries are spent. It returns
// ctx.Err() if ctx is done while waiting.
func (c stageConfig) attempt(ctx context.Context, fn func() error) error {
	err := fn()
	for i := 1; err != nil && i <= c.retries; i++ {
		if c.backoff != nil {
			t := time.NewTimer(c.backoff(i))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn()
	}
	return err
}

// handled reports whether the error handler accepted err.
func (c stageConfig) handled(err error) bool {
	return c.onError != nil && c.onError(err)
}
