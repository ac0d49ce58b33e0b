package dataflow

import (
	"context"
	"errors"
	"sync"
)

// Stream is a read-only channel of values.
type Stream[T any] <-chan T

// From creates a stream from a fixed list of values.
func From[T any](ctx context.Context, items ...T) Stream[T] {
	out := make(chan T, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
	}()
	return out
}

// Generate runs produce in its own goroutine. Every call to emit blocks until
// the consumer takes the value (or the buffer set by WithBufferSize has room),
// so a slow consumer throttles the producer. The error channel receives
// produce's error, if any, after the stream is closed.
func Generate[T any](ctx context.Context, produce func(ctx context.Context, emit func(T) error) error, opts ...Option) (Stream[T], <-chan error) {
	cfg := newStageConfig(opts)

	out := make(chan T, cfg.bufferSize)
	errc := make(chan error, 1)

	emit := func(v T) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- v:
			return nil
		}
	}

	go func() {
		err := produce(ctx, emit)
		close(out)
		if err != nil {
			errc <- err
		}
		close(errc)
	}()

	return out, errc
}

// Map transforms the stream using fn. With WithWorkers above 1 the output
// order is not preserved. Items whose fn fails after retries are dropped and
// passed to the error handler, if any.
func Map[T, U any](ctx context.Context, input Stream[T], fn func(T) (U, error), opts ...Option) Stream[U] {
	cfg := newStageConfig(opts)

	out := make(chan U, cfg.bufferSize)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}

				var res U
				err := cfg.attempt(ctx, func() (err error) {
					res, err = fn(msg)
					return err
				})
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					cfg.handled(err)
					continue
				}

				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Filter keeps items where fn returns true.
func Filter[T any](ctx context.Context, input Stream[T], fn func(T) bool, opts ...Option) Stream[T] {
	return Map(ctx, input, func(msg T) (T, error) {
		if fn(msg) {
			return msg, nil
		}
		var zero T
		return zero, errSkip
	}, append(opts, WithErrorHandler(func(err error) bool {
		return errors.Is(err, errSkip)
	}))...)
}

var errSkip = errors.New("skip item")

// ForEach runs fn for every item in the stream and blocks until the stream is
// exhausted or ctx is done. It returns the first unhandled error.
func ForEach[T any](ctx context.Context, input Stream[T], fn func(T) error, opts ...Option) error {
	cfg := newStageConfig(opts)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}

				err := cfg.attempt(ctx, func() error { return fn(msg) })
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					if cfg.handled(err) {
						continue
					}
					errOnce.Do(func() {
						firstErr = err
					})
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}
