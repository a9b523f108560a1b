// Package retry runs a backend round trip again with exponential backoff.
// The Postgres and Redis record stores use it while connecting and for each
// load/save; the file store never retries.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// ─── Error markers ───────────────────────────────────────────────────────────

// marked tags an error as transient or permanent. Do strips the tag before
// returning.
type marked struct {
	err       error
	transient bool
}

func (m *marked) Error() string { return m.err.Error() }
func (m *marked) Unwrap() error { return m.err }

// Retryable marks err as transient: a dropped connection, a timeout.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &marked{err: err, transient: true}
}

// Permanent marks err as final even under a RetryIf that accepts everything,
// e.g. a malformed connection URL.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &marked{err: err}
}

func markOf(err error) (*marked, bool) {
	var m *marked
	ok := errors.As(err, &m)
	return m, ok
}

func isTransient(err error) bool {
	m, ok := markOf(err)
	return ok && m.transient
}

func isPermanent(err error) bool {
	m, ok := markOf(err)
	return ok && !m.transient
}

func strip(err error) error {
	if m, ok := err.(*marked); ok {
		return m.err
	}
	return err
}

// ─── Retrier ─────────────────────────────────────────────────────────────────

type settings struct {
	attempts int
	initial  time.Duration
	ceiling  time.Duration
	jitter   float64
	retryIf  func(error) bool
	onRetry  func(attempt int, err error, delay time.Duration)
}

// Option configures a Retrier.
type Option func(*settings)

// WithMaxAttempts counts the first attempt too.
func WithMaxAttempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.initial = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.ceiling = d
		}
	}
}

// WithJitter spreads each delay by ±j of itself, j in [0,1].
func WithJitter(j float64) Option {
	return func(s *settings) {
		if j >= 0 && j <= 1 {
			s.jitter = j
		}
	}
}

// WithRetryIf replaces the default rule, which retries only Retryable errors.
func WithRetryIf(fn func(error) bool) Option {
	return func(s *settings) { s.retryIf = fn }
}

// WithOnRetry is called before every wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(s *settings) { s.onRetry = fn }
}

// Retrier repeats an operation with doubling delays.
type Retrier struct {
	s settings
}

// New creates a Retrier: 3 attempts, 100ms doubling up to 5s, 10% jitter.
func New(opts ...Option) *Retrier {
	s := settings{
		attempts: 3,
		initial:  100 * time.Millisecond,
		ceiling:  5 * time.Second,
		jitter:   0.1,
		retryIf:  isTransient,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.retryIf == nil {
		s.retryIf = isTransient
	}
	return &Retrier{s: s}
}

// Do runs op until it succeeds, fails with an error that is not retried,
// runs out of attempts, or ctx ends. The returned error carries no marker.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return strip(last)
			}
			return err
		}

		last = op(ctx)
		if last == nil {
			return nil
		}
		if attempt >= r.s.attempts || isPermanent(last) || !r.s.retryIf(last) {
			return strip(last)
		}

		delay := r.calculateDelay(attempt)
		if r.s.onRetry != nil {
			r.s.onRetry(attempt, strip(last), delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return strip(last)
		case <-timer.C:
		}
	}
}

// calculateDelay is initial * 2^(attempt-1), capped, then jittered.
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	d := float64(r.s.initial) * math.Pow(2, float64(attempt-1))
	d = math.Min(d, float64(r.s.ceiling))
	if r.s.jitter > 0 {
		d += d * r.s.jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(math.Max(d, 0))
}

// DoWithData is Do for operations that produce a value.
func DoWithData[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = op(ctx)
		return err
	})
	return out, err
}

// ─── Profiles ────────────────────────────────────────────────────────────────

// ConnectRetrier retries everything except Permanent errors while a backend
// comes up.
func ConnectRetrier(onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	return New(
		WithMaxAttempts(4),
		WithInitialDelay(250*time.Millisecond),
		WithMaxDelay(2*time.Second),
		WithJitter(0.2),
		WithRetryIf(func(error) bool { return true }),
		WithOnRetry(onRetry),
	)
}

// StoreRetrier is used for a single load or save.
func StoreRetrier() *Retrier {
	return New(
		WithMaxAttempts(3),
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(500*time.Millisecond),
		WithJitter(0.05),
	)
}
