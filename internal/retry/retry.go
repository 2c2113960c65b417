// Package retry provides a retry-with-backoff policy for operations that
// can fail transiently, such as database inserts and remote requests.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/agentstation/surveysync/pkg/constants"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Initial is the wait before the second attempt.
	Initial time.Duration
	// Max caps the wait between attempts.
	Max time.Duration
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(err error, attempt int, wait time.Duration)
}

// Default returns the policy used for persistence steps.
func Default() Policy {
	return Policy{
		Attempts: constants.MaxRetries,
		Initial:  constants.RetryBackoff,
		Max:      constants.MaxRetryBackoff,
	}
}

// WithAttempts returns a copy of p with the attempt count replaced.
func (p Policy) WithAttempts(n int) Policy {
	p.Attempts = n
	return p
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		b.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		b.MaxInterval = p.Max
	}
	return b
}

func (p Policy) attempts() uint {
	if p.Attempts < 1 {
		return 1
	}
	return uint(p.Attempts)
}

// Do runs op until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		return op(ctx)
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.attempts()),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			p.OnRetry(err, attempt, wait)
		}))
	}

	return backoff.Retry(ctx, operation, opts...)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
