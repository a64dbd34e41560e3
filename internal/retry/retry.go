// Package retry provides the bounded poll used by administrative operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kailas-cloud/poemdex/internal/domain"
)

// Policy is a fixed-interval retry budget.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// DefaultPolicy polls once a second for thirty seconds.
func DefaultPolicy() Policy {
	return Policy{Attempts: 30, Interval: time.Second}
}

// ErrNotYet reports that a condition has not been met. Until keeps polling on it.
var ErrNotYet = errors.New("condition not met")

// Until calls check until it returns true, at most p.Attempts times, sleeping p.Interval
// between calls. Errors from check are retried as well. Exhaustion returns
// domain.ErrTimeout joined with the last check error; context cancellation returns ctx.Err().
func Until(ctx context.Context, p Policy, check func(ctx context.Context) (bool, error)) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}

	var (
		last  error
		calls int
	)
	op := func() error {
		calls++
		ok, err := check(ctx)
		if err != nil {
			last = err
			return err
		}
		if !ok {
			last = nil
			return ErrNotYet
		}
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), uint64(p.Attempts-1)),
		ctx,
	)
	err := backoff.Retry(op, b)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	timeout := fmt.Errorf("%w after %d attempts", domain.ErrTimeout, calls)
	if last != nil {
		return errors.Join(timeout, last)
	}
	return timeout
}
