package oracle

import (
	"context"
	"time"
)

// Policy bounds a single logical oracle call. Timeout applies to each
// attempt; Retries is the number of additional attempts after the first
// failure; Backoff is the pause between attempts.
type Policy struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// Apply wraps o with the policy's timeout and retry behavior.
func (p Policy) Apply(o Oracle) Oracle {
	return WithRetry(WithTimeout(o, p.Timeout), p.Retries, p.Backoff)
}

type result struct {
	text string
	err  error
}

// WithTimeout bounds each call to o by d. The call returns as soon as the
// deadline passes or ctx is cancelled, even if o does not observe its
// context. All failures are reported as ErrUnavailable. A non-positive d
// disables the deadline but keeps cancellation and error wrapping.
func WithTimeout(o Oracle, d time.Duration) Oracle {
	return Func(func(ctx context.Context, prompt string) (string, error) {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		done := make(chan result, 1)
		go func() {
			text, err := o.Complete(ctx, prompt)
			done <- result{text, err}
		}()

		select {
		case <-ctx.Done():
			return "", unavailable(ctx.Err())
		case r := <-done:
			if r.err != nil {
				return "", unavailable(r.err)
			}
			return r.text, nil
		}
	})
}

// WithRetry retries failed calls to o up to retries additional times,
// waiting backoff between attempts. It stops early once ctx is done.
func WithRetry(o Oracle, retries int, backoff time.Duration) Oracle {
	if retries <= 0 {
		return o
	}

	return Func(func(ctx context.Context, prompt string) (string, error) {
		var lastErr error

		for attempt := 0; attempt <= retries; attempt++ {
			if attempt > 0 {
				if err := wait(ctx, backoff); err != nil {
					return "", unavailable(lastErr)
				}
			}

			text, err := o.Complete(ctx, prompt)
			if err == nil {
				return text, nil
			}
			lastErr = err

			if ctx.Err() != nil {
				break
			}
		}

		return "", unavailable(lastErr)
	})
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
