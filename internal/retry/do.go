package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sleeper waits for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ClockSleeper sleeps on the wall clock.
var ClockSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// Attempt describes one failed try, passed to the OnFailure hook.
type Attempt struct {
	Number int           // 1-based
	Err    error         // failure reason
	Delay  time.Duration // backoff that follows this failure
	Last   bool          // no further attempt follows
}

// ExhaustedError is returned once every attempt failed. It wraps the last failure.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// PermanentError marks a failure that no further attempt can fix.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do returns it without retrying. Nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Runner drives an operation through the attempt counter of a Policy.
type Runner struct {
	Policy    Policy
	Sleeper   Sleeper
	OnFailure func(Attempt)
	// SkipLastWait returns the exhausted error right after the final failure instead of
	// waiting out its backoff first.
	SkipLastWait bool
}

// Do runs op until it succeeds or the policy's attempts are used up. A backoff wait follows
// every failed attempt, the last one included unless SkipLastWait is set, before the
// exhausted error is returned. Context cancellation stops the loop immediately and is
// returned as is.
func (r Runner) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	sleeper := r.Sleeper
	if sleeper == nil {
		sleeper = ClockSleeper
	}
	maxAttempts := r.Policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		var perm *PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}

		last := attempt == maxAttempts
		delay := r.Policy.Delay(attempt)
		if last && r.SkipLastWait {
			delay = 0
		}
		if r.OnFailure != nil {
			r.OnFailure(Attempt{Number: attempt, Err: err, Delay: delay, Last: last})
		}
		if last && r.SkipLastWait {
			break
		}
		if err := sleeper.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: maxAttempts, Last: lastErr}
}
