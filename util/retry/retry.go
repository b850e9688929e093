// Package retry implements the bounded retry loop shared by the power
// convergence code paths.
package retry

import (
	"context"
	"time"
)

type (
	// Clock abstracts time for the retry loop, so tests can run the
	// convergence algorithms on a virtual time line.
	Clock interface {
		Now() time.Time
		Sleep(ctx context.Context, d time.Duration) error
	}

	// Policy bounds a retry loop.
	Policy struct {
		// Attempts is the max number of calls. Zero means unbounded.
		Attempts int

		// Interval is the delay between two calls.
		Interval time.Duration

		// Timeout is the time budget of the loop, measured from the first
		// call. Zero means unbounded. No call is started if the budget
		// would be exhausted before the call begins.
		Timeout time.Duration

		// Clock defaults to the wall clock.
		Clock Clock
	}

	// Func is the predicate evaluated by Until. attempt starts at 1.
	Func func(ctx context.Context, attempt int) (bool, error)

	wallClock struct{}
)

// WallClock is the Clock using the real time.
var WallClock Clock = wallClock{}

func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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

func (t Policy) clock() Clock {
	if t.Clock == nil {
		return WallClock
	}
	return t.Clock
}

// Until calls f until it returns true, returns an error, or the policy
// bounds are reached. It returns true if f converged.
func Until(ctx context.Context, p Policy, f Func) (bool, error) {
	clock := p.clock()
	begin := clock.Now()
	for attempt := 1; ; attempt++ {
		if ok, err := f(ctx, attempt); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
		if p.Attempts > 0 && attempt >= p.Attempts {
			return false, nil
		}
		if p.Timeout > 0 && clock.Now().Sub(begin)+p.Interval >= p.Timeout {
			return false, nil
		}
		if p.Interval <= 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			continue
		}
		if err := clock.Sleep(ctx, p.Interval); err != nil {
			return false, err
		}
	}
}
