package retry

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a Clock whose time only advances on Sleep.
type FakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

// NewFakeClock returns a FakeClock starting at a fixed date.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (t *FakeClock) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

func (t *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slept = append(t.slept, d)
	if d > 0 {
		t.now = t.now.Add(d)
	}
	return nil
}

// Slept returns the durations passed to Sleep, in call order.
func (t *FakeClock) Slept() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration{}, t.slept...)
}
