package timectrl

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidStep is returned for a non-positive tick step or a negative tick count.
var ErrInvalidStep = errors.New("invalid step")

// SimClock gives read access to simulation time, measured from the start of
// the run.
type SimClock interface {
	// Now returns the simulated time elapsed since start.
	Now() time.Duration
	// Ticks returns the number of ticks completed so far.
	Ticks() int
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// Accelerated advances as quickly as the loop can run while still stepping by Step.
	Accelerated Mode = iota
	// RealTime waits one wall-clock Step between ticks.
	RealTime
)

func (m Mode) String() string {
	switch m {
	case Accelerated:
		return "accelerated"
	case RealTime:
		return "realtime"
	default:
		return "unknown"
	}
}

// Listener is invoked synchronously after simulation time advances. A non-nil
// error stops the run.
type Listener func(ctx context.Context, tick int, elapsed time.Duration) error

// TimeController drives simulation time in fixed steps and notifies
// registered listeners in registration order. Everything runs on the caller's
// goroutine.
type TimeController struct {
	Step time.Duration
	Mode Mode

	elapsed time.Duration
	ticks   int

	listeners []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(step time.Duration, mode Mode) (*TimeController, error) {
	if step <= 0 {
		return nil, fmt.Errorf("tick step %s: %w", step, ErrInvalidStep)
	}
	return &TimeController{Step: step, Mode: mode}, nil
}

// Now returns the simulated time elapsed since start. Implements SimClock.
func (tc *TimeController) Now() time.Duration { return tc.elapsed }

// Ticks returns the number of completed ticks. Implements SimClock.
func (tc *TimeController) Ticks() int { return tc.ticks }

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn Listener) {
	tc.listeners = append(tc.listeners, fn)
}

// Run advances the clock by Step, ticks times, calling every listener after
// each advance. It stops early when ctx is cancelled between ticks or a
// listener fails.
func (tc *TimeController) Run(ctx context.Context, ticks int) error {
	if ticks < 0 {
		return fmt.Errorf("tick count %d: %w", ticks, ErrInvalidStep)
	}

	var pace <-chan time.Time
	if tc.Mode == RealTime {
		ticker := time.NewTicker(tc.Step)
		defer ticker.Stop()
		pace = ticker.C
	}

	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pace != nil {
			select {
			case <-pace:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		tc.elapsed += tc.Step
		tc.ticks++

		for _, fn := range tc.listeners {
			if err := fn(ctx, tc.ticks, tc.elapsed); err != nil {
				return err
			}
		}
	}
	return nil
}
