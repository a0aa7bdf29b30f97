package core

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidDuration is returned when a negative time step is supplied.
var ErrInvalidDuration = errors.New("invalid duration")

// Subsystem is a spacecraft component advanced once per tick.
type Subsystem interface {
	// Name is the short label used in the status report.
	Name() string
	// Update advances the subsystem by step.
	Update(ctx context.Context, step time.Duration)
	// Status returns a one-line human readable summary.
	Status() string
}

// PowerBus is the view of the power system that consumers draw from.
type PowerBus interface {
	BatteryLevel() float64
	ConsumePower(watts float64, d time.Duration)
}
