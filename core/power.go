package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/model"
)

const (
	// DefaultBatteryCapacityWh is the battery capacity of the reference spacecraft.
	DefaultBatteryCapacityWh = 100.0
	// DefaultBatteryLevelWh is the initial charge of the reference spacecraft.
	DefaultBatteryLevelWh = 80.0
	// NominalSolarInputW is the array output outside eclipse.
	NominalSolarInputW = 50.0
	// SolarBoostW is added by a one-off orientation adjustment.
	SolarBoostW = 15.0

	secondsPerHour = 3600.0
)

// PowerSystem tracks battery energy and solar input.
type PowerSystem struct {
	capacity            float64 // Wh
	level               float64 // Wh, within [0, capacity]
	solarInput          float64 // W
	orientationAdjusted bool

	log logging.Logger
}

// PowerOption customises a PowerSystem at construction.
type PowerOption func(*PowerSystem)

// WithBatteryLevel sets the initial charge, clamped to the capacity.
func WithBatteryLevel(wh float64) PowerOption {
	return func(p *PowerSystem) { p.level = wh }
}

// WithBatteryCapacity overrides the battery capacity.
func WithBatteryCapacity(wh float64) PowerOption {
	return func(p *PowerSystem) { p.capacity = wh }
}

// WithPowerLogger attaches a logger.
func WithPowerLogger(log logging.Logger) PowerOption {
	return func(p *PowerSystem) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPowerSystem returns a power system in the reference initial state:
// 100 Wh capacity, 80 Wh charge, 50 W solar input.
func NewPowerSystem(opts ...PowerOption) *PowerSystem {
	p := &PowerSystem{
		capacity:   DefaultBatteryCapacityWh,
		level:      DefaultBatteryLevelWh,
		solarInput: NominalSolarInputW,
		log:        logging.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.level = clamp(p.level, 0, p.capacity)
	return p
}

// Name implements Subsystem.
func (p *PowerSystem) Name() string { return "Power" }

// SetSolarInput sets the current solar input unconditionally.
func (p *PowerSystem) SetSolarInput(watts float64) {
	p.solarInput = watts
}

// SolarInput returns the current solar input in watts.
func (p *PowerSystem) SolarInput() float64 { return p.solarInput }

// AdjustOrientationForSolar re-points the arrays once, adding SolarBoostW to
// the solar input. It is a no-op while the adjustment flag is set.
func (p *PowerSystem) AdjustOrientationForSolar(ctx context.Context) {
	if p.orientationAdjusted {
		return
	}
	p.solarInput += SolarBoostW
	p.orientationAdjusted = true
	p.log.Info(ctx, "adjusted orientation to maximize solar input",
		logging.Float("solar_input_w", p.solarInput),
		logging.Float("battery_wh", p.level),
	)
}

// ResetOrientationAdjustment clears the adjustment flag. The boost itself
// stays in the solar input until the next SetSolarInput.
func (p *PowerSystem) ResetOrientationAdjustment() {
	p.orientationAdjusted = false
}

// OrientationAdjusted reports whether the solar boost has been applied and
// not yet reset.
func (p *PowerSystem) OrientationAdjusted() bool { return p.orientationAdjusted }

// BatteryLevel returns the stored energy in Wh.
func (p *PowerSystem) BatteryLevel() float64 { return p.level }

// BatteryCapacity returns the battery capacity in Wh.
func (p *PowerSystem) BatteryCapacity() float64 { return p.capacity }

// ConsumePower drains watts for d, flooring the battery at zero.
func (p *PowerSystem) ConsumePower(watts float64, d time.Duration) {
	used := watts * d.Seconds() / secondsPerHour
	p.level = math.Max(0, p.level-used)
}

// SupplyPower charges the battery from the current solar input for d,
// capping at the capacity.
func (p *PowerSystem) SupplyPower(d time.Duration) {
	generated := p.solarInput * d.Seconds() / secondsPerHour
	p.level = math.Min(p.capacity, p.level+generated)
}

// Update implements Subsystem. Consumption is driven by the loads.
func (p *PowerSystem) Update(_ context.Context, step time.Duration) {
	p.SupplyPower(step)
}

// Status implements Subsystem.
func (p *PowerSystem) Status() string {
	return fmt.Sprintf("Battery: %.2f Wh | Solar In: %.1f W", p.level, p.solarInput)
}

// State returns a copy of the power state.
func (p *PowerSystem) State() model.PowerState {
	return model.PowerState{
		BatteryCapacityWh:   p.capacity,
		BatteryLevelWh:      p.level,
		SolarInputW:         p.solarInput,
		OrientationAdjusted: p.orientationAdjusted,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
