package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/model"
)

const (
	nominalDriftDeg   = 0.1
	anomalousDriftDeg = 0.5
)

// AttitudeControlSystem tracks orientation drift. It is independent of power.
type AttitudeControlSystem struct {
	orientation   float64 // degrees, never decreases
	driftDetected bool

	log logging.Logger
}

// NewAttitudeControlSystem returns an attitude system at 0 degrees.
func NewAttitudeControlSystem(log logging.Logger) *AttitudeControlSystem {
	if log == nil {
		log = logging.Noop()
	}
	return &AttitudeControlSystem{log: log}
}

// Name implements Subsystem.
func (a *AttitudeControlSystem) Name() string { return "Attitude" }

// InduceDrift flags a gyro drift anomaly for the next update.
func (a *AttitudeControlSystem) InduceDrift(ctx context.Context) {
	a.driftDetected = true
	a.log.Warn(ctx, "attitude anomaly: gyro drift detected")
}

// Update implements Subsystem. A detected drift adds 0.5 degrees and is
// considered corrected; otherwise the nominal 0.1 degree drift applies.
func (a *AttitudeControlSystem) Update(ctx context.Context, _ time.Duration) {
	if a.driftDetected {
		a.orientation += anomalousDriftDeg
		a.driftDetected = false
		a.log.Info(ctx, "stabilizing orientation due to drift", logging.Float("orientation_deg", a.orientation))
		return
	}
	a.orientation += nominalDriftDeg
}

// Orientation returns the accumulated orientation in degrees.
func (a *AttitudeControlSystem) Orientation() float64 { return a.orientation }

// DriftDetected reports whether a drift is pending correction.
func (a *AttitudeControlSystem) DriftDetected() bool { return a.driftDetected }

// Status implements Subsystem.
func (a *AttitudeControlSystem) Status() string {
	return fmt.Sprintf("Orientation: %.2f deg", a.orientation)
}

// State returns a copy of the attitude state.
func (a *AttitudeControlSystem) State() model.AttitudeState {
	return model.AttitudeState{OrientationDeg: a.orientation, DriftDetected: a.driftDetected}
}
