package model

import "time"

// Telemetry is a snapshot of the whole spacecraft taken at the end of a tick.
type Telemetry struct {
	Tick      int
	Elapsed   time.Duration
	InEclipse bool

	// AnomalyDue reports whether an anomaly draw happened this tick;
	// Anomaly holds the outcome when it did.
	AnomalyDue bool
	Anomaly    AnomalyKind

	// SolarBoostApplied reports whether the low-battery cascade applied the
	// solar boost during this tick. Power.OrientationAdjusted can stay true
	// across ticks that each re-apply it.
	SolarBoostApplied bool

	Power    PowerState
	Attitude AttitudeState
	Payload  PayloadState
	Comm     CommState
}
