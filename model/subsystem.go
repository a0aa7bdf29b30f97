package model

import "time"

// PowerState is a read-only view of the electrical power subsystem.
type PowerState struct {
	BatteryCapacityWh   float64
	BatteryLevelWh      float64 // always within [0, BatteryCapacityWh]
	SolarInputW         float64
	OrientationAdjusted bool
}

// AttitudeState is a read-only view of the attitude control subsystem.
type AttitudeState struct {
	OrientationDeg float64
	// DriftDetected is set by an injected anomaly and cleared by the next update.
	DriftDetected bool
}

// PayloadState is a read-only view of the thermal camera payload.
type PayloadState struct {
	Active       bool
	TemperatureC float64
	FanOn        bool
	Overheated   bool
}

// CommState is a read-only view of the communications subsystem.
type CommState struct {
	Active bool
}

// EventSchedule holds the timing parameters of the event manager.
type EventSchedule struct {
	EclipseStart    time.Duration
	EclipseEnd      time.Duration
	OrbitPeriod     time.Duration
	AnomalyInterval time.Duration
	LastAnomalyTime time.Duration
}
