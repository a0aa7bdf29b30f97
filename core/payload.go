package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/model"
)

const (
	// DefaultPayloadTempC is the camera temperature at start.
	DefaultPayloadTempC = 25.0

	payloadBasePowerW    = 10.0
	payloadFanPowerW     = 5.0
	payloadCoolingC      = 0.2
	payloadHeatingC      = 0.05
	payloadRecoveryTempC = 30.0
	payloadMinBatteryWh  = 5.0
)

// PayloadCamera is a thermally sensitive camera powered from the bus.
//
// States: ON (normal), ON (overheated, fan running) and OFF. OFF is terminal.
type PayloadCamera struct {
	active      bool
	temperature float64 // °C
	fanOn       bool
	overheated  bool

	power PowerBus
	log   logging.Logger
}

// PayloadOption customises a PayloadCamera at construction.
type PayloadOption func(*PayloadCamera)

// WithTemperature sets the initial temperature in °C.
func WithTemperature(c float64) PayloadOption {
	return func(p *PayloadCamera) { p.temperature = c }
}

// WithPayloadLogger attaches a logger.
func WithPayloadLogger(log logging.Logger) PayloadOption {
	return func(p *PayloadCamera) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPayloadCamera returns an active camera at 25 °C drawing from power.
func NewPayloadCamera(power PowerBus, opts ...PayloadOption) *PayloadCamera {
	p := &PayloadCamera{
		active:      true,
		temperature: DefaultPayloadTempC,
		power:       power,
		log:         logging.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Subsystem.
func (p *PayloadCamera) Name() string { return "Payload" }

// InduceOverheat puts the camera into the overheated state.
func (p *PayloadCamera) InduceOverheat(ctx context.Context) {
	p.overheated = true
	p.log.Warn(ctx, "payload anomaly: overheating", logging.Float("temperature_c", p.temperature))
}

// Update implements Subsystem. The overheated branch always takes precedence:
// it runs the fan and cools, and never heats in the same tick.
func (p *PayloadCamera) Update(ctx context.Context, step time.Duration) {
	if !p.active {
		return
	}

	if p.overheated {
		p.fanOn = true
		p.power.ConsumePower(payloadBasePowerW+payloadFanPowerW, step)
		p.temperature -= payloadCoolingC
		p.log.Info(ctx, "fan activated to cool payload", logging.Float("temperature_c", p.temperature))
		if p.temperature <= payloadRecoveryTempC {
			p.overheated = false
			p.fanOn = false
			p.log.Info(ctx, "payload temperature recovered", logging.Float("temperature_c", p.temperature))
		}
		return
	}

	if p.power.BatteryLevel() > payloadMinBatteryWh {
		p.power.ConsumePower(payloadBasePowerW, step)
		p.temperature += payloadHeatingC
		return
	}

	p.active = false
	p.log.Warn(ctx, "payload powered off: battery too low", logging.Float("battery_wh", p.power.BatteryLevel()))
}

// Deactivate switches the camera off permanently.
func (p *PayloadCamera) Deactivate(ctx context.Context) {
	if !p.active {
		return
	}
	p.active = false
	p.log.Warn(ctx, "payload forced off")
}

// Active reports whether the camera is on.
func (p *PayloadCamera) Active() bool { return p.active }

// Temperature returns the camera temperature in °C.
func (p *PayloadCamera) Temperature() float64 { return p.temperature }

// Overheated reports whether the camera is in the overheated state.
func (p *PayloadCamera) Overheated() bool { return p.overheated }

// FanOn reports whether the cooling fan is running.
func (p *PayloadCamera) FanOn() bool { return p.fanOn }

// Status implements Subsystem.
func (p *PayloadCamera) Status() string {
	state := "OFF"
	if p.active {
		state = "ON"
	}
	fan := ""
	if p.fanOn {
		fan = " (Fan ON)"
	}
	return fmt.Sprintf("State: %s%s | Temp: %.1f°C", state, fan, p.temperature)
}

// State returns a copy of the payload state.
func (p *PayloadCamera) State() model.PayloadState {
	return model.PayloadState{
		Active:       p.active,
		TemperatureC: p.temperature,
		FanOn:        p.fanOn,
		Overheated:   p.overheated,
	}
}
