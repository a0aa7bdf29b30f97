package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/model"
)

const (
	commPowerW       = 5.0
	commMinBatteryWh = 2.0
)

// CommSystem is the transmitter. Once offline it never comes back.
type CommSystem struct {
	active bool

	power PowerBus
	log   logging.Logger
}

// NewCommSystem returns a transmitting comm system drawing from power.
func NewCommSystem(power PowerBus, log logging.Logger) *CommSystem {
	if log == nil {
		log = logging.Noop()
	}
	return &CommSystem{active: true, power: power, log: log}
}

// Name implements Subsystem.
func (c *CommSystem) Name() string { return "Comm" }

// Update implements Subsystem.
func (c *CommSystem) Update(ctx context.Context, step time.Duration) {
	if !c.active {
		return
	}
	if c.power.BatteryLevel() > commMinBatteryWh {
		c.power.ConsumePower(commPowerW, step)
		return
	}
	c.active = false
	c.log.Warn(ctx, "comm offline: battery too low", logging.Float("battery_wh", c.power.BatteryLevel()))
}

// Deactivate takes the transmitter offline permanently.
func (c *CommSystem) Deactivate(ctx context.Context) {
	if !c.active {
		return
	}
	c.active = false
	c.log.Warn(ctx, "comm forced offline")
}

// Active reports whether the transmitter is on.
func (c *CommSystem) Active() bool { return c.active }

// Status implements Subsystem.
func (c *CommSystem) Status() string {
	if c.active {
		return "Transmitting"
	}
	return "Offline"
}

// State returns a copy of the comm state.
func (c *CommSystem) State() model.CommState {
	return model.CommState{Active: c.active}
}
