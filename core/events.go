package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/model"
)

const (
	// DefaultEclipseStart is the orbit time at which the eclipse begins.
	DefaultEclipseStart = 900 * time.Second
	// DefaultEclipseEnd is the orbit time at which the eclipse ends (inclusive).
	DefaultEclipseEnd = 1800 * time.Second
	// DefaultOrbitPeriod is the length of one orbit.
	DefaultOrbitPeriod = 5400 * time.Second
	// DefaultAnomalyInterval is the minimum spacing between anomaly draws.
	DefaultAnomalyInterval = 300 * time.Second

	commCutoffWh    = 5.0
	payloadCutoffWh = 3.0
	solarBoostBelow = 20.0
)

// Chooser draws a uniform integer in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	Intn(n int) int
}

// NoAnomalies is a Chooser that always draws the "none" outcome.
type NoAnomalies struct{}

// Intn implements Chooser.
func (NoAnomalies) Intn(n int) int { return n - 1 }

// FixedChooser replays a sequence of draws, repeating the last one when the
// sequence is exhausted. An empty sequence behaves like NoAnomalies.
type FixedChooser struct {
	Draws []model.AnomalyKind
	next  int
}

// Intn implements Chooser.
func (f *FixedChooser) Intn(n int) int {
	if len(f.Draws) == 0 {
		return n - 1
	}
	i := f.next
	if i >= len(f.Draws) {
		i = len(f.Draws) - 1
	} else {
		f.next++
	}
	return int(f.Draws[i])
}

// DriftInducer receives attitude anomalies.
type DriftInducer interface {
	InduceDrift(ctx context.Context)
}

// OverheatInducer receives payload anomalies.
type OverheatInducer interface {
	InduceOverheat(ctx context.Context)
}

// Deactivator is a load that can be switched off permanently.
type Deactivator interface {
	Deactivate(ctx context.Context)
}

// SolarAdjuster is the part of the power system the threshold cascade drives.
type SolarAdjuster interface {
	BatteryLevel() float64
	OrientationAdjusted() bool
	AdjustOrientationForSolar(ctx context.Context)
}

// EventManager computes eclipse windows, injects random anomalies and applies
// the low-battery threshold cascade.
type EventManager struct {
	schedule model.EventSchedule
	chooser  Chooser
	log      logging.Logger
}

// NewEventManager returns an event manager on the reference schedule drawing
// anomalies from chooser. A nil chooser disables anomalies.
func NewEventManager(chooser Chooser, log logging.Logger) *EventManager {
	if chooser == nil {
		chooser = NoAnomalies{}
	}
	if log == nil {
		log = logging.Noop()
	}
	return &EventManager{
		schedule: model.EventSchedule{
			EclipseStart:    DefaultEclipseStart,
			EclipseEnd:      DefaultEclipseEnd,
			OrbitPeriod:     DefaultOrbitPeriod,
			AnomalyInterval: DefaultAnomalyInterval,
			// the first draw happens on the first tick
			LastAnomalyTime: -DefaultAnomalyInterval,
		},
		chooser: chooser,
		log:     log,
	}
}

// Schedule returns a copy of the event schedule.
func (e *EventManager) Schedule() model.EventSchedule { return e.schedule }

// InEclipse reports whether now falls within [EclipseStart, EclipseEnd] of
// the current orbit.
func (e *EventManager) InEclipse(now time.Duration) bool {
	orbit := now % e.schedule.OrbitPeriod
	if orbit < 0 {
		orbit += e.schedule.OrbitPeriod
	}
	return orbit >= e.schedule.EclipseStart && orbit <= e.schedule.EclipseEnd
}

// InjectRandomAnomalies draws an anomaly at most once per AnomalyInterval.
// The draw time is recorded whatever the outcome, including none. It returns
// the outcome and whether a draw happened.
func (e *EventManager) InjectRandomAnomalies(ctx context.Context, now time.Duration, attitude DriftInducer, payload OverheatInducer) (model.AnomalyKind, bool) {
	if now-e.schedule.LastAnomalyTime < e.schedule.AnomalyInterval {
		return model.AnomalyNone, false
	}

	kind := model.AnomalyKinds[e.chooser.Intn(len(model.AnomalyKinds))]
	switch kind {
	case model.AnomalyAttitudeDrift:
		attitude.InduceDrift(ctx)
	case model.AnomalyPayloadOverheat:
		payload.InduceOverheat(ctx)
	}
	e.schedule.LastAnomalyTime = now
	e.log.Debug(ctx, "anomaly draw", logging.String("kind", kind.String()))
	return kind, true
}

// HandleEvents evaluates the low-battery thresholds. Every check runs on every
// call; they are not mutually exclusive.
func (e *EventManager) HandleEvents(ctx context.Context, power SolarAdjuster, comm, payload Deactivator) {
	battery := power.BatteryLevel()
	if battery < commCutoffWh {
		comm.Deactivate(ctx)
	}
	if battery < payloadCutoffWh {
		payload.Deactivate(ctx)
	}
	if battery < solarBoostBelow && !power.OrientationAdjusted() {
		power.AdjustOrientationForSolar(ctx)
	}
}
