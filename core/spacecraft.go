package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/model"
)

// DefaultTimeStep is the tick length of the reference run.
const DefaultTimeStep = 60 * time.Second

// Spacecraft owns one instance of each subsystem and sequences the per-tick
// update order.
type Spacecraft struct {
	elapsed time.Duration
	tick    int

	power    *PowerSystem
	attitude *AttitudeControlSystem
	payload  *PayloadCamera
	comm     *CommSystem
	events   *EventManager

	// update order within a tick
	subsystems []Subsystem

	inEclipse  bool
	anomalyDue bool
	anomaly    model.AnomalyKind
	solarBoost bool

	log logging.Logger
}

type spacecraftOptions struct {
	chooser     Chooser
	log         logging.Logger
	powerOpts   []PowerOption
	payloadOpts []PayloadOption
}

// Option customises a Spacecraft at construction.
type Option func(*spacecraftOptions)

// WithChooser sets the anomaly random source.
func WithChooser(c Chooser) Option {
	return func(o *spacecraftOptions) { o.chooser = c }
}

// WithSeed draws anomalies from a math/rand source seeded with seed.
func WithSeed(seed int64) Option {
	return func(o *spacecraftOptions) { o.chooser = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the logger shared by all subsystems.
func WithLogger(log logging.Logger) Option {
	return func(o *spacecraftOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithPowerOptions forwards options to the power system.
func WithPowerOptions(opts ...PowerOption) Option {
	return func(o *spacecraftOptions) { o.powerOpts = append(o.powerOpts, opts...) }
}

// WithPayloadOptions forwards options to the payload camera.
func WithPayloadOptions(opts ...PayloadOption) Option {
	return func(o *spacecraftOptions) { o.payloadOpts = append(o.payloadOpts, opts...) }
}

// NewSpacecraft builds the reference spacecraft. Without WithChooser or
// WithSeed, anomalies are drawn from a source seeded with 1.
func NewSpacecraft(opts ...Option) *Spacecraft {
	o := spacecraftOptions{log: logging.Noop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chooser == nil {
		o.chooser = rand.New(rand.NewSource(1))
	}

	power := NewPowerSystem(append([]PowerOption{WithPowerLogger(o.log.With(logging.String("subsystem", "power")))}, o.powerOpts...)...)
	attitude := NewAttitudeControlSystem(o.log.With(logging.String("subsystem", "attitude")))
	payload := NewPayloadCamera(power, append([]PayloadOption{WithPayloadLogger(o.log.With(logging.String("subsystem", "payload")))}, o.payloadOpts...)...)
	comm := NewCommSystem(power, o.log.With(logging.String("subsystem", "comm")))
	events := NewEventManager(o.chooser, o.log.With(logging.String("subsystem", "events")))

	return &Spacecraft{
		power:      power,
		attitude:   attitude,
		payload:    payload,
		comm:       comm,
		events:     events,
		subsystems: []Subsystem{power, attitude, payload, comm},
		anomaly:    model.AnomalyNone,
		log:        o.log,
	}
}

// Update advances the simulation by step. The order within a tick is fixed:
// eclipse check and solar input, anomaly injection, power, attitude, payload,
// comm, then the threshold cascade. A negative step is rejected without
// touching any state.
func (s *Spacecraft) Update(ctx context.Context, step time.Duration) error {
	if step < 0 {
		return fmt.Errorf("time step %s: %w", step, ErrInvalidDuration)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.elapsed += step
	s.tick++
	ctx = logging.ContextWithTick(ctx, s.tick, s.elapsed)

	s.inEclipse = s.events.InEclipse(s.elapsed)
	if s.inEclipse {
		s.power.SetSolarInput(0)
		s.log.Debug(ctx, "eclipse: no solar input")
	} else {
		if s.power.OrientationAdjusted() {
			s.power.ResetOrientationAdjustment()
		}
		s.power.SetSolarInput(NominalSolarInputW)
	}

	s.anomaly, s.anomalyDue = s.events.InjectRandomAnomalies(ctx, s.elapsed, s.attitude, s.payload)

	for _, sub := range s.subsystems {
		sub.Update(ctx, step)
	}

	adjusted := s.power.OrientationAdjusted()
	s.events.HandleEvents(ctx, s.power, s.comm, s.payload)
	s.solarBoost = !adjusted && s.power.OrientationAdjusted()
	return nil
}

// Elapsed returns the simulated time since start.
func (s *Spacecraft) Elapsed() time.Duration { return s.elapsed }

// Ticks returns the number of completed updates.
func (s *Spacecraft) Ticks() int { return s.tick }

// Power returns the power system.
func (s *Spacecraft) Power() *PowerSystem { return s.power }

// Attitude returns the attitude control system.
func (s *Spacecraft) Attitude() *AttitudeControlSystem { return s.attitude }

// Payload returns the payload camera.
func (s *Spacecraft) Payload() *PayloadCamera { return s.payload }

// Comm returns the comm system.
func (s *Spacecraft) Comm() *CommSystem { return s.comm }

// Events returns the event manager.
func (s *Spacecraft) Events() *EventManager { return s.events }

// Telemetry returns a snapshot of the spacecraft after the last update.
func (s *Spacecraft) Telemetry() model.Telemetry {
	return model.Telemetry{
		Tick:       s.tick,
		Elapsed:    s.elapsed,
		InEclipse:  s.inEclipse,
		AnomalyDue: s.anomalyDue,
		Anomaly:    s.anomaly,

		SolarBoostApplied: s.solarBoost,

		Power:    s.power.State(),
		Attitude: s.attitude.State(),
		Payload:  s.payload.State(),
		Comm:     s.comm.State(),
	}
}
