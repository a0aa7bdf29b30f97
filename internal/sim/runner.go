// Package sim wires a Spacecraft to the tick driver and the run's outputs:
// the status report, telemetry history, metrics and tracing.
package sim

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/spacecraft-simulator/core"
	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/internal/observability"
	"github.com/signalsfoundry/spacecraft-simulator/model"
	"github.com/signalsfoundry/spacecraft-simulator/telemetry"
	"github.com/signalsfoundry/spacecraft-simulator/timectrl"
)

// MetricsRecorder receives per-tick measurements. *observability.SimCollector
// implements it.
type MetricsRecorder interface {
	ObserveTelemetry(model.Telemetry)
	ObserveTickDuration(time.Duration)
	IncTransition(kind string)
}

var _ MetricsRecorder = (*observability.SimCollector)(nil)

type noopMetrics struct{}

func (noopMetrics) ObserveTelemetry(model.Telemetry)  {}
func (noopMetrics) ObserveTickDuration(time.Duration) {}
func (noopMetrics) IncTransition(string)              {}

// Runner executes one simulation run.
type Runner struct {
	craft *core.Spacecraft
	clock *timectrl.TimeController
	steps int

	out     io.Writer
	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
	store   *telemetry.Store
}

type runnerOptions struct {
	out       io.Writer
	log       logging.Logger
	metrics   MetricsRecorder
	tracer    trace.Tracer
	store     *telemetry.Store
	mode      timectrl.Mode
	craftOpts []core.Option
}

// Option customises a Runner.
type Option func(*runnerOptions)

// WithChooser sets the anomaly random source. Use core.NoAnomalies{} for a
// deterministic nominal run.
func WithChooser(c core.Chooser) Option {
	return func(o *runnerOptions) { o.craftOpts = append(o.craftOpts, core.WithChooser(c)) }
}

// WithSpacecraftOptions forwards options to the spacecraft.
func WithSpacecraftOptions(opts ...core.Option) Option {
	return func(o *runnerOptions) { o.craftOpts = append(o.craftOpts, opts...) }
}

// WithOutput sets where the per-tick status report is written. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *runnerOptions) { o.out = w }
}

// WithLogger sets the logger for the runner and the spacecraft.
func WithLogger(log logging.Logger) Option {
	return func(o *runnerOptions) { o.log = log }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *runnerOptions) { o.metrics = m }
}

// WithTracer sets the tracer used for per-tick spans. Defaults to the global
// tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *runnerOptions) { o.tracer = t }
}

// WithTelemetry records frames into store instead of a private one.
func WithTelemetry(store *telemetry.Store) Option {
	return func(o *runnerOptions) { o.store = store }
}

// WithMode selects accelerated or real-time pacing.
func WithMode(m timectrl.Mode) Option {
	return func(o *runnerOptions) { o.mode = m }
}

// NewRunner builds a runner for steps ticks of step simulated time each.
func NewRunner(steps int, step time.Duration, opts ...Option) (*Runner, error) {
	o := runnerOptions{mode: timectrl.Accelerated}
	for _, opt := range opts {
		opt(&o)
	}
	if steps < 0 {
		return nil, fmt.Errorf("tick count %d: %w", steps, timectrl.ErrInvalidStep)
	}
	clock, err := timectrl.NewTimeController(step, o.mode)
	if err != nil {
		return nil, err
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	if o.log == nil {
		o.log = logging.Noop()
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(observability.TracerName)
	}

	craft := core.NewSpacecraft(append([]core.Option{core.WithLogger(o.log)}, o.craftOpts...)...)
	if o.store == nil {
		o.store = telemetry.NewStore(craft.Telemetry())
	}

	r := &Runner{
		craft:   craft,
		clock:   clock,
		steps:   steps,
		out:     o.out,
		log:     o.log,
		metrics: o.metrics,
		tracer:  o.tracer,
		store:   o.store,
	}
	r.store.Subscribe(func(ev telemetry.Event) {
		r.metrics.IncTransition(ev.Type.String())
	})
	clock.AddListener(r.tick)
	return r, nil
}

// Spacecraft returns the simulated spacecraft.
func (r *Runner) Spacecraft() *core.Spacecraft { return r.craft }

// Clock returns the simulation clock.
func (r *Runner) Clock() timectrl.SimClock { return r.clock }

// Telemetry returns the run's telemetry history.
func (r *Runner) Telemetry() *telemetry.Store { return r.store }

// Run executes the configured number of ticks. It returns ctx.Err() if the
// context is cancelled between ticks.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info(ctx, "simulation starting",
		logging.Int("steps", r.steps),
		logging.Duration("step", r.clock.Step),
		logging.String("mode", r.clock.Mode.String()),
	)
	if err := r.clock.Run(ctx, r.steps); err != nil {
		r.log.Warn(ctx, "simulation stopped", logging.Int("ticks", r.clock.Ticks()), logging.Err(err))
		return err
	}
	r.log.Info(ctx, "simulation complete", logging.Int("ticks", r.clock.Ticks()))
	return nil
}

func (r *Runner) tick(ctx context.Context, tick int, elapsed time.Duration) error {
	start := time.Now()
	ctx = logging.ContextWithTick(ctx, tick, elapsed)
	ctx, span := r.tracer.Start(ctx, "sim.tick", trace.WithAttributes(
		attribute.Int("sim.tick", tick),
		attribute.Int64("sim.elapsed_s", int64(elapsed/time.Second)),
	))
	defer span.End()

	if err := r.craft.Update(ctx, r.clock.Step); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	frame := r.craft.Telemetry()
	span.SetAttributes(
		attribute.Float64("power.battery_wh", frame.Power.BatteryLevelWh),
		attribute.Float64("power.solar_input_w", frame.Power.SolarInputW),
		attribute.Bool("sim.in_eclipse", frame.InEclipse),
	)
	if frame.AnomalyDue {
		span.SetAttributes(attribute.String("sim.anomaly", frame.Anomaly.String()))
	}

	r.metrics.ObserveTelemetry(frame)
	for _, ev := range r.store.Record(frame) {
		span.AddEvent(ev.Type.String())
		r.logEvent(ctx, ev)
	}

	if err := r.craft.WriteStatus(r.out); err != nil {
		err = fmt.Errorf("write status: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.metrics.ObserveTickDuration(time.Since(start))
	return nil
}

func (r *Runner) logEvent(ctx context.Context, ev telemetry.Event) {
	switch ev.Type {
	case telemetry.EventPayloadOff, telemetry.EventCommOffline:
		r.log.Warn(ctx, "subsystem shut down", logging.String("event", ev.Type.String()))
	case telemetry.EventAnomalyInjected:
		r.log.Info(ctx, "anomaly injected", logging.String("kind", ev.Anomaly.String()))
	default:
		r.log.Debug(ctx, "transition", logging.String("event", ev.Type.String()))
	}
}
