package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/spacecraft-simulator/model"
)

// SimCollector bundles Prometheus metrics for a simulation run: the latest
// subsystem readings as gauges plus counters for ticks, anomalies and
// transitions.
type SimCollector struct {
	gatherer prometheus.Gatherer

	TicksTotal   prometheus.Counter
	TickDuration prometheus.Histogram

	BatteryWh          prometheus.Gauge
	SolarInputW        prometheus.Gauge
	PayloadTemperature prometheus.Gauge
	OrientationDeg     prometheus.Gauge
	InEclipse          prometheus.Gauge
	SubsystemActive    *prometheus.GaugeVec

	Anomalies   *prometheus.CounterVec
	Transitions *prometheus.CounterVec
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spacecraft_ticks_total",
		Help: "Number of simulation ticks completed.",
	}), "spacecraft_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "spacecraft_tick_duration_seconds",
		Help:    "Wall-clock time spent computing one simulation tick.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "spacecraft_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	battery, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spacecraft_battery_wh",
		Help: "Stored battery energy in watt-hours.",
	}), "spacecraft_battery_wh")
	if err != nil {
		return nil, err
	}
	solar, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spacecraft_solar_input_watts",
		Help: "Current solar array input in watts.",
	}), "spacecraft_solar_input_watts")
	if err != nil {
		return nil, err
	}
	temperature, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spacecraft_payload_temperature_celsius",
		Help: "Payload camera temperature in degrees Celsius.",
	}), "spacecraft_payload_temperature_celsius")
	if err != nil {
		return nil, err
	}
	orientation, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spacecraft_orientation_degrees",
		Help: "Accumulated attitude drift in degrees.",
	}), "spacecraft_orientation_degrees")
	if err != nil {
		return nil, err
	}
	eclipse, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spacecraft_in_eclipse",
		Help: "1 while the spacecraft is in eclipse, 0 otherwise.",
	}), "spacecraft_in_eclipse")
	if err != nil {
		return nil, err
	}

	active, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spacecraft_subsystem_active",
		Help: "1 while a switchable subsystem is on, 0 once it has been shut down.",
	}, []string{"subsystem"}), "spacecraft_subsystem_active")
	if err != nil {
		return nil, err
	}

	anomalies, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spacecraft_anomalies_total",
		Help: "Anomaly draws, labeled by outcome.",
	}, []string{"kind"}), "spacecraft_anomalies_total")
	if err != nil {
		return nil, err
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spacecraft_transitions_total",
		Help: "State transitions derived from consecutive telemetry frames, labeled by type.",
	}, []string{"type"}), "spacecraft_transitions_total")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:           gatherer,
		TicksTotal:         ticks,
		TickDuration:       tickDuration,
		BatteryWh:          battery,
		SolarInputW:        solar,
		PayloadTemperature: temperature,
		OrientationDeg:     orientation,
		InEclipse:          eclipse,
		SubsystemActive:    active,
		Anomalies:          anomalies,
		Transitions:        transitions,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTelemetry updates the gauges from a frame and counts the tick and
// any anomaly draw it carries.
func (c *SimCollector) ObserveTelemetry(t model.Telemetry) {
	if c == nil {
		return
	}
	c.TicksTotal.Inc()
	c.BatteryWh.Set(t.Power.BatteryLevelWh)
	c.SolarInputW.Set(t.Power.SolarInputW)
	c.PayloadTemperature.Set(t.Payload.TemperatureC)
	c.OrientationDeg.Set(t.Attitude.OrientationDeg)
	c.InEclipse.Set(boolToFloat(t.InEclipse))
	c.SubsystemActive.WithLabelValues("payload").Set(boolToFloat(t.Payload.Active))
	c.SubsystemActive.WithLabelValues("comm").Set(boolToFloat(t.Comm.Active))
	if t.AnomalyDue {
		c.Anomalies.WithLabelValues(t.Anomaly.String()).Inc()
	}
}

// ObserveTickDuration records the wall-clock cost of one tick.
func (c *SimCollector) ObserveTickDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
}

// IncTransition counts a derived state transition.
func (c *SimCollector) IncTransition(kind string) {
	if c == nil {
		return
	}
	c.Transitions.WithLabelValues(kind).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
