package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/signalsfoundry/spacecraft-simulator/model"
)

func sampleFrame() model.Telemetry {
	return model.Telemetry{
		Tick:       1,
		Elapsed:    time.Minute,
		InEclipse:  true,
		AnomalyDue: true,
		Anomaly:    model.AnomalyPayloadOverheat,
		Power:      model.PowerState{BatteryCapacityWh: 100, BatteryLevelWh: 42.5, SolarInputW: 15},
		Attitude:   model.AttitudeState{OrientationDeg: 1.5},
		Payload:    model.PayloadState{Active: true, TemperatureC: 30.8, FanOn: true, Overheated: true},
		Comm:       model.CommState{Active: false},
	}
}

func TestObserveTelemetrySetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.ObserveTelemetry(sampleFrame())

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"spacecraft_ticks_total", testutil.ToFloat64(collector.TicksTotal), 1},
		{"spacecraft_battery_wh", testutil.ToFloat64(collector.BatteryWh), 42.5},
		{"spacecraft_solar_input_watts", testutil.ToFloat64(collector.SolarInputW), 15},
		{"spacecraft_payload_temperature_celsius", testutil.ToFloat64(collector.PayloadTemperature), 30.8},
		{"spacecraft_orientation_degrees", testutil.ToFloat64(collector.OrientationDeg), 1.5},
		{"spacecraft_in_eclipse", testutil.ToFloat64(collector.InEclipse), 1},
		{"subsystem_active payload", testutil.ToFloat64(collector.SubsystemActive.WithLabelValues("payload")), 1},
		{"subsystem_active comm", testutil.ToFloat64(collector.SubsystemActive.WithLabelValues("comm")), 0},
		{"anomalies payload", testutil.ToFloat64(collector.Anomalies.WithLabelValues("payload")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestObserveTelemetrySkipsAnomalyWhenNotDue(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	frame := sampleFrame()
	frame.AnomalyDue = false
	collector.ObserveTelemetry(frame)

	if got := testutil.CollectAndCount(collector.Anomalies); got != 0 {
		t.Fatalf("anomaly series = %d, want 0", got)
	}
}

func TestTickDurationHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.ObserveTickDuration(50 * time.Microsecond)
	collector.ObserveTickDuration(2 * time.Millisecond)

	if count := histogramSampleCount(t, reg, "spacecraft_tick_duration_seconds"); count != 2 {
		t.Fatalf("spacecraft_tick_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("first NewSimCollector: %v", err)
	}
	second, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("second NewSimCollector: %v", err)
	}
	second.IncTransition("comm_offline")
	if got := testutil.ToFloat64(first.Transitions.WithLabelValues("comm_offline")); got != 1 {
		t.Fatalf("shared transitions counter = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *SimCollector
	c.ObserveTelemetry(sampleFrame())
	c.ObserveTickDuration(time.Millisecond)
	c.IncTransition("eclipse_entered")
	if c.Gatherer() != nil {
		t.Fatalf("nil collector returned a gatherer")
	}
}

func TestMetricsHandlerExposesSimulationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.ObserveTelemetry(sampleFrame())
	collector.ObserveTickDuration(time.Millisecond)
	collector.IncTransition("eclipse_entered")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"spacecraft_ticks_total",
		"spacecraft_tick_duration_seconds",
		"spacecraft_battery_wh 42.5",
		"spacecraft_solar_input_watts 15",
		"spacecraft_in_eclipse 1",
		`spacecraft_subsystem_active{subsystem="comm"} 0`,
		`spacecraft_anomalies_total{kind="payload"} 1`,
		`spacecraft_transitions_total{type="eclipse_entered"} 1`,
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output:\n%s", metric, body)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if h := histogramOf(m); h != nil {
				return h.GetSampleCount()
			}
		}
	}
	return 0
}

func histogramOf(m *dto.Metric) *dto.Histogram {
	if m == nil {
		return nil
	}
	return m.GetHistogram()
}
