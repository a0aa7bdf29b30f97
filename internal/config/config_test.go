package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SIM_STEPS", "SIM_TIME_STEP", "SIM_SEED", "SIM_ANOMALIES", "SIM_REALTIME",
		"SIM_METRICS_ADDR", "LOG_LEVEL", "LOG_FORMAT",
		"SIM_TRACING_ENABLED", "SIM_TRACING_EXPORTER", "SIM_TRACING_SERVICE_NAME",
		"SIM_OTLP_ENDPOINT", "SIM_TRACING_SAMPLE_RATIO",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Steps != 60 {
		t.Fatalf("Steps = %d, want 60", cfg.Steps)
	}
	if cfg.TimeStep != 60*time.Second {
		t.Fatalf("TimeStep = %s, want 1m0s", cfg.TimeStep)
	}
	if cfg.Seed != 0 {
		t.Fatalf("Seed = %d, want 0", cfg.Seed)
	}
	if !cfg.Anomalies {
		t.Fatalf("Anomalies = false, want true")
	}
	if cfg.RealTime {
		t.Fatalf("RealTime = true, want false")
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("MetricsAddr = %q, want empty", cfg.MetricsAddr)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("log settings = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.Exporter != "stdout" || cfg.Tracing.SampleRatio != 1 {
		t.Fatalf("Tracing = %+v, want disabled stdout ratio 1", cfg.Tracing)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIM_STEPS", "10")
	t.Setenv("SIM_TIME_STEP", "30s")
	t.Setenv("SIM_SEED", "42")
	t.Setenv("SIM_ANOMALIES", "false")
	t.Setenv("SIM_TRACING_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Steps != 10 || cfg.TimeStep != 30*time.Second || cfg.Seed != 42 || cfg.Anomalies {
		t.Fatalf("cfg = %+v, want steps 10 step 30s seed 42 anomalies off", cfg)
	}
	if !cfg.Tracing.Enabled {
		t.Fatalf("Tracing.Enabled = false, want true")
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("log settings = %q/%q, want debug/json", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestParseEnvError(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIM_STEPS", "many")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIM_STEPS", "10")
	t.Setenv("SIM_SEED", "7")

	cfg, err := Load(newFlagSet(), []string{"-steps", "5", "-step", "2m", "-anomalies=false", "-metrics-addr", ":9100"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Steps != 5 {
		t.Fatalf("Steps = %d, want flag value 5", cfg.Steps)
	}
	if cfg.TimeStep != 2*time.Minute {
		t.Fatalf("TimeStep = %s, want 2m0s", cfg.TimeStep)
	}
	if cfg.Seed != 7 {
		t.Fatalf("Seed = %d, want env value 7", cfg.Seed)
	}
	if cfg.Anomalies {
		t.Fatalf("Anomalies = true, want false")
	}
	if cfg.MetricsAddr != ":9100" {
		t.Fatalf("MetricsAddr = %q, want :9100", cfg.MetricsAddr)
	}
}

func TestLoadRejectsNilFlagSet(t *testing.T) {
	if _, err := Load(nil, nil); err == nil {
		t.Fatal("expected Load to reject nil flag set")
	}
}

func TestLoadValidates(t *testing.T) {
	clearEnv(t)
	_, err := Load(newFlagSet(), []string{"-step", "0s"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadRejectsFractionalStep(t *testing.T) {
	clearEnv(t)
	_, err := Load(newFlagSet(), []string{"-step", "1500ms"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Steps: 60, TimeStep: time.Minute}
	base.Tracing.SampleRatio = 1

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"nominal", func(*Config) {}, false},
		{"zero steps", func(c *Config) { c.Steps = 0 }, false},
		{"negative steps", func(c *Config) { c.Steps = -1 }, true},
		{"zero step", func(c *Config) { c.TimeStep = 0 }, true},
		{"negative step", func(c *Config) { c.TimeStep = -time.Second }, true},
		{"fractional step", func(c *Config) { c.TimeStep = 1500 * time.Millisecond }, true},
		{"sub-second step", func(c *Config) { c.TimeStep = time.Millisecond }, true},
		{"whole seconds", func(c *Config) { c.TimeStep = 90 * time.Second }, false},
		{"ratio above one", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, true},
		{"ratio below zero", func(c *Config) { c.Tracing.SampleRatio = -0.1 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}
