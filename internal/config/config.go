// Package config loads simulator settings from the environment and lets
// command-line flags override them.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/signalsfoundry/spacecraft-simulator/internal/observability"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings for one simulation run.
type Config struct {
	Steps       int           `env:"SIM_STEPS" envDefault:"60"`
	TimeStep    time.Duration `env:"SIM_TIME_STEP" envDefault:"60s"`
	Seed        int64         `env:"SIM_SEED" envDefault:"0"` // 0 = generate
	Anomalies   bool          `env:"SIM_ANOMALIES" envDefault:"true"`
	RealTime    bool          `env:"SIM_REALTIME" envDefault:"false"`
	MetricsAddr string        `env:"SIM_METRICS_ADDR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	Tracing observability.TracingConfig
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FromEnv returns a Config populated from the environment and defaults.
func FromEnv() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RegisterFlags binds command-line overrides onto cfg. Call it after the
// environment has been parsed so the current values become flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Steps, "steps", c.Steps, "number of simulation ticks")
	fs.DurationVar(&c.TimeStep, "step", c.TimeStep, "simulated time per tick")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "anomaly random seed (0 = generate)")
	fs.BoolVar(&c.Anomalies, "anomalies", c.Anomalies, "inject random anomalies")
	fs.BoolVar(&c.RealTime, "realtime", c.RealTime, "pace ticks at wall-clock speed")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address until interrupted (empty disables)")
}

// Load parses the environment, then args against fs, then validates.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.RegisterFlags(fs)
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulator cannot run with.
func (c Config) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("steps %d must not be negative: %w", c.Steps, ErrInvalidConfig)
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("time step %s must be positive: %w", c.TimeStep, ErrInvalidConfig)
	}
	// The status report shows whole seconds.
	if c.TimeStep%time.Second != 0 {
		return fmt.Errorf("time step %s must be a whole number of seconds: %w", c.TimeStep, ErrInvalidConfig)
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("tracing sample ratio %v outside [0, 1]: %w", r, ErrInvalidConfig)
	}
	return nil
}
