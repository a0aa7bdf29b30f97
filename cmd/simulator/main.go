package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/spacecraft-simulator/core"
	"github.com/signalsfoundry/spacecraft-simulator/internal/config"
	"github.com/signalsfoundry/spacecraft-simulator/internal/logging"
	"github.com/signalsfoundry/spacecraft-simulator/internal/observability"
	"github.com/signalsfoundry/spacecraft-simulator/internal/random"
	"github.com/signalsfoundry/spacecraft-simulator/internal/sim"
	"github.com/signalsfoundry/spacecraft-simulator/timectrl"
)

const (
	banner = " Spacecraft Simulation Starting...\n\n"
	footer = "\n Simulation Complete.\n"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one simulation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "simulator: %v\n", err)
		return 2
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})

	seed, err := random.ResolveSeed(cfg.Seed)
	if err != nil {
		log.Error(ctx, "failed to generate seed", logging.Err(err))
		return 1
	}

	cfg.Tracing.Writer = stderr
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	opts := []sim.Option{
		sim.WithOutput(stdout),
		sim.WithLogger(log),
	}
	if cfg.Anomalies {
		opts = append(opts, sim.WithChooser(random.NewSource(seed)))
		log.Info(ctx, "anomaly injection enabled", logging.Any("seed", seed))
	} else {
		opts = append(opts, sim.WithChooser(core.NoAnomalies{}))
	}
	if cfg.RealTime {
		opts = append(opts, sim.WithMode(timectrl.RealTime))
	}

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		collector, err := observability.NewSimCollector(prometheus.NewRegistry())
		if err != nil {
			log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
			return 1
		}
		opts = append(opts, sim.WithMetrics(collector))
		srv, err = serveMetrics(cfg.MetricsAddr, collector, log)
		if err != nil {
			log.Error(ctx, "failed to start metrics server", logging.Err(err))
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runner, err := sim.NewRunner(cfg.Steps, cfg.TimeStep, opts...)
	if err != nil {
		log.Error(ctx, "invalid run parameters", logging.Err(err))
		return 2
	}

	fmt.Fprint(stdout, banner)
	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn(ctx, "simulation interrupted")
			return 130
		}
		log.Error(ctx, "simulation failed", logging.Err(err))
		return 1
	}
	fmt.Fprint(stdout, footer)

	// The final values stay scrapeable until the process is signalled.
	if srv != nil {
		log.Info(ctx, "run finished; serving metrics until interrupted", logging.String("addr", srv.Addr))
		<-ctx.Done()
	}
	return 0
}

// serveMetrics binds addr before returning so a bad address fails the run
// instead of surfacing later from the serving goroutine.
func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", srv.Addr))
	return srv, nil
}
