package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	arena "github.com/pavanmanishd/framearena"
	"github.com/pavanmanishd/framearena/internal/config"
	"github.com/pavanmanishd/framearena/internal/scenario"
	"github.com/pavanmanishd/framearena/telemetry"
)

const arenaName = "frame"

// loadConfig reads the config file, if any, and applies command line
// overrides on top.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.ReadFile(path); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(scenarioFlag.Name) {
		cfg.Runner.Scenarios = ctx.StringSlice(scenarioFlag.Name)
	}
	if ctx.IsSet(framesFlag.Name) {
		cfg.Runner.Frames = ctx.Int(framesFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.Runner.Workers = ctx.Int(workersFlag.Name)
	}
	if ctx.IsSet(upstreamFlag.Name) {
		cfg.Arena.Upstream = ctx.String(upstreamFlag.Name)
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.Runner.MetricsAddr = ctx.String(metricsAddrFlag.Name)
	}
	if ctx.IsSet(logFormatFlag.Name) {
		cfg.Runner.LogFormat = ctx.String(logFormatFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func listCommand(ctx *cli.Context) error {
	for _, name := range scenario.Names() {
		s, _ := scenario.Lookup(name)
		fmt.Fprintf(ctx.App.Writer, "%-14s %s\n", s.Name, s.Description)
	}
	return nil
}

func runCommand(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	r := &runner{
		out:       ctx.App.Writer,
		logOut:    ctx.App.ErrWriter,
		verbose:   ctx.Bool(verboseFlag.Name),
		collector: telemetry.NewCollector("framearena"),
	}
	if err := r.reconfigure(cfg); err != nil {
		return err
	}

	if addr := cfg.Runner.MetricsAddr; addr != "" {
		_, stop, err := r.serveMetrics(addr)
		if err != nil {
			return err
		}
		defer stop()
	}

	if !ctx.Bool(watchFlag.Name) {
		return r.run(ctx.Context)
	}
	path := ctx.String(configFlag.Name)
	if path == "" {
		return errors.New("--watch needs --config")
	}
	sctx, cancel := signal.NotifyContext(ctx.Context, os.Interrupt)
	defer cancel()
	if err := r.run(sctx); err != nil {
		r.log.Error("run failed", "err", err)
	}
	return r.watch(sctx, path, func() (*config.Config, error) { return loadConfig(ctx) })
}

type runner struct {
	cfg       *config.Config
	log       *slog.Logger
	out       io.Writer
	logOut    io.Writer
	verbose   bool
	collector *telemetry.Collector
}

// reconfigure installs cfg and rebuilds the logger for its log format.
func (r *runner) reconfigure(cfg *config.Config) error {
	logger, err := newLogger(r.logOut, cfg.Runner.LogFormat, r.verbose)
	if err != nil {
		return err
	}
	r.cfg, r.log = cfg, logger
	return nil
}

type scenarioStats struct {
	frames   int
	objects  int
	cleanups int64
	peak     int
	elapsed  time.Duration
}

func (s *scenarioStats) add(res scenario.Result, d time.Duration) {
	s.frames++
	s.objects += res.Objects
	s.cleanups += res.Cleanups
	if res.Bytes > s.peak {
		s.peak = res.Bytes
	}
	s.elapsed += d
}

func (s *scenarioStats) avg() time.Duration {
	if s.frames == 0 {
		return 0
	}
	return s.elapsed / time.Duration(s.frames)
}

// run executes every selected scenario on a fresh arena.
func (r *runner) run(ctx context.Context) error {
	selected, err := scenario.Select(r.cfg.Runner.Scenarios)
	if err != nil {
		return err
	}
	opts, err := r.cfg.ArenaOptions()
	if err != nil {
		return err
	}
	opts.Telemetry = telemetry.Chain(telemetry.Slog(r.log), r.collector.Telemetry())
	return r.drive(ctx, arena.New(opts), selected)
}

// drive runs selected on a and purges a before returning, on failure and
// cancellation too.
func (r *runner) drive(ctx context.Context, a *arena.Arena, selected []scenario.Scenario) (err error) {
	r.collector.Watch(arenaName, a)
	defer r.collector.Unwatch(arenaName)

	frame := &scenario.Frame{
		Arena:        a,
		Workers:      r.cfg.Runner.Workers,
		ResetTimeout: r.cfg.Wait.ResetTimeout,
	}
	defer func() {
		if !a.PurgeSafely(frame.ResetTimeout+time.Second) && err == nil {
			err = fmt.Errorf("%w: purge", scenario.ErrResetTimeout)
		}
	}()
	frames := r.cfg.Runner.Frames
	if frames <= 0 {
		frames = 1
	}

	r.log.Info("run start", "scenarios", len(selected), "frames", frames, "upstream", r.cfg.Arena.Upstream)
	for _, s := range selected {
		var st scenarioStats
		for i := 0; i < frames; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := s.Run(frame)
			if err != nil {
				return fmt.Errorf("scenario %s frame %d: %w", s.Name, i, err)
			}
			st.add(res, time.Since(start))
		}
		r.log.Info("scenario done", "scenario", s.Name, "frames", st.frames, "objects", st.objects,
			"cleanups", st.cleanups, "peak_bytes", st.peak, "avg", st.avg())
		fmt.Fprintf(r.out, "%-14s frames=%-4d objects=%-8d cleanups=%-7d peak=%-8d avg=%s\n",
			s.Name, st.frames, st.objects, st.cleanups, st.peak, st.avg())
	}

	m := a.Metrics()
	fmt.Fprintf(r.out, "arena: reserved=%d blocks=%d spare=%d\n", m.Reserved, m.NumBlocks, m.SpareBlocks)
	return nil
}

// metricsShutdownTimeout bounds how long stop waits for open scrapes.
var metricsShutdownTimeout = time.Second

// serveMetrics exposes the collector over HTTP until stop is called. It
// returns the bound address, which differs from addr for port 0.
func (r *runner) serveMetrics(addr string) (bound net.Addr, stop func(), err error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(r.collector); err != nil {
		return nil, nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	bound = ln.Addr()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error("metrics server failed", "addr", bound, "err", err)
		}
	}()
	r.log.Info("serving metrics", "addr", bound)
	return bound, func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			r.log.Warn("metrics server shutdown failed", "addr", bound, "err", err)
		}
	}, nil
}

// watch reruns the workload each time the config file is written. The
// directory is watched so that editors replacing the file are seen too.
func (r *runner) watch(ctx context.Context, path string, reload func() (*config.Config, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)
	r.log.Info("watching config", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := reload()
			if err != nil {
				r.log.Warn("config reload failed", "err", err)
				continue
			}
			if err := r.reconfigure(cfg); err != nil {
				r.log.Warn("config reload failed", "err", err)
				continue
			}
			if err := r.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error("run failed", "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watch error", "err", err)
		}
	}
}
