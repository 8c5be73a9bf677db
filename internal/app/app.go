// Package app wires the configuration, the collector and its consumers
// into the loadwatch process.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/loadwatch/internal/config"
	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
	"github.com/Dicklesworthstone/loadwatch/internal/logging"
	"github.com/Dicklesworthstone/loadwatch/internal/metrics"
	"github.com/Dicklesworthstone/loadwatch/internal/procfs"
	"github.com/Dicklesworthstone/loadwatch/internal/report"
	"github.com/Dicklesworthstone/loadwatch/internal/sampler"
	"github.com/Dicklesworthstone/loadwatch/internal/ui"
)

// settleDelay gives the detached collector time to publish its priming
// sample before the first poll.
const settleDelay = 200 * time.Millisecond

// minPoll bounds the detached polling period for a zero interval.
const minPoll = 10 * time.Millisecond

// Application is one loadwatch run.
type Application struct {
	Config    config.Config
	ErrWriter io.Writer

	log      logging.Logger
	source   sampler.Snapshots
	hostInfo func(context.Context) (string, error)
	now      func() time.Time
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithSource replaces the procfs source, typically with an in-memory one.
func WithSource(src sampler.Snapshots) AppOption {
	return func(a *Application) { a.source = src }
}

// WithHostInfo replaces the host description printed in debug mode.
func WithHostInfo(f func(context.Context) (string, error)) AppOption {
	return func(a *Application) { a.hostInfo = f }
}

// WithClock replaces the clock used for the banner.
func WithClock(now func() time.Time) AppOption {
	return func(a *Application) { a.now = now }
}

// New parses args (program name first) and prepares the logger.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{
		ErrWriter: errWriter,
		hostInfo:  describeHost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(app)
	}

	programName := "loadwatch"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.Parse(programName, cmdArgs, errWriter)
	if err != nil {
		if !IsHelpError(err) {
			fmt.Fprintf(errWriter, "** ERROR - %v\n", err)
		}
		return nil, err
	}
	app.Config = cfg

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	zl, err := logging.New(errWriter, logging.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(errWriter, "** ERROR - %v\n", err)
		return nil, err
	}
	app.log = zl
	if app.source == nil {
		app.source = procfs.NewSource(cfg.ProcRoot)
	}
	return app, nil
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// Run samples until ctx is done or a termination signal arrives, and
// returns the process exit code. A signal is a normal termination.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	cfg := a.Config
	for _, w := range cfg.Warnings {
		a.log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(ctx, terminationSignals...)
	defer stop()

	printer := report.NewPrinter(out, cfg)
	if !cfg.TUI {
		printer.Banner(a.now())
		if cfg.Debug {
			if desc, err := a.hostInfo(ctx); err != nil {
				a.log.Debug("host information unavailable", logging.Err(err))
			} else {
				printer.Host(desc)
			}
		}
		printer.Configuration(cfg)
	}

	var opts []sampler.Option
	if !cfg.TUI {
		opts = append(opts, sampler.WithObserver(printer))
	}
	collector := sampler.NewCollector(sampler.Config{
		Interval:   cfg.Interval,
		ThreadName: cfg.ThreadName,
		CPUName:    cfg.CPUName,
		Interface:  cfg.Interface,
		LoadType:   cfg.LoadType,
		Threshold:  cfg.Threshold,
		SampleAll:  cfg.SampleAll(),
	}, a.source, a.log.With(logging.String("component", "sampler")), opts...)

	a.log.Debug("starting",
		logging.Bool("joinable", cfg.Joinable),
		logging.Bool("tui", cfg.TUI),
		logging.Duration("interval", cfg.Interval),
		logging.String("proc_root", cfg.ProcRoot))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, collector, a.log.With(logging.String("component", "metrics")))
		g.Go(func() error { return srv.Run(gctx) })
	}

	switch {
	case cfg.TUI:
		g.Go(func() error {
			if err := collector.Start(gctx); err != nil {
				return err
			}
			defer collector.Wait()
			defer collector.Cancel()
			return ui.RunTUI(gctx, collector, 0, stop)
		})
	case cfg.Joinable:
		g.Go(func() error { return collector.Run(gctx) })
	default:
		g.Go(func() error { return a.runDetached(gctx, collector, printer) })
	}

	err := g.Wait()
	if err == nil || apperrors.IsContextError(err) {
		if !cfg.TUI {
			report.Terminated(out, a.ErrWriter, nil)
		}
		return apperrors.ExitSuccess
	}
	a.log.Error("terminated", err)
	report.Terminated(out, a.ErrWriter, err)
	return apperrors.ExitCode(err)
}

// runDetached starts the collector on its own goroutine and polls its
// threshold slot once per interval.
func (a *Application) runDetached(ctx context.Context, c *sampler.Collector, p *report.Printer) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Wait()
	defer c.Cancel()

	settle := time.NewTimer(settleDelay)
	defer settle.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-settle.C:
	}

	ticker := time.NewTicker(max(a.Config.Interval, minPoll))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return nil
		case <-ticker.C:
			p.Detached(c.Threshold(), c.Limit())
		}
	}
}

// describeHost summarizes the machine for the debug banner.
func describeHost(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	desc := fmt.Sprintf("%s %s %s (%s %s), up %s",
		info.Hostname, info.OS, info.KernelVersion,
		info.Platform, info.PlatformVersion,
		time.Duration(info.Uptime)*time.Second)
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		desc += fmt.Sprintf(", %d cpus", n)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		desc += fmt.Sprintf(", %.1f GiB", float64(vm.Total)/(1<<30))
	}
	if misc, err := load.MiscWithContext(ctx); err == nil {
		desc += fmt.Sprintf(", %d procs (%d running)", misc.ProcsTotal, misc.ProcsRunning)
	}
	return desc, nil
}
