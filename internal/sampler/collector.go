package sampler

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Dicklesworthstone/loadwatch/internal/logging"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

// ErrAlreadyStarted is returned by Run and Start on a collector that has
// already been started. Collectors are single-use.
var ErrAlreadyStarted = errors.New("collector already started")

// minWait bounds the wait between cycles when the interval is zero.
const minWait = 10 * time.Millisecond

// Phase is the lifecycle position of a Collector.
type Phase int32

const (
	PhaseInitializing Phase = iota
	PhasePrimed
	PhasePeriodic
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhasePrimed:
		return "primed"
	case PhasePeriodic:
		return "periodic"
	case PhaseCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Config carries the collection settings.
type Config struct {
	Interval   time.Duration
	ThreadName string
	CPUName    string
	Interface  string
	LoadType   model.LoadType
	Threshold  float64
	// SampleAll refreshes CPU, memory and network on every cycle. Without
	// it only the load averages, which feed the threshold, are refreshed
	// after the priming sample.
	SampleAll bool
}

// Observer receives every published sample on the collector goroutine.
type Observer interface {
	Primed(model.Sample)
	Cycle(model.Sample)
}

// Option configures a Collector.
type Option func(*Collector)

// WithObserver registers o for prime and cycle notifications.
func WithObserver(o Observer) Option {
	return func(c *Collector) { c.observers = append(c.observers, o) }
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Collector) { c.tracer = t }
}

// Collector runs the sampling loop: one priming sample of every family, then
// one cycle per interval until cancelled. The sampler State is confined to
// the loop goroutine; readers see published copies.
type Collector struct {
	cfg       Config
	sampler   *Sampler
	log       logging.Logger
	tracer    trace.Tracer
	observers []Observer

	state          State
	seq            uint64
	prevThreadName string

	mu     sync.RWMutex
	latest model.Sample
	cancel context.CancelFunc

	threshold atomic.Uint64 // float64 bits
	phase     atomic.Int32
	running   atomic.Bool
	started   atomic.Bool
	done      chan struct{}
}

// NewCollector returns a collector reading from src.
func NewCollector(cfg Config, src Snapshots, log logging.Logger, opts ...Option) *Collector {
	if log == nil {
		log = logging.Nop()
	}
	c := &Collector{
		cfg:     cfg,
		sampler: NewSampler(src, log, cfg.CPUName, cfg.Interface, cfg.Interval),
		log:     log,
		tracer:  otel.Tracer("github.com/Dicklesworthstone/loadwatch/internal/sampler"),
		latest:  model.Zero(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run samples on the calling goroutine until ctx is done or Cancel is
// called (join mode).
func (c *Collector) Run(ctx context.Context) error {
	ctx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	c.loop(ctx)
	return nil
}

// Start samples on a new goroutine and returns immediately (detached mode).
// Callers poll Threshold or Snapshot, and may Wait for the loop to end.
func (c *Collector) Start(ctx context.Context) error {
	ctx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	go c.loop(ctx)
	return nil
}

func (c *Collector) begin(ctx context.Context) (context.Context, error) {
	if !c.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	c.running.Store(true)
	return ctx, nil
}

// Cancel stops the loop. The wait between cycles is interrupted, so the
// loop exits promptly rather than at the end of the interval.
func (c *Collector) Cancel() {
	c.mu.RLock()
	cancel := c.cancel
	c.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Running reports whether the loop is active.
func (c *Collector) Running() bool { return c.running.Load() }

// Phase returns the current lifecycle phase.
func (c *Collector) Phase() Phase { return Phase(c.phase.Load()) }

// Done is closed when the loop has exited.
func (c *Collector) Done() <-chan struct{} { return c.done }

// Wait blocks until the loop has exited.
func (c *Collector) Wait() { <-c.done }

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)
	defer c.running.Store(false)
	defer c.phase.Store(int32(PhaseCancelled))
	defer c.Cancel()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if c.cfg.ThreadName != "" {
		c.nameThread()
		// Restored before UnlockOSThread hands the thread back to the scheduler.
		defer c.restoreThreadName()
	}

	c.phase.Store(int32(PhasePrimed))
	c.sampler.SampleAll(&c.state)
	s := c.publish()
	for _, o := range c.observers {
		o.Primed(s)
	}

	c.phase.Store(int32(PhasePeriodic))
	ticker := time.NewTicker(max(c.cfg.Interval, minWait))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s := c.cycle(ctx)
		for _, o := range c.observers {
			o.Cycle(s)
		}
	}
}

func (c *Collector) nameThread() {
	prev, err := threadName()
	if err != nil {
		c.log.Debug("could not read the thread name", logging.Err(err))
	}
	c.prevThreadName = prev
	if err := setThreadName(c.cfg.ThreadName); err != nil {
		c.log.Warn("could not name the sampling thread",
			logging.String("thread", c.cfg.ThreadName), logging.Err(err))
	}
}

func (c *Collector) restoreThreadName() {
	if c.prevThreadName == "" {
		return
	}
	if err := setThreadName(c.prevThreadName); err != nil {
		c.log.Debug("could not restore the thread name",
			logging.String("thread", c.prevThreadName), logging.Err(err))
	}
}

func (c *Collector) cycle(ctx context.Context) model.Sample {
	_, span := c.tracer.Start(ctx, "sampler.cycle")
	defer span.End()

	_ = c.sampler.SampleLoad(&c.state)
	if c.cfg.SampleAll {
		_ = c.sampler.SampleCPU(&c.state)
		_ = c.sampler.SampleNet(&c.state)
		_ = c.sampler.SampleMem(&c.state)
	}
	s := c.publish()
	span.SetAttributes(
		attribute.Int64("loadwatch.seq", int64(s.Seq)),
		attribute.Float64("loadwatch.threshold", s.Threshold),
		attribute.Bool("loadwatch.overloaded", s.Overloaded),
	)
	return s
}

func (c *Collector) publish() model.Sample {
	c.seq++
	st := c.state
	value := st.Load.Select(c.cfg.LoadType)
	s := model.Sample{
		Timestamp:  time.Now(),
		Interval:   c.cfg.Interval,
		Seq:        c.seq,
		Load:       st.Load,
		CPUName:    c.cfg.CPUName,
		CPUTimes:   st.CPUTimes,
		CPU:        st.CPU,
		Memory:     st.Mem,
		Interface:  c.cfg.Interface,
		Net:        st.Net,
		NetRates:   st.NetRates,
		LoadType:   c.cfg.LoadType,
		Threshold:  value,
		Limit:      c.cfg.Threshold,
		Overloaded: value >= c.cfg.Threshold,
	}
	c.threshold.Store(math.Float64bits(value))
	c.mu.Lock()
	c.latest = s
	c.mu.Unlock()
	return s
}

// Threshold returns the load average selected by the configured load type,
// as of the last cycle.
func (c *Collector) Threshold() float64 {
	return math.Float64frombits(c.threshold.Load())
}

// Overloaded reports whether Threshold has reached the configured limit.
func (c *Collector) Overloaded() bool { return c.Threshold() >= c.cfg.Threshold }

// Limit returns the configured threshold.
func (c *Collector) Limit() float64 { return c.cfg.Threshold }

// Snapshot returns the last published sample.
func (c *Collector) Snapshot() model.Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

func (c *Collector) LoadAverages() model.LoadAverages { return c.Snapshot().Load }
func (c *Collector) CPUTimes() model.CPUTimes { return c.Snapshot().CPUTimes }
func (c *Collector) CPUPercent() model.CPUPercent { return c.Snapshot().CPU }
func (c *Collector) MemInfo() model.MemInfo { return c.Snapshot().Memory }
func (c *Collector) NetCounters() model.NetCounters { return c.Snapshot().Net }
func (c *Collector) NetRates() model.NetRates { return c.Snapshot().NetRates }
