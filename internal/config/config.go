// Package config resolves loadwatch settings from flags, LOADWATCH_*
// environment variables and an optional configuration file.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
	"github.com/Dicklesworthstone/loadwatch/internal/procfs"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "loadwatch.cfg"

// Config carries runtime options for loadwatch.
type Config struct {
	Debug      bool
	Joinable   bool
	ThreadName string
	Interval   time.Duration
	CPUName    string
	LoadType   model.LoadType
	Threshold  float64
	Interface  string

	ConfigFile  string
	ProcRoot    string
	MetricsAddr string
	TUI         bool
	LogLevel    string
	LogFormat   string

	// Warnings collects non-fatal problems found while resolving the
	// configuration. They are logged once a logger exists.
	Warnings []string
}

func Default() Config {
	return Config{
		Debug:      true,
		Joinable:   true,
		ThreadName: "prf_thread",
		Interval:   3 * time.Second,
		CPUName:    "cpu",
		LoadType:   model.DefaultLoadType,
		Threshold:  0.70,
		Interface:  "wlp2s0",
		ConfigFile: DefaultConfigFile,
		ProcRoot:   procfs.DefaultRoot,
		LogLevel:   "info",
		LogFormat:  "auto",
	}
}

// SampleAll reports whether every family must be refreshed each cycle,
// which is the case whenever something displays or exports them.
func (c Config) SampleAll() bool {
	return c.Debug || c.TUI || c.MetricsAddr != ""
}

func (c *Config) warnf(format string, a ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, a...))
}

// Parse resolves the configuration for args (without the program name).
// Flags win over LOADWATCH_* variables, which win over the file, which wins
// over Default. Usage and flag errors are written to errOut. A help request
// returns flag.ErrHelp.
func Parse(programName string, args []string, errOut io.Writer) (Config, error) {
	cfg := Default()
	var loadType int

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "print the configuration and every sample")
	fs.BoolVar(&cfg.Joinable, "joinable", cfg.Joinable, "sample on the main goroutine (false: poll a detached collector)")
	fs.StringVar(&cfg.ThreadName, "thread-name", cfg.ThreadName, "OS thread name of the sampling loop")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "sampling interval")
	fs.StringVar(&cfg.CPUName, "cpu", cfg.CPUName, "/proc/stat line to follow (cpu, cpu0, ...)")
	fs.IntVar(&loadType, "load-type", int(cfg.LoadType), "load average compared to the threshold: 1, 5 or 15")
	fs.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "load average at which the system counts as overloaded")
	fs.StringVar(&cfg.Interface, "interface", cfg.Interface, "network interface to follow")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "configuration file (key=value, or YAML for .yaml/.yml)")
	fs.StringVar(&cfg.ProcRoot, "proc-root", cfg.ProcRoot, "mount point of procfs")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (empty: disabled)")
	fs.BoolVar(&cfg.TUI, "tui", cfg.TUI, "show the live terminal view")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: auto, console, json")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return cfg, err
		}
		return cfg, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return cfg, apperrors.NewConfigError("unexpected argument %q", fs.Arg(0))
	}
	if isFlagSet(fs, "load-type") {
		cfg.LoadType = checkLoadType(&cfg, loadType)
	}

	explicit := isFlagSet(fs, "config")
	if v := os.Getenv(EnvPrefix + "CONFIG"); v != "" && !explicit {
		cfg.ConfigFile = v
		explicit = true
	}
	if err := loadFile(&cfg, fs, explicit); err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the collector cannot run with.
func (c Config) Validate() error {
	if c.Interval < 0 {
		return apperrors.NewConfigError("interval must not be negative, got %s", c.Interval)
	}
	if strings.TrimSpace(c.CPUName) == "" {
		return apperrors.NewConfigError("cpu name must not be empty")
	}
	if strings.TrimSpace(c.Interface) == "" {
		return apperrors.NewConfigError("interface name must not be empty")
	}
	if c.ProcRoot == "" {
		return apperrors.NewConfigError("proc root must not be empty")
	}
	return nil
}

// checkLoadType falls back to the default window for anything but 1, 5 or 15.
func checkLoadType(cfg *Config, v int) model.LoadType {
	t := model.LoadType(v)
	if !t.Valid() {
		cfg.warnf("invalid CPU load type %d, defaulted to %d", v, int(model.DefaultLoadType))
		return model.DefaultLoadType
	}
	return t
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
