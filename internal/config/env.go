package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "LOADWATCH_"

type envOverride struct {
	envKey string
	flag   string
	apply  func(*Config, string)
}

var envOverrides = []envOverride{
	{"DEBUG", "debug", func(c *Config, v string) { c.Debug = parseBool(v, c.Debug) }},
	{"JOINABLE", "joinable", func(c *Config, v string) { c.Joinable = parseBool(v, c.Joinable) }},
	{"THREAD_NAME", "thread-name", func(c *Config, v string) { c.ThreadName = v }},
	{"INTERVAL", "interval", func(c *Config, v string) {
		if d, ok := parseInterval(v); ok {
			c.Interval = d
		} else {
			c.warnf("ignoring %sINTERVAL=%q", EnvPrefix, v)
		}
	}},
	{"CPU", "cpu", func(c *Config, v string) { c.CPUName = v }},
	{"LOAD_TYPE", "load-type", func(c *Config, v string) {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.warnf("ignoring %sLOAD_TYPE=%q", EnvPrefix, v)
			return
		}
		c.LoadType = checkLoadType(c, n)
	}},
	{"THRESHOLD", "threshold", func(c *Config, v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		} else {
			c.warnf("ignoring %sTHRESHOLD=%q", EnvPrefix, v)
		}
	}},
	{"INTERFACE", "interface", func(c *Config, v string) { c.Interface = v }},
	{"PROC_ROOT", "proc-root", func(c *Config, v string) { c.ProcRoot = v }},
	{"METRICS_ADDR", "metrics-addr", func(c *Config, v string) { c.MetricsAddr = v }},
	{"TUI", "tui", func(c *Config, v string) { c.TUI = parseBool(v, c.TUI) }},
	{"LOG_LEVEL", "log-level", func(c *Config, v string) { c.LogLevel = v }},
	{"LOG_FORMAT", "log-format", func(c *Config, v string) { c.LogFormat = v }},
}

func applyEnvOverrides(cfg *Config, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSet(fs, o.flag) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(cfg, val)
		}
	}
}

func parseBool(val string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// parseInterval accepts a Go duration or a bare number of seconds.
func parseInterval(v string) (time.Duration, bool) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), true
	}
	return 0, false
}
