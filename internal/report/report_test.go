package report

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dicklesworthstone/loadwatch/internal/config"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

func sample() model.Sample {
	var mem model.MemInfo
	mem.KB[model.MemTotal] = 1000000
	mem.KB[model.MemFree] = 200000
	mem.KB[model.MemSwapTotal] = 500
	mem.Derive()
	return model.Sample{
		Interval:  3 * time.Second,
		Load:      model.LoadAverages{Load1: 0.5, Load5: 0.75, Load15: 1.2},
		CPUName:   "cpu",
		CPUTimes:  model.CPUTimes{User: 100, System: 50, Idle: 800, IOWait: 10},
		CPU:       model.CPUPercent{User: 10.4, System: 5, Idle: 83.3, IOWait: 1.3},
		Memory:    mem,
		Interface: "eth0",
		Net: model.NetCounters{
			Rx: model.RxCounters{Bytes: 1000, Packets: 1},
			Tx: model.TxCounters{Bytes: 500, Packets: 1},
		},
		NetRates:   model.NetRates{RxKbps: 4, TxKbps: 2},
		LoadType:   model.Load5,
		Threshold:  0.75,
		Limit:      0.70,
		Overloaded: true,
	}
}

func printer(debug, joinable bool) (*Printer, *strings.Builder) {
	cfg := config.Default()
	cfg.Debug = debug
	cfg.Joinable = joinable
	var b strings.Builder
	return NewPrinter(&b, cfg), &b
}

func TestBanner(t *testing.T) {
	p, out := printer(true, true)
	p.Banner(time.Date(2026, 10, 16, 9, 5, 7, 0, time.UTC))
	lines := strings.Split(out.String(), "\n")
	if lines[0] != strings.Repeat("=", 80) {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines[1]) != 80 || !strings.HasPrefix(lines[1], "== PERFORMANCE MEASUREMENTS") {
		t.Errorf("label line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "2026-10-16 09:05:07") {
		t.Errorf("date line = %q", lines[2])
	}
}

func TestCycle_Joined(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		over      bool
		want      string
	}{
		{"overloaded", 0.75, true, "-- joined: 0.75 | is overloaded? true\n"},
		{"idle", 0.2, false, "-- joined: 0.20 | is overloaded? false\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := printer(false, true)
			s := sample()
			s.Threshold, s.Overloaded = tt.threshold, tt.over
			p.Cycle(s)
			if out.String() != tt.want {
				t.Errorf("got %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestCycle_DetachedPrintsNothingWithoutDebug(t *testing.T) {
	p, out := printer(false, false)
	p.Primed(sample())
	p.Cycle(sample())
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestCycle_DebugBlocks(t *testing.T) {
	p, out := printer(true, true)
	p.Cycle(sample())
	got := out.String()
	for _, want := range []string{
		"READ: /proc/loadavg\nLoad average: 0.50, 0.75, 1.20\n",
		"READ: /proc/stat\nCpu:   10.4%us,    5.0%sy,    0.0%ni,   83.3%id,    1.3%wa,",
		"Mem:   1000000k total,   800000k used,   200000k free,",
		"Swap:      500k total,      500k used,        0k free,",
		"Rx:       1000 bytes,     4.00 kbps | Tx:        500 bytes,     2.00 kbps",
		"-- joined: 0.75 | is overloaded? true\n" + strings.Repeat("-", 80) + "\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
}

func TestPrimed_DebugBlocks(t *testing.T) {
	p, out := printer(true, true)
	p.Primed(sample())
	got := out.String()
	for _, want := range []string{
		"INTERVAL: 3.0000s\n",
		"cpu: 100, 0, 50, 800, 10, 0, 0, 0\n",
		"MemTotal:            1000000 kB\n",
		"Committed_AS:              0 kB\n",
		"eth0     1000\t       1\t",
		"-- PERIODIC READS",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if strings.Count(got, "kB\n") != int(model.NumMemFields) {
		t.Errorf("full memory table should list %d fields", model.NumMemFields)
	}
}

func TestConfiguration(t *testing.T) {
	p, out := printer(true, true)
	cfg := config.Default()
	cfg.Interval = 1500 * time.Millisecond
	p.Configuration(cfg)
	got := out.String()
	for _, want := range []string{
		"CONFIGURATION:\n",
		"is_debug = true\n",
		"interval_s = 1\n",
		"interval_ms = 500\n",
		"cpu_load_type = 5\n",
		"cpu_threshold = 0.70\n",
		"interface_name = wlp2s0\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}

	p, out = printer(false, true)
	p.Configuration(cfg)
	if out.String() != strings.Repeat("=", 80)+"\n" {
		t.Errorf("non-debug echo = %q", out.String())
	}
}

func TestDetached(t *testing.T) {
	p, out := printer(false, false)
	p.Detached(0.7, 0.7)
	p.Detached(0.69, 0.7)
	want := "== detached: 0.70 | is overloaded? true\n== detached: 0.69 | is overloaded? false\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestDetached_Concurrent(t *testing.T) {
	p, out := printer(false, true)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); p.Detached(1, 0.5) }()
		go func() { defer wg.Done(); p.Cycle(sample()) }()
	}
	wg.Wait()
	for _, line := range strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, "== detached:") && !strings.HasPrefix(line, "-- joined:") {
			t.Errorf("interleaved line %q", line)
		}
	}
}

func TestTerminated(t *testing.T) {
	var out, errOut strings.Builder
	Terminated(&out, &errOut, nil)
	if out.String() != "\nINFO: application successfully terminated\n" || errOut.Len() != 0 {
		t.Errorf("success: out=%q err=%q", out.String(), errOut.String())
	}

	out.Reset()
	Terminated(&out, &errOut, errors.New("boom"))
	if out.Len() != 0 || !strings.Contains(errOut.String(), "abnormal application termination: boom") {
		t.Errorf("failure: out=%q err=%q", out.String(), errOut.String())
	}
}
