package sampler

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
	"github.com/Dicklesworthstone/loadwatch/internal/logging"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

func stubHints(t *testing.T) {
	t.Helper()
	origCPUs, origIfaces := logicalCPUs, interfaceNames
	logicalCPUs = func() int { return 2 }
	interfaceNames = func() []string { return []string{"eth0", "lo"} }
	t.Cleanup(func() { logicalCPUs, interfaceNames = origCPUs, origIfaces })
}

func TestSampler_CPUNameNotFoundWarnsOnce(t *testing.T) {
	stubHints(t)
	var buf bytes.Buffer
	src := newFakeSnapshots()
	s := NewSampler(src, logging.NewLogger(&buf, "test"), "cpu7", "eth0", time.Second)

	var st State
	for i := 0; i < 3; i++ {
		if err := s.SampleCPU(&st); !errors.Is(err, apperrors.ErrNameNotFound) {
			t.Fatalf("sample %d: err = %v, want ErrNameNotFound", i, err)
		}
	}
	if n := strings.Count(buf.String(), "unable to find the CPU"); n != 1 {
		t.Errorf("warning logged %d times, want 1:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), `"logical_cpus":2`) {
		t.Errorf("warning should carry the CPU count: %s", buf.String())
	}
}

func TestSampler_InterfaceNotFoundWarnsOnce(t *testing.T) {
	stubHints(t)
	var buf bytes.Buffer
	src := newFakeSnapshots()
	s := NewSampler(src, logging.NewLogger(&buf, "test"), "cpu", "wlp2s0", time.Second)

	var st State
	for i := 0; i < 4; i++ {
		_ = s.SampleNet(&st)
	}
	if n := strings.Count(buf.String(), "unable to find the interface"); n != 1 {
		t.Errorf("warning logged %d times, want 1:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), `"available":["eth0","lo"]`) {
		t.Errorf("warning should list interfaces: %s", buf.String())
	}
}

func TestSampler_NameNotFoundKeepsPreviousValues(t *testing.T) {
	stubHints(t)
	src := newFakeSnapshots()
	s := NewSampler(src, logging.Nop(), "cpu", "eth0", 2*time.Second)

	var st State
	s.SampleAll(&st)
	src.set("stat", "cpu  200 0 100 900 10 0 0 0\n")
	src.set("net/dev", "eth0: 2000 2 0 0 0 0 0 0 500 1 0 0 0 0 0 0\n")
	s.SampleAll(&st)

	cpu, rates := st.CPU, st.NetRates
	if cpu.Idle != 40 {
		t.Fatalf("idle = %v, want 40", cpu.Idle)
	}
	if rates.RxKbps != 4 {
		t.Fatalf("rx = %v, want 4", rates.RxKbps)
	}

	src.set("stat", "cpu0 1 1 1 1 1 1 1 1\n")
	src.set("net/dev", "lo: 1 1 1 1 1 1 1 1 1 1 1 1 1 1 1 1\n")
	s.SampleAll(&st)
	if st.CPU != cpu || st.NetRates != rates {
		t.Errorf("derived values changed after a miss: cpu=%+v rates=%+v", st.CPU, st.NetRates)
	}
}

func TestSampler_SourceUnavailable(t *testing.T) {
	src := newFakeSnapshots()
	var buf bytes.Buffer
	s := NewSampler(src, logging.NewLogger(&buf, "test"), "cpu", "eth0", time.Second)

	var st State
	s.SampleAll(&st)
	mem := st.Mem

	src.remove("loadavg")
	src.remove("meminfo")

	if err := s.SampleLoad(&st); !errors.Is(err, apperrors.ErrSourceUnavailable) {
		t.Errorf("SampleLoad err = %v", err)
	}
	if st.Load != (model.LoadAverages{}) {
		t.Errorf("load = %+v, want reset to zero", st.Load)
	}

	if err := s.SampleMem(&st); !errors.Is(err, apperrors.ErrSourceUnavailable) {
		t.Errorf("SampleMem err = %v", err)
	}
	if st.Mem != mem {
		t.Error("memory values changed after a failed read")
	}
	if !strings.Contains(buf.String(), "load average unavailable") {
		t.Errorf("missing diagnostic: %s", buf.String())
	}
}

func TestSampler_FirstSampleIsAgainstZero(t *testing.T) {
	src := newFakeSnapshots()
	s := NewSampler(src, logging.Nop(), "cpu", "eth0", time.Second)

	var st State
	if err := s.SampleCPU(&st); err != nil {
		t.Fatal(err)
	}
	// 100 user, 50 system, 800 idle, 10 iowait since boot.
	if got := st.CPU.Idle; got != 800*100.0/960 {
		t.Errorf("idle = %v, want %v", got, 800*100.0/960)
	}
	if st.CPUTimes.User != 100 {
		t.Errorf("baseline not stored: %+v", st.CPUTimes)
	}
}
