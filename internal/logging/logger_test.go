package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("iface", "eth0"), "iface", "eth0"},
		{"Int", Int("count", 42), "count", 42},
		{"Uint64", Uint64("kb", 1024), "kb", uint64(1024)},
		{"Float64", Float64("load", 0.75), "load", 0.75},
		{"Bool", Bool("overloaded", true), "overloaded", true},
		{"Duration", Duration("interval", time.Second), "interval", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}

	t.Run("Err uses the error key", func(t *testing.T) {
		e := errors.New("boom")
		f := Err(e)
		if f.Key != "error" || f.Value != e {
			t.Errorf("Err() = %+v", f)
		}
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "sampler")
	logger.Info("sampled", String("family", "cpu"), Float64("idle", 40))

	out := buf.String()
	for _, want := range []string{`"component":"sampler"`, `"family":"cpu"`, `"idle":40`, "sampled"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestZerologAdapter_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")
	logger.Error("read failed", errors.New("permission denied"), String("path", "/proc/stat"))

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("missing error level: %s", out)
	}
	if !strings.Contains(out, "permission denied") {
		t.Errorf("missing error text: %s", out)
	}
}

func TestZerologAdapter_DebugRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.InfoLevel))
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug entry written at info level: %s", buf.String())
	}

	buf.Reset()
	logger = NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
	logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug entry missing: %s", buf.String())
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test").With(String("cpu", "cpu0"))
	logger.Warn("name not found")
	if !strings.Contains(buf.String(), `"cpu":"cpu0"`) {
		t.Errorf("child field missing: %s", buf.String())
	}
}

func TestNew(t *testing.T) {
	t.Run("json at warn level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, Options{Level: "warn", Format: "json"})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		logger.Info("dropped")
		logger.Warn("kept")
		if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("console on a buffer", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, Options{Format: "console"})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		logger.Info("hello")
		if strings.Contains(buf.String(), "{") {
			t.Errorf("console output looks like JSON: %s", buf.String())
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		if _, err := New(&bytes.Buffer{}, Options{Level: "loud"}); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		if _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = NewLogger(&bytes.Buffer{}, "test")
	var _ Logger = Nop()
}
