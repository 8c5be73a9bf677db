package sampler

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

// ParseLoadAvg reads the three leading averages of /proc/loadavg. A short or
// unparsable line yields whatever parsed before it and ErrMalformedSample.
func ParseLoadAvg(buf []byte) (model.LoadAverages, error) {
	var v [3]float64
	fields := strings.Fields(string(buf))
	for i := range v {
		if i >= len(fields) {
			return loadFromValues(v), malformed("loadavg", i, len(v))
		}
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return loadFromValues(v), malformed("loadavg", i, len(v))
		}
		v[i] = f
	}
	return loadFromValues(v), nil
}

func loadFromValues(v [3]float64) model.LoadAverages {
	return model.LoadAverages{Load1: v[0], Load5: v[1], Load15: v[2]}
}

// ParseCPUTimes finds the line whose first token is exactly name ("cpu" does
// not match "cpu0") and reads its eight counters.
func ParseCPUTimes(buf []byte, name string) (model.CPUTimes, error) {
	sc := bufio.NewScanner(bytes.NewReader(buf))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != name {
			continue
		}
		var v [model.CPUTimesLen]uint64
		err := parseUints(name, fields[1:], v[:])
		return model.CPUTimesFromValues(v), err
	}
	return model.CPUTimes{}, errors.Wrapf(apperrors.ErrNameNotFound, "cpu %q", name)
}

// CPUDeltas returns cur - prev per counter. A counter that went backwards
// (reset, racy read) contributes zero.
func CPUDeltas(prev, cur model.CPUTimes) [model.CPUTimesLen]uint64 {
	p, c := prev.Values(), cur.Values()
	var d [model.CPUTimesLen]uint64
	for i := range d {
		d[i] = delta(p[i], c[i])
	}
	return d
}

// CPUPercentages normalizes deltas so that they sum to 100. The total is
// clamped to at least 1, so an idle interval yields all zeros.
func CPUPercentages(d [model.CPUTimesLen]uint64) model.CPUPercent {
	var total uint64
	for _, v := range d {
		total += v
	}
	if total < 1 {
		total = 1
	}
	var pct [model.CPUTimesLen]float64
	for i, v := range d {
		pct[i] = float64(v) * 100 / float64(total)
	}
	return model.CPUPercentFromValues(pct)
}

// ParseMemInfo applies every tracked "Name: value" line of buf on top of prev
// and recomputes the derived values. Lines for untracked names, and values
// that do not parse, are ignored; tracked names absent from buf keep their
// value from prev.
func ParseMemInfo(buf []byte, prev model.MemInfo) model.MemInfo {
	m := prev
	sc := bufio.NewScanner(bytes.NewReader(buf))
	for sc.Scan() {
		line := sc.Text()
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		f, ok := model.LookupMemField(strings.TrimSpace(line[:idx]))
		if !ok {
			continue
		}
		fields := strings.Fields(line[idx+1:])
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		m.KB[f] = v
	}
	m.Derive()
	return m
}

// ParseNetDev finds the interface whose label, the text before the first
// colon, is exactly iface and reads its sixteen counters.
func ParseNetDev(buf []byte, iface string) (model.NetCounters, error) {
	sc := bufio.NewScanner(bytes.NewReader(buf))
	for sc.Scan() {
		line := sc.Text()
		idx := strings.IndexByte(line, ':')
		if idx < 0 || strings.TrimSpace(line[:idx]) != iface {
			continue
		}
		var v [2 * model.NetCountersLen]uint64
		err := parseUints(iface, strings.Fields(line[idx+1:]), v[:])
		return model.NetCountersFromValues(v), err
	}
	return model.NetCounters{}, errors.Wrapf(apperrors.ErrNameNotFound, "interface %q", iface)
}

// NetRates converts the byte deltas between two samples taken interval
// apart into kilobits per second. A non-positive interval yields zero rates.
func NetRates(prev, cur model.NetCounters, interval time.Duration) model.NetRates {
	secs := interval.Seconds()
	if secs <= 0 {
		return model.NetRates{}
	}
	return model.NetRates{
		RxKbps: kbps(delta(prev.Rx.Bytes, cur.Rx.Bytes), secs),
		TxKbps: kbps(delta(prev.Tx.Bytes, cur.Tx.Bytes), secs),
	}
}

// 1 byte = 8 bit, 1 kilobit = 1000 bit.
func kbps(n uint64, secs float64) float64 {
	return float64(n) * 8 / 1000 / secs
}

func delta(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// parseUints fills dst from tokens and stops at the first token that is
// missing or not an unsigned integer.
func parseUints(label string, tokens []string, dst []uint64) error {
	for i := range dst {
		if i >= len(tokens) {
			return malformed(label, i, len(dst))
		}
		v, err := strconv.ParseUint(tokens[i], 10, 64)
		if err != nil {
			return malformed(label, i, len(dst))
		}
		dst[i] = v
	}
	return nil
}

func malformed(label string, got, want int) error {
	return errors.Wrapf(apperrors.ErrMalformedSample, "%s: parsed %d of %d values", label, got, want)
}
