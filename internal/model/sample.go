package model

import "time"

// LoadType selects which load average is compared against the threshold.
type LoadType int

const (
	Load1  LoadType = 1
	Load5  LoadType = 5
	Load15 LoadType = 15
)

// DefaultLoadType is used for any value that is not 1, 5 or 15.
const DefaultLoadType = Load5

// Valid reports whether t is one of the three supported windows.
func (t LoadType) Valid() bool {
	switch t {
	case Load1, Load5, Load15:
		return true
	}
	return false
}

func (t LoadType) String() string {
	switch t {
	case Load1:
		return "1m"
	case Load5:
		return "5m"
	case Load15:
		return "15m"
	}
	return "invalid"
}

// LoadAverages is the 1, 5 and 15 minute run queue average.
type LoadAverages struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// Select returns the average for t; unknown types fall back to the 5 minute value.
func (l LoadAverages) Select(t LoadType) float64 {
	switch t {
	case Load1:
		return l.Load1
	case Load15:
		return l.Load15
	default:
		return l.Load5
	}
}

// CPUTimesLen is the number of counters read per CPU line.
const CPUTimesLen = 8

// CPUTimes holds the raw jiffy counters of one CPU line, in /proc/stat order.
type CPUTimes struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// Values returns the counters in file order.
func (c CPUTimes) Values() [CPUTimesLen]uint64 {
	return [CPUTimesLen]uint64{c.User, c.Nice, c.System, c.Idle, c.IOWait, c.IRQ, c.SoftIRQ, c.Steal}
}

// CPUTimesFromValues is the inverse of Values.
func CPUTimesFromValues(v [CPUTimesLen]uint64) CPUTimes {
	return CPUTimes{
		User: v[0], Nice: v[1], System: v[2], Idle: v[3],
		IOWait: v[4], IRQ: v[5], SoftIRQ: v[6], Steal: v[7],
	}
}

// CPUPercent is the share of each CPUTimes field over one interval.
type CPUPercent struct {
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	IOWait  float64
	IRQ     float64
	SoftIRQ float64
	Steal   float64
}

// Values returns the percentages in the same order as CPUTimes.Values.
func (p CPUPercent) Values() [CPUTimesLen]float64 {
	return [CPUTimesLen]float64{p.User, p.Nice, p.System, p.Idle, p.IOWait, p.IRQ, p.SoftIRQ, p.Steal}
}

// CPUPercentFromValues is the inverse of Values.
func CPUPercentFromValues(v [CPUTimesLen]float64) CPUPercent {
	return CPUPercent{
		User: v[0], Nice: v[1], System: v[2], Idle: v[3],
		IOWait: v[4], IRQ: v[5], SoftIRQ: v[6], Steal: v[7],
	}
}

// Load is the non-idle share, 100 - Idle.
func (p CPUPercent) Load() float64 { return 100 - p.Idle }

// NetCountersLen is the number of counters per direction in /proc/net/dev.
const NetCountersLen = 8

// RxCounters are the receive columns of /proc/net/dev.
type RxCounters struct {
	Bytes      uint64
	Packets    uint64
	Errs       uint64
	Drop       uint64
	FIFO       uint64
	Frame      uint64
	Compressed uint64
	Multicast  uint64
}

// TxCounters are the transmit columns of /proc/net/dev.
type TxCounters struct {
	Bytes      uint64
	Packets    uint64
	Errs       uint64
	Drop       uint64
	FIFO       uint64
	Colls      uint64
	Carrier    uint64
	Compressed uint64
}

// NetCounters is one interface line of /proc/net/dev.
type NetCounters struct {
	Rx RxCounters
	Tx TxCounters
}

// NetCountersFromValues builds counters from the sixteen columns in file order.
func NetCountersFromValues(v [2 * NetCountersLen]uint64) NetCounters {
	return NetCounters{
		Rx: RxCounters{
			Bytes: v[0], Packets: v[1], Errs: v[2], Drop: v[3],
			FIFO: v[4], Frame: v[5], Compressed: v[6], Multicast: v[7],
		},
		Tx: TxCounters{
			Bytes: v[8], Packets: v[9], Errs: v[10], Drop: v[11],
			FIFO: v[12], Colls: v[13], Carrier: v[14], Compressed: v[15],
		},
	}
}

// NetRates are receive and transmit throughput in kilobits per second.
type NetRates struct {
	RxKbps float64
	TxKbps float64
}

// Sample is the full snapshot exchanged between the collector, the printer,
// the exporter and the UI.
type Sample struct {
	Timestamp time.Time
	Interval  time.Duration
	Seq       uint64

	Load      LoadAverages
	CPUName   string
	CPUTimes  CPUTimes
	CPU       CPUPercent
	Memory    MemInfo
	Interface string
	Net       NetCounters
	NetRates  NetRates

	LoadType   LoadType
	Threshold  float64 // selected load average
	Limit      float64 // configured threshold
	Overloaded bool
}

// Zero returns an empty sample for initialization.
func Zero() Sample { return Sample{Timestamp: time.Now()} }
