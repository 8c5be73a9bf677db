// Package metrics exposes the latest sample of a collector to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

const namespace = "loadwatch"

// SampleSource is implemented by *sampler.Collector.
type SampleSource interface {
	Snapshot() model.Sample
}

var cpuModes = [model.CPUTimesLen]string{"user", "nice", "system", "idle", "iowait", "irq", "softirq", "steal"}

// Exporter is a prometheus.Collector that reads one snapshot per scrape, so
// every metric of a scrape comes from the same sample.
type Exporter struct {
	src SampleSource

	loadAvg     *prometheus.Desc
	threshold   *prometheus.Desc
	limit       *prometheus.Desc
	overloaded  *prometheus.Desc
	cpuJiffies  *prometheus.Desc
	cpuPercent  *prometheus.Desc
	memory      *prometheus.Desc
	memUsed     *prometheus.Desc
	swapUsed    *prometheus.Desc
	netBytes    *prometheus.Desc
	netPackets  *prometheus.Desc
	netErrors   *prometheus.Desc
	netDrops    *prometheus.Desc
	netRate     *prometheus.Desc
	samples     *prometheus.Desc
	lastSampled *prometheus.Desc
}

// NewExporter returns an exporter reading from src.
func NewExporter(src SampleSource) *Exporter {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Exporter{
		src:         src,
		loadAvg:     desc("load_average", "Run queue load average.", "window"),
		threshold:   desc("threshold_value", "Load average selected by the configured load type."),
		limit:       desc("threshold_limit", "Configured overload threshold."),
		overloaded:  desc("overloaded", "1 when the selected load average has reached the threshold."),
		cpuJiffies:  desc("cpu_jiffies_total", "Raw /proc/stat counters of the followed CPU line.", "cpu", "mode"),
		cpuPercent:  desc("cpu_percent", "Share of each mode over the last interval.", "cpu", "mode"),
		memory:      desc("memory_kilobytes", "Tracked /proc/meminfo values.", "field"),
		memUsed:     desc("memory_used_kilobytes", "MemTotal - MemFree."),
		swapUsed:    desc("swap_used_kilobytes", "SwapTotal - SwapFree."),
		netBytes:    desc("network_bytes_total", "Bytes counted by /proc/net/dev.", "interface", "direction"),
		netPackets:  desc("network_packets_total", "Packets counted by /proc/net/dev.", "interface", "direction"),
		netErrors:   desc("network_errors_total", "Errors counted by /proc/net/dev.", "interface", "direction"),
		netDrops:    desc("network_drops_total", "Drops counted by /proc/net/dev.", "interface", "direction"),
		netRate:     desc("network_kilobits_per_second", "Throughput over the last interval.", "interface", "direction"),
		samples:     desc("samples_total", "Samples published by the collector."),
		lastSampled: desc("last_sample_timestamp_seconds", "Unix time of the last published sample."),
	}
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		e.loadAvg, e.threshold, e.limit, e.overloaded,
		e.cpuJiffies, e.cpuPercent,
		e.memory, e.memUsed, e.swapUsed,
		e.netBytes, e.netPackets, e.netErrors, e.netDrops, e.netRate,
		e.samples, e.lastSampled,
	} {
		ch <- d
	}
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.src.Snapshot()
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}

	gauge(e.loadAvg, s.Load.Load1, model.Load1.String())
	gauge(e.loadAvg, s.Load.Load5, model.Load5.String())
	gauge(e.loadAvg, s.Load.Load15, model.Load15.String())
	gauge(e.threshold, s.Threshold)
	gauge(e.limit, s.Limit)
	gauge(e.overloaded, boolToFloat(s.Overloaded))

	jiffies, pct := s.CPUTimes.Values(), s.CPU.Values()
	for i, mode := range cpuModes {
		counter(e.cpuJiffies, float64(jiffies[i]), s.CPUName, mode)
		gauge(e.cpuPercent, pct[i], s.CPUName, mode)
	}

	for f := model.MemField(0); f < model.NumMemFields; f++ {
		gauge(e.memory, float64(s.Memory.Get(f)), f.String())
	}
	gauge(e.memUsed, float64(s.Memory.Used))
	gauge(e.swapUsed, float64(s.Memory.SwapUsed))

	rx, tx := s.Net.Rx, s.Net.Tx
	counter(e.netBytes, float64(rx.Bytes), s.Interface, "rx")
	counter(e.netBytes, float64(tx.Bytes), s.Interface, "tx")
	counter(e.netPackets, float64(rx.Packets), s.Interface, "rx")
	counter(e.netPackets, float64(tx.Packets), s.Interface, "tx")
	counter(e.netErrors, float64(rx.Errs), s.Interface, "rx")
	counter(e.netErrors, float64(tx.Errs), s.Interface, "tx")
	counter(e.netDrops, float64(rx.Drop), s.Interface, "rx")
	counter(e.netDrops, float64(tx.Drop), s.Interface, "tx")
	gauge(e.netRate, s.NetRates.RxKbps, s.Interface, "rx")
	gauge(e.netRate, s.NetRates.TxKbps, s.Interface, "tx")

	counter(e.samples, float64(s.Seq))
	if !s.Timestamp.IsZero() {
		gauge(e.lastSampled, float64(s.Timestamp.UnixNano())/1e9)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
