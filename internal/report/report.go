// Package report renders samples as the plain-text lines loadwatch prints
// on stdout: the banner, the configuration echo, the debug blocks and the
// joined and detached threshold lines.
package report

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Dicklesworthstone/loadwatch/internal/config"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
	"github.com/Dicklesworthstone/loadwatch/internal/procfs"
)

const width = 80

var (
	appHeader = strings.Repeat("=", width)
	libHeader = strings.Repeat("-", width)
)

// Printer writes report lines to one writer. It implements
// sampler.Observer, so a collector can drive it directly in join mode.
// All methods are safe for concurrent use.
type Printer struct {
	mu       sync.Mutex
	out      io.Writer
	root     string
	debug    bool
	joinable bool
}

// NewPrinter returns a printer configured from cfg. Debug blocks are only
// written when cfg.Debug is set, the joined line only when cfg.Joinable is.
func NewPrinter(out io.Writer, cfg config.Config) *Printer {
	return &Printer{
		out:      out,
		root:     cfg.ProcRoot,
		debug:    cfg.Debug,
		joinable: cfg.Joinable,
	}
}

func (p *Printer) printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

func (p *Printer) source(name string) string { return path.Join(p.root, name) }

// Banner prints the title block with the start time.
func (p *Printer) Banner(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("%s\n", appHeader)
	p.printf("== %-74s ==\n", "PERFORMANCE MEASUREMENTS")
	p.printf("== %-74s ==\n", now.Format("2006-01-02 15:04:05"))
	p.printf("%s\n\n", appHeader)
}

// Host prints one line describing the machine.
func (p *Printer) Host(desc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("HOST: %s\n", desc)
}

// Configuration echoes the resolved settings under their file key names.
func (p *Printer) Configuration(cfg config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debug {
		p.printf("CONFIGURATION:\n")
		p.printf("%s = %t\n", config.KeyDebug, cfg.Debug)
		p.printf("%s = %t\n", config.KeyJoinable, cfg.Joinable)
		p.printf("%s = %s\n", config.KeyThreadName, cfg.ThreadName)
		p.printf("%s = %d\n", config.KeyIntervalS, int64(cfg.Interval/time.Second))
		p.printf("%s = %d\n", config.KeyIntervalMS, int64(cfg.Interval%time.Second/time.Millisecond))
		p.printf("%s = %s\n", config.KeyCPUName, cfg.CPUName)
		p.printf("%s = %d\n", config.KeyCPULoadType, int(cfg.LoadType))
		p.printf("%s = %4.2f\n", config.KeyCPUThreshold, cfg.Threshold)
		p.printf("%s = %s\n\n", config.KeyInterfaceName, cfg.Interface)
	}
	p.printf("%s\n", appHeader)
}

// Primed prints the initial debug blocks after the priming sample.
func (p *Printer) Primed(s model.Sample) {
	if !p.debug {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("INTERVAL: %6.4fs\n", s.Interval.Seconds())
	p.printf("%s\n", libHeader)
	p.loadAvg(s)
	p.cpuRaw(s)
	p.memFull(s)
	p.netTable(s)
	p.printf("-- %-74s --\n%s\n", "PERIODIC READS", libHeader)
}

// Cycle prints the per-cycle debug blocks and, in join mode, the joined line.
func (p *Printer) Cycle(s model.Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debug {
		p.loadAvg(s)
		p.cpuPercent(s)
		p.memSummary(s)
		p.netRates(s)
	}
	if p.joinable {
		p.printf("-- joined: %4.2f | is overloaded? %t\n", s.Threshold, s.Overloaded)
	}
	if p.debug {
		p.printf("%s\n", libHeader)
	}
}

// Detached prints the line of the polling caller in detached mode.
func (p *Printer) Detached(threshold, limit float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("== detached: %4.2f | is overloaded? %t\n", threshold, threshold >= limit)
}

// Terminated prints the final status line: to out on success, to errOut
// otherwise.
func Terminated(out, errOut io.Writer, err error) {
	if err == nil {
		fmt.Fprint(out, "\nINFO: application successfully terminated\n")
		return
	}
	fmt.Fprintf(errOut, "\n** ERROR - abnormal application termination: %v\n", err)
}

func (p *Printer) loadAvg(s model.Sample) {
	p.printf("READ: %s\nLoad average: %4.2f, %4.2f, %4.2f\n%s\n",
		p.source(procfs.LoadAvgFile),
		s.Load.Load1, s.Load.Load5, s.Load.Load15,
		libHeader)
}

func (p *Printer) cpuRaw(s model.Sample) {
	v := s.CPUTimes.Values()
	p.printf("READ: %s\n%s: %d, %d, %d, %d, %d, %d, %d, %d\n%s\n",
		p.source(procfs.StatFile), s.CPUName,
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
		libHeader)
}

// cpuPercent follows top's Cpu(s) line.
func (p *Printer) cpuPercent(s model.Sample) {
	c := s.CPU
	p.printf("READ: %s\nCpu: %6.1f%%us, %6.1f%%sy, %6.1f%%ni, %6.1f%%id, %6.1f%%wa, %6.1f%%hi, %6.1f%%si, %6.1f%%st\n%s\n",
		p.source(procfs.StatFile),
		c.User, c.System, c.Nice, c.Idle, c.IOWait, c.IRQ, c.SoftIRQ, c.Steal,
		libHeader)
}

func (p *Printer) memFull(s model.Sample) {
	p.printf("READ: %s\n", p.source(procfs.MemInfoFile))
	for f := model.MemField(0); f < model.NumMemFields; f++ {
		p.printf("%-16s%12d kB\n", f.String()+":", s.Memory.Get(f))
	}
	p.printf("%s\n", libHeader)
}

// memSummary follows top's Mem and Swap lines.
func (p *Printer) memSummary(s model.Sample) {
	m := s.Memory.Summary()
	p.printf("READ: %s\nMem: %9dk total, %8dk used, %8dk free, %8dk buffers\nSwap: %8dk total, %8dk used, %8dk free, %8dk cached\n%s\n",
		p.source(procfs.MemInfoFile),
		m.Total, m.Used, m.Free, m.Buffers,
		m.SwapTotal, m.SwapUsed, m.SwapFree, m.Cached,
		libHeader)
}

// netTable follows the layout of /proc/net/dev itself.
func (p *Printer) netTable(s model.Sample) {
	rx, tx := s.Net.Rx, s.Net.Tx
	p.printf("READ: %s\n", p.source(procfs.NetDevFile))
	p.printf("Interface | Receive%56s| Transmit\n", "")
	p.printf("          | bytes\tpackets\terrs\tdrop\tfifo\tframe\tcompressed\tmulticast | bytes\tpackets\terrs\tdrop\tfifo\tcolls\tcarrier\tcompressed\n")
	p.printf("%s %8d\t%8d\t%5d\t%5d\t%5d\t%6d\t%11d\t%10d | %8d\t%8d\t%5d\t%5d\t%5d\t%6d\t%8d\t%11d\n%s\n",
		s.Interface,
		rx.Bytes, rx.Packets, rx.Errs, rx.Drop, rx.FIFO, rx.Frame, rx.Compressed, rx.Multicast,
		tx.Bytes, tx.Packets, tx.Errs, tx.Drop, tx.FIFO, tx.Colls, tx.Carrier, tx.Compressed,
		libHeader)
}

func (p *Printer) netRates(s model.Sample) {
	p.printf("READ: %s\nRx: %10d bytes, %8.2f kbps | Tx: %10d bytes, %8.2f kbps\n%s\n",
		p.source(procfs.NetDevFile),
		s.Net.Rx.Bytes, s.NetRates.RxKbps, s.Net.Tx.Bytes, s.NetRates.TxKbps,
		libHeader)
}
