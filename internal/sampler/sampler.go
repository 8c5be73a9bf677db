package sampler

import (
	"errors"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	psnet "github.com/shirou/gopsutil/v3/net"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
	"github.com/Dicklesworthstone/loadwatch/internal/logging"
)

// Snapshots is the set of kernel text sources the samplers parse.
// *procfs.Source implements it.
type Snapshots interface {
	LoadAvg() ([]byte, error)
	Stat() ([]byte, error)
	MemInfo() ([]byte, error)
	NetDev() ([]byte, error)
}

// Sampler reads one snapshot per family and folds it into a State. It keeps
// no state of its own, so one Sampler can serve any number of States.
type Sampler struct {
	src      Snapshots
	log      logging.Logger
	cpuName  string
	iface    string
	interval time.Duration
}

// NewSampler returns a Sampler for the given CPU line and interface. interval
// is the spacing between two samples and scales the network rates.
func NewSampler(src Snapshots, log logging.Logger, cpuName, iface string, interval time.Duration) *Sampler {
	if log == nil {
		log = logging.Nop()
	}
	return &Sampler{
		src:      src,
		log:      log,
		cpuName:  cpuName,
		iface:    iface,
		interval: interval,
	}
}

// Overridable for tests; both hint at valid names in the not-found warnings.
var (
	logicalCPUs = func() int {
		n, err := cpu.Counts(true)
		if err != nil {
			return 0
		}
		return n
	}
	interfaceNames = func() []string {
		ifs, err := psnet.Interfaces()
		if err != nil {
			return nil
		}
		names := make([]string, 0, len(ifs))
		for _, i := range ifs {
			names = append(names, i.Name)
		}
		sort.Strings(names)
		return names
	}
)

// SampleAll refreshes every family. Failures are logged and leave the
// affected family at its previous values.
func (s *Sampler) SampleAll(st *State) {
	_ = s.SampleLoad(st)
	_ = s.SampleCPU(st)
	_ = s.SampleMem(st)
	_ = s.SampleNet(st)
}

// SampleLoad refreshes the load averages. An unreadable source resets them
// to zero.
func (s *Sampler) SampleLoad(st *State) error {
	buf, err := s.src.LoadAvg()
	if err != nil {
		st.ResetLoad()
		s.log.Warn("load average unavailable", logging.Err(err))
		return err
	}
	if err := st.UpdateLoad(buf); err != nil {
		s.log.Debug("partial load average", logging.Err(err))
		return err
	}
	return nil
}

// SampleCPU refreshes the CPU counters and percentages.
func (s *Sampler) SampleCPU(st *State) error {
	buf, err := s.src.Stat()
	if err != nil {
		s.log.Warn("cpu accounting unavailable", logging.Err(err))
		return err
	}
	err = st.UpdateCPU(buf, s.cpuName)
	switch {
	case errors.Is(err, apperrors.ErrNameNotFound):
		if st.firstCPUMiss() {
			s.log.Error("unable to find the CPU", err,
				logging.String("cpu", s.cpuName), logging.Int("logical_cpus", logicalCPUs()))
		}
	case err != nil:
		s.log.Debug("partial cpu line", logging.Err(err))
	}
	return err
}

// SampleMem refreshes the memory counters.
func (s *Sampler) SampleMem(st *State) error {
	buf, err := s.src.MemInfo()
	if err != nil {
		s.log.Warn("memory accounting unavailable", logging.Err(err))
		return err
	}
	st.UpdateMem(buf)
	return nil
}

// SampleNet refreshes the interface counters and rates.
func (s *Sampler) SampleNet(st *State) error {
	buf, err := s.src.NetDev()
	if err != nil {
		s.log.Warn("network accounting unavailable", logging.Err(err))
		return err
	}
	err = st.UpdateNet(buf, s.iface, s.interval)
	switch {
	case errors.Is(err, apperrors.ErrNameNotFound):
		if st.firstNetMiss() {
			s.log.Error("unable to find the interface", err,
				logging.String("interface", s.iface), logging.Strings("available", interfaceNames()))
		}
	case err != nil:
		s.log.Debug("partial interface line", logging.Err(err))
	}
	return err
}
