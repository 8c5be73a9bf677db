package sampler

import (
	"errors"
	"time"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

// State is everything the samplers carry from one cycle to the next: the
// previous raw counters, the current derived values and the warn-once flags.
// It is owned by a single goroutine.
type State struct {
	Load     model.LoadAverages
	CPUTimes model.CPUTimes
	CPU      model.CPUPercent
	Mem      model.MemInfo
	Net      model.NetCounters
	NetRates model.NetRates

	cpuWarned bool
	netWarned bool
}

// UpdateLoad replaces the load averages with the ones parsed from buf, even
// when the line is short.
func (st *State) UpdateLoad(buf []byte) error {
	avg, err := ParseLoadAvg(buf)
	st.Load = avg
	return err
}

// ResetLoad zeroes the averages after a failed read.
func (st *State) ResetLoad() { st.Load = model.LoadAverages{} }

// UpdateCPU derives percentages against the previous counters and makes the
// parsed counters the new baseline. When name is absent the state is left
// untouched.
func (st *State) UpdateCPU(buf []byte, name string) error {
	cur, err := ParseCPUTimes(buf, name)
	if errors.Is(err, apperrors.ErrNameNotFound) {
		return err
	}
	st.CPU = CPUPercentages(CPUDeltas(st.CPUTimes, cur))
	st.CPUTimes = cur
	return err
}

// UpdateMem applies buf on top of the current memory values.
func (st *State) UpdateMem(buf []byte) {
	st.Mem = ParseMemInfo(buf, st.Mem)
}

// UpdateNet derives rates against the previous counters and makes the parsed
// counters the new baseline. When iface is absent the state is left untouched.
func (st *State) UpdateNet(buf []byte, iface string, interval time.Duration) error {
	cur, err := ParseNetDev(buf, iface)
	if errors.Is(err, apperrors.ErrNameNotFound) {
		return err
	}
	st.NetRates = NetRates(st.Net, cur, interval)
	st.Net = cur
	return err
}

// firstCPUMiss reports true the first time it is called.
func (st *State) firstCPUMiss() bool {
	if st.cpuWarned {
		return false
	}
	st.cpuWarned = true
	return true
}

func (st *State) firstNetMiss() bool {
	if st.netWarned {
		return false
	}
	st.netWarned = true
	return true
}
