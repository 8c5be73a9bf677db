package model

// MemField identifies one /proc/meminfo line that loadwatch keeps.
type MemField int

const (
	MemActive MemField = iota
	MemAnonPages
	MemBounce
	MemBuffers
	MemCached
	MemCommitLimit
	MemCommittedAS
	MemDirty
	MemInactive
	MemMapped
	MemFree
	MemTotal
	MemNFSUnstable
	MemPageTables
	MemSReclaimable
	MemSUnreclaim
	MemSlab
	MemSwapCached
	MemSwapFree
	MemSwapTotal
	MemVmallocChunk
	MemVmallocTotal
	MemVmallocUsed
	MemWriteback

	NumMemFields
)

var memFieldNames = [NumMemFields]string{
	MemActive:       "Active",
	MemAnonPages:    "AnonPages",
	MemBounce:       "Bounce",
	MemBuffers:      "Buffers",
	MemCached:       "Cached",
	MemCommitLimit:  "CommitLimit",
	MemCommittedAS:  "Committed_AS",
	MemDirty:        "Dirty",
	MemInactive:     "Inactive",
	MemMapped:       "Mapped",
	MemFree:         "MemFree",
	MemTotal:        "MemTotal",
	MemNFSUnstable:  "NFS_Unstable",
	MemPageTables:   "PageTables",
	MemSReclaimable: "SReclaimable",
	MemSUnreclaim:   "SUnreclaim",
	MemSlab:         "Slab",
	MemSwapCached:   "SwapCached",
	MemSwapFree:     "SwapFree",
	MemSwapTotal:    "SwapTotal",
	MemVmallocChunk: "VmallocChunk",
	MemVmallocTotal: "VmallocTotal",
	MemVmallocUsed:  "VmallocUsed",
	MemWriteback:    "Writeback",
}

var memFieldByName = func() map[string]MemField {
	m := make(map[string]MemField, NumMemFields)
	for f, name := range memFieldNames {
		m[name] = MemField(f)
	}
	return m
}()

// LookupMemField maps a /proc/meminfo label (case-sensitive) to its field.
func LookupMemField(name string) (MemField, bool) {
	f, ok := memFieldByName[name]
	return f, ok
}

func (f MemField) String() string {
	if f < 0 || f >= NumMemFields {
		return "unknown"
	}
	return memFieldNames[f]
}

// MemInfo holds the tracked /proc/meminfo values in kB plus the two derived ones.
type MemInfo struct {
	KB       [NumMemFields]uint64
	Used     uint64 // MemTotal - MemFree
	SwapUsed uint64 // SwapTotal - SwapFree
}

// Get returns the value of f in kB.
func (m MemInfo) Get(f MemField) uint64 {
	if f < 0 || f >= NumMemFields {
		return 0
	}
	return m.KB[f]
}

func (m MemInfo) Total() uint64 { return m.KB[MemTotal] }
func (m MemInfo) Free() uint64 { return m.KB[MemFree] }
func (m MemInfo) Buffers() uint64 { return m.KB[MemBuffers] }
func (m MemInfo) Cached() uint64 { return m.KB[MemCached] }
func (m MemInfo) SwapTotal() uint64 { return m.KB[MemSwapTotal] }
func (m MemInfo) SwapFree() uint64 { return m.KB[MemSwapFree] }

// Derive recomputes Used and SwapUsed. Both saturate at zero when a source
// reports free > total.
func (m *MemInfo) Derive() {
	m.Used = subSat(m.KB[MemTotal], m.KB[MemFree])
	m.SwapUsed = subSat(m.KB[MemSwapTotal], m.KB[MemSwapFree])
}

// MemSummary is the top-style memory view.
type MemSummary struct {
	Total     uint64
	Used      uint64
	Free      uint64
	Buffers   uint64
	SwapTotal uint64
	SwapUsed  uint64
	SwapFree  uint64
	Cached    uint64
}

// Summary returns the eight values shown by the summary printout.
func (m MemInfo) Summary() MemSummary {
	return MemSummary{
		Total:     m.Total(),
		Used:      m.Used,
		Free:      m.Free(),
		Buffers:   m.Buffers(),
		SwapTotal: m.SwapTotal(),
		SwapUsed:  m.SwapUsed,
		SwapFree:  m.SwapFree(),
		Cached:    m.Cached(),
	}
}

func subSat(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
