package sampler

import (
	"os"
	"sync"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
)

// fakeSnapshots serves mutable in-memory snapshots and counts reads.
type fakeSnapshots struct {
	mu      sync.Mutex
	files   map[string]string
	missing map[string]bool
	reads   map[string]int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		files: map[string]string{
			"loadavg": "0.50 0.75 1.20 1/300 1234\n",
			"stat":    "cpu  100 0 50 800 10 0 0 0\n",
			"meminfo": "MemTotal: 1000000 kB\nMemFree: 200000 kB\n",
			"net/dev": "  eth0: 1000 1 0 0 0 0 0 0 500 1 0 0 0 0 0 0\n",
		},
		missing: map[string]bool{},
		reads:   map[string]int{},
	}
}

func (f *fakeSnapshots) set(name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = content
}

func (f *fakeSnapshots) remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[name] = true
}

func (f *fakeSnapshots) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[name]
}

func (f *fakeSnapshots) read(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[name]++
	if f.missing[name] {
		return nil, &apperrors.SourceError{Path: name, Err: os.ErrNotExist}
	}
	return []byte(f.files[name]), nil
}

func (f *fakeSnapshots) LoadAvg() ([]byte, error) { return f.read("loadavg") }
func (f *fakeSnapshots) Stat() ([]byte, error) { return f.read("stat") }
func (f *fakeSnapshots) MemInfo() ([]byte, error) { return f.read("meminfo") }
func (f *fakeSnapshots) NetDev() ([]byte, error) { return f.read("net/dev") }
