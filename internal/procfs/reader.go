// Package procfs reads the kernel text snapshots loadwatch samples.
package procfs

import (
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/pkg/errors"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
)

// Snapshot names relative to the proc mount.
const (
	LoadAvgFile = "loadavg"
	StatFile    = "stat"
	MemInfoFile = "meminfo"
	NetDevFile  = "net/dev"
)

// Buffer hints per source. Zero means probe: /proc/stat grows with the CPU
// count and /proc/net/dev with the number of interfaces.
const (
	LoadAvgHint = 256
	StatHint    = 0
	MemInfoHint = 0
	NetDevHint  = 0
)

// DefaultRoot is where procfs is normally mounted.
const DefaultRoot = "/proc"

// ReadFile returns the contents of name. With sizeHint > 0 at most
// sizeHint-1 bytes are read; the last unit of the buffer stays zero as a
// terminator. With sizeHint == 0 the length is probed through Stat, and files
// that report a zero size (procfs does) are read to EOF. buf is reused when
// it has enough capacity and is always zero-filled first.
func ReadFile(fsys fs.FS, name string, buf []byte, sizeHint int) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, &apperrors.SourceError{Path: name, Err: err}
	}
	defer f.Close()

	size := sizeHint
	if size <= 0 {
		fi, err := f.Stat()
		if err != nil {
			return nil, &apperrors.SourceError{Path: name, Err: err}
		}
		if fi.Size() == 0 {
			data, err := io.ReadAll(f)
			if err != nil {
				return nil, &apperrors.SourceError{Path: name, Err: errors.Wrap(err, "read")}
			}
			return data, nil
		}
		size = int(fi.Size()) + 1
	}

	if cap(buf) < size {
		buf = make([]byte, size)
	} else {
		buf = buf[:size]
		clear(buf)
	}

	n, err := io.ReadFull(f, buf[:size-1])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, &apperrors.SourceError{Path: name, Err: errors.Wrap(err, "read")}
	}
	return buf[:n], nil
}

// Source reads the four snapshots from one proc root.
type Source struct {
	fsys fs.FS
	root string
}

// NewSource returns a Source over the directory root, usually /proc.
func NewSource(root string) *Source {
	if root == "" {
		root = DefaultRoot
	}
	return &Source{fsys: os.DirFS(root), root: root}
}

// NewSourceFS returns a Source over an arbitrary file system; tests use it
// with fstest.MapFS.
func NewSourceFS(fsys fs.FS) *Source {
	return &Source{fsys: fsys, root: "."}
}

// Path returns the display path of name, for log entries and printouts.
func (s *Source) Path(name string) string { return path.Join(s.root, name) }

// Read returns a fresh buffer holding name. Buffers are never shared between
// calls.
func (s *Source) Read(name string, sizeHint int) ([]byte, error) {
	b, err := ReadFile(s.fsys, name, nil, sizeHint)
	if err != nil {
		var se *apperrors.SourceError
		if errors.As(err, &se) {
			se.Path = s.Path(name)
		}
		return nil, err
	}
	return b, nil
}

func (s *Source) LoadAvg() ([]byte, error) { return s.Read(LoadAvgFile, LoadAvgHint) }
func (s *Source) Stat() ([]byte, error) { return s.Read(StatFile, StatHint) }
func (s *Source) MemInfo() ([]byte, error) { return s.Read(MemInfoFile, MemInfoHint) }
func (s *Source) NetDev() ([]byte, error) { return s.Read(NetDevFile, NetDevHint) }
