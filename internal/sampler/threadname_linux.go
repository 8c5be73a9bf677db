//go:build linux

package sampler

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxThreadName is TASK_COMM_LEN minus the terminator.
const maxThreadName = 15

// setThreadName renames the calling OS thread. The goroutine must be locked
// to its thread.
func setThreadName(name string) error {
	if len(name) > maxThreadName {
		name = name[:maxThreadName]
	}
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0)
}

// threadName returns the name of the calling OS thread.
func threadName() (string, error) {
	var buf [maxThreadName + 1]byte
	if err := unix.Prctl(unix.PR_GET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(buf[:]), nil
}
