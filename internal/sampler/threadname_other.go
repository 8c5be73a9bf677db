//go:build !linux

package sampler

func setThreadName(string) error { return nil }

func threadName() (string, error) { return "", nil }
