//go:build !unix

package app

import "os"

var terminationSignals = []os.Signal{os.Interrupt}
