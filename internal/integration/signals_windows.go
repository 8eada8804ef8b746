//go:build windows

package integration

import (
	"os"
	"syscall"
)

func shutdownSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
	}
}

// testSignals is empty: Windows cannot deliver signals to another process.
func testSignals() map[string]os.Signal {
	return nil
}
