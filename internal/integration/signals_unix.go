//go:build !windows

package integration

import (
	"os"
	"syscall"
)

func shutdownSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGTSTP,
	}
}

// testSignals are the signals the helper process must clean up after.
func testSignals() map[string]os.Signal {
	return map[string]os.Signal{
		"SIGINT":  syscall.SIGINT,
		"SIGTERM": syscall.SIGTERM,
		"SIGQUIT": syscall.SIGQUIT,
		"SIGTSTP": syscall.SIGTSTP,
	}
}
