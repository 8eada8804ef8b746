//go:build !windows

package cli

import (
	"os"
	"syscall"
)

// shutdownSignals end the keep-alive loop. SIGTSTP is included so a
// suspended process never leaves the display dimmed or a sleep inhibitor
// held.
func shutdownSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGTSTP,
	}
}
