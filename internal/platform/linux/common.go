//go:build linux

package linux

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/stigoleg/awake/internal/util"
)

// hasCommand checks if a command is available in the system PATH.
// This is a convenience wrapper around util.HasCommand.
var hasCommand = util.HasCommand

// run executes a command under util.CommandTimeout and returns its trimmed
// standard output.
var run = util.Output

// runBestEffort executes a command and logs any errors but does not return them.
func runBestEffort(ctx context.Context, logger *slog.Logger, name string, args ...string) {
	if _, err := run(ctx, name, args...); err != nil {
		logger.Debug("best-effort command failed", "command", name+" "+strings.Join(args, " "), "error", err)
	}
}

// Open hands target to the desktop's default handler.
func Open(ctx context.Context, target string) error {
	if !hasCommand("xdg-open") {
		return errors.New("xdg-open command not found")
	}
	_, err := run(ctx, "xdg-open", target)
	return err
}
