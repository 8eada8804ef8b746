// Package cli wires the awake command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stigoleg/awake/internal/config"
	"github.com/stigoleg/awake/internal/ui"
)

// Build information, set with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// options are shared by every command.
type options struct {
	flags    *config.Flags
	headless bool
	until    string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "awake",
		Short: "Keep the system awake during working hours",
		Long: `awake keeps the system from idling while you work. It acts only within
configured working days and hours, skips public holidays, and waits while
you are actively using the keyboard or pointer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeepAlive(cmd, opts)
		},
	}
	opts.flags = config.RegisterFlags(root.PersistentFlags())
	addRunFlags(root, opts)
	root.CompletionOptions.HiddenDefaultCmd = false

	root.AddCommand(
		newRunCmd(opts),
		newCheckCmd(opts),
		newHolidaysCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	return execute(NewRootCmd(), os.Args[1:], os.Stderr)
}

func execute(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, ui.FormatError(err))
		return 1
	}
	return 0
}

// loadConfig reads the file and flags, then validates the result.
func loadConfig(opts *options) (config.Config, error) {
	cfg, err := opts.flags.Load()
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
