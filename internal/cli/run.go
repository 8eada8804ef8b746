package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stigoleg/awake/internal/logging"
	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/status"
	"github.com/stigoleg/awake/internal/ui"
	"github.com/stigoleg/awake/internal/util"
)

func addRunFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "run without the dashboard, logging to stderr")
	cmd.Flags().StringVarP(&opts.until, "until", "u", "", `keep awake until this time of day (e.g. "17:30" or "5:30PM")`)
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start keeping the system awake",
		Long: `Start keeping the system awake. With --headless the loop runs without the
dashboard until interrupted or until --duration or --until elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeepAlive(cmd, opts)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func runKeepAlive(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if opts.until != "" {
		if cmd.Flags().Changed("duration") {
			return errors.New("--until and --duration cannot be combined")
		}
		d, err := untilDuration(opts.until, time.Now())
		if err != nil {
			return fmt.Errorf("--until: %w", err)
		}
		cfg.KeepAlive.Duration.Duration = d
	}

	headless := opts.headless || !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout())
	if headless && !opts.headless {
		fmt.Fprintln(cmd.ErrOrStderr(), "no terminal attached, running headless")
	}

	// The dashboard owns the terminal, so it always logs to a file.
	ao := appOptions{}
	if !headless {
		ao.logFile = logging.DefaultLogPath()
	}
	a, err := newApp(cfg, ao)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("awake starting", "version", Version, "method", cfg.KeepAlive.Method,
		"headless", headless, "duration", cfg.KeepAlive.Duration.Duration)
	if msg := platform.DependencyMessage(); msg != "" {
		a.logger.Warn("missing platform dependencies", "detail", msg)
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
	defer stop()

	if addr := cfg.Status.Addr; addr != "" {
		srv := status.NewServer(addr, a.monitor, a.session, a.logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				a.logger.Error("status endpoint failed", "error", err)
			}
		}()
	}

	if headless {
		return runHeadless(ctx, a)
	}
	return runDashboard(ctx, a)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runHeadless runs the loop in the foreground until ctx ends or the
// configured duration elapses.
func runHeadless(ctx context.Context, a *app) error {
	err := a.monitor.Run(ctx)
	a.logger.Info("awake stopped", "actions", a.monitor.Status().Actions)
	return err
}

// runDashboard runs the TUI. A signal quits the program and the keeper is
// stopped on the way out.
func runDashboard(ctx context.Context, a *app) error {
	var model ui.Model
	if d := a.cfg.KeepAlive.Duration.Duration; d > 0 {
		model = ui.InitialModelWithDuration(a.keeper, d)
	} else {
		model = ui.InitialModel(a.keeper)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithoutSignalHandler())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()
	if err := a.keeper.Stop(); err != nil {
		a.logger.Error("error stopping keep-alive", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("dashboard: %w", runErr)
	}
	return nil
}

// untilDuration returns the time from now to the next occurrence of the
// given time of day.
func untilDuration(s string, now time.Time) (time.Duration, error) {
	c, err := util.ParseClock(s)
	if err != nil {
		return 0, err
	}
	return c.Next(now).Sub(now), nil
}
