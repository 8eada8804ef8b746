package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/schedule"
)

func newCheckCmd(opts *options) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show whether awake would run now and why",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			idle := platform.AllUnsupported()
			a, err := newApp(cfg, appOptions{platform: &idle})
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now()
			if at != "" {
				if now, err = time.ParseInLocation("2006-01-02 15:04", at, time.Local); err != nil {
					return fmt.Errorf("--at: want \"YYYY-MM-DD HH:MM\": %w", err)
				}
			}
			v := a.sched.Evaluate(cmd.Context(), now)
			printVerdict(cmd.OutOrStdout(), v, a.sched.Config(), now)

			out := cmd.OutOrStdout()
			if a.holidays != nil {
				fmt.Fprintf(out, "Holidays:  %s (lookup %s)\n", strings.ToUpper(cfg.Holidays.Country), a.holidays.BreakerState())
			} else {
				fmt.Fprintln(out, "Holidays:  not checked")
			}
			if msg := platform.DependencyMessage(); msg != "" {
				fmt.Fprintln(out, "Platform: ", msg)
			} else {
				fmt.Fprintln(out, "Platform:  ok")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", `evaluate at this local time ("YYYY-MM-DD HH:MM") instead of now`)
	return cmd
}

func printVerdict(w io.Writer, v schedule.Verdict, cfg schedule.Config, now time.Time) {
	run := "no"
	if v.ShouldRun {
		run = "yes"
	}
	fmt.Fprintf(w, "Checked:   %s\n", now.Format("Mon 2006-01-02 15:04"))
	fmt.Fprintf(w, "Run now:   %s (%s)\n", run, v.Reason)
	for _, m := range v.Messages {
		fmt.Fprintf(w, "  - %s\n", m)
	}
	for _, r := range v.BypassReasons {
		fmt.Fprintf(w, "  * %s\n", r)
	}
	if v.InBreak {
		fmt.Fprintf(w, "Break:     until %s\n", v.BreakEnd.Format("15:04"))
	}
	if v.HasNextRun() {
		fmt.Fprintf(w, "Next run:  %s\n", v.NextRunTime.Format("Mon 2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "Hours:     %s-%s\n", cfg.Start, cfg.End)
	for _, b := range cfg.Breaks {
		fmt.Fprintf(w, "Break at:  %s for %s\n", b.Start, b.Duration)
	}
}
