package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stigoleg/awake/internal/platform"
)

func newHolidaysCmd(opts *options) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List the public holidays awake skips",
		Long: `List the public holidays of the configured country for a year. Regional
holidays are listed too but only nationwide ones pause awake.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Holidays.Country == "" {
				return errors.New("no country configured: set holidays.country or pass --country")
			}
			cfg.Schedule.IgnoreHolidays = false

			idle := platform.AllUnsupported()
			a, err := newApp(cfg, appOptions{platform: &idle})
			if err != nil {
				return err
			}
			defer a.Close()
			if a.holidays == nil {
				return errors.New("public holiday lookup is unavailable")
			}

			if year == 0 {
				year = time.Now().Year()
			}
			list, err := a.holidays.List(cmd.Context(), year)
			if err != nil {
				return fmt.Errorf("list holidays: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintf(out, "No public holidays found for %s in %d\n", cfg.Holidays.Country, year)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tNAME\tSCOPE")
			for _, h := range list {
				date := h.Start.Format(time.DateOnly)
				if !h.End.Equal(h.Start) {
					date += " - " + h.End.Format(time.DateOnly)
				}
				scope := "regional"
				if h.Nationwide {
					scope = "nationwide"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", date, h.Name, scope)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to list (default: current year)")
	return cmd
}
