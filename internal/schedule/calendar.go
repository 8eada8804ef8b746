package schedule

import (
	"context"
	"time"
)

// nextRun returns the configured start time on the first day after now's
// calendar day that passes the filters, or the zero time when no such day
// exists within MaxSearchDays. Excluded weekdays are skipped unless
// IgnoreWorkingDays is set. With checkHolidays, holidays are skipped too
// unless IgnoreHolidays is set, costing one lookup per candidate day.
func (s *Scheduler) nextRun(ctx context.Context, now time.Time, checkHolidays bool) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	for i := 1; i <= MaxSearchDays; i++ {
		// Stepping from noon keeps DST changes from skipping a day.
		candidate := day.AddDate(0, 0, i)
		if ctx.Err() != nil {
			return time.Time{}
		}
		if !s.cfg.IgnoreWorkingDays && s.isExcludedWeekday(candidate.Weekday()) {
			continue
		}
		if checkHolidays && !s.cfg.IgnoreHolidays && s.isHoliday(ctx, candidate) {
			continue
		}
		return s.cfg.Start.On(candidate)
	}
	return time.Time{}
}
