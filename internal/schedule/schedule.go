// Package schedule decides whether the keep-alive loop may act at a given
// moment, based on working days, public holidays, working hours and breaks.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stigoleg/awake/internal/util"
)

// Reasons reported in Verdict.Reason.
const (
	ReasonBypassed     = "All restrictions bypassed"
	ReasonNotWorkday   = "Not a working day"
	ReasonHoliday      = "Public holiday"
	ReasonOutsideHours = "Outside working hours"
	ReasonInBreak      = "In break window"
	ReasonAllMet       = "All conditions met"
	ReasonError        = "Error checking working hours"
)

// MaxSearchDays bounds the next-eligible-day search.
const MaxSearchDays = 366

// HolidayChecker reports whether a calendar day is a public holiday.
type HolidayChecker interface {
	IsHoliday(ctx context.Context, day time.Time) (bool, error)
}

// NoHolidays is a HolidayChecker that never reports a holiday.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(context.Context, time.Time) (bool, error) { return false, nil }

// Break is a time-of-day window during which the loop keeps running.
type Break struct {
	Start    util.Clock
	Duration time.Duration
}

// Window returns the break's [start, end] on the day of t.
func (b Break) Window(t time.Time) (time.Time, time.Time) {
	start := b.Start.On(t)
	return start, start.Add(b.Duration)
}

// Contains reports whether t lies inside the break, both ends inclusive.
func (b Break) Contains(t time.Time) bool {
	start, end := b.Window(t)
	return !t.Before(start) && !t.After(end)
}

// Config is the read-only schedule configuration.
type Config struct {
	NotWorkingDays []time.Weekday
	Start          util.Clock
	End            util.Clock
	Breaks         []Break

	IgnoreWorkingDays  bool
	IgnoreHolidays     bool
	IgnoreWorkingHours bool
	ForceRun           bool
}

// Verdict is the outcome of one schedule evaluation.
type Verdict struct {
	ShouldRun bool
	Reason    string

	// Messages documents every gate outcome in evaluation order.
	Messages      []string
	BypassReasons []string

	// NextRunTime is zero when there is no scheduled resumption.
	NextRunTime time.Time

	InBreak  bool
	BreakEnd time.Time
}

// HasNextRun reports whether the verdict carries a resumption time.
func (v Verdict) HasNextRun() bool {
	return !v.NextRunTime.IsZero()
}

// Scheduler evaluates the gates. It holds no mutable state, so identical
// inputs always produce identical verdicts.
type Scheduler struct {
	cfg      Config
	holidays HolidayChecker
	logger   *slog.Logger
}

// New creates a scheduler. A nil checker means no holidays; a nil logger
// uses slog.Default.
func New(cfg Config, holidays HolidayChecker, logger *slog.Logger) *Scheduler {
	if holidays == nil {
		holidays = NoHolidays{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg,
		holidays: holidays,
		logger:   logger.With("component", "scheduler"),
	}
}

// Config returns the configuration the scheduler was built with.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Evaluate runs every gate in order: force-run, working day, holiday,
// time of day, break. Any panic yields a fail-closed verdict.
func (s *Scheduler) Evaluate(ctx context.Context, now time.Time) Verdict {
	return s.evaluate(ctx, now, true)
}

// StillValid re-runs the working day, holiday and time-of-day gates. The
// monitor calls it once per cycle to notice midnight or end-of-day.
func (s *Scheduler) StillValid(ctx context.Context, now time.Time) (bool, string) {
	v := s.evaluate(ctx, now, false)
	return v.ShouldRun, v.Reason
}

func (s *Scheduler) evaluate(ctx context.Context, now time.Time, withBreaks bool) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("schedule evaluation failed", "panic", r)
			v = Verdict{
				Reason:   ReasonError,
				Messages: append(v.Messages, fmt.Sprintf("Error: %v", r)),
			}
		}
	}()

	if s.cfg.ForceRun {
		v.ShouldRun = true
		v.Reason = ReasonBypassed
		v.BypassReasons = append(v.BypassReasons, "Force run enabled")
		v.Messages = append(v.Messages, "Force run: all restrictions bypassed")
		return v
	}

	// Working day.
	if s.isExcludedWeekday(now.Weekday()) {
		if !s.cfg.IgnoreWorkingDays {
			v.Reason = ReasonNotWorkday
			v.Messages = append(v.Messages, fmt.Sprintf("%s is not a working day", now.Weekday()))
			v.NextRunTime = s.nextRun(ctx, now, false)
			s.noteNextRun(&v)
			return v
		}
		v.BypassReasons = append(v.BypassReasons, fmt.Sprintf("Working day check bypassed (%s)", now.Weekday()))
		v.Messages = append(v.Messages, fmt.Sprintf("%s is not a working day, bypassed", now.Weekday()))
	} else {
		v.Messages = append(v.Messages, fmt.Sprintf("%s is a working day", now.Weekday()))
	}

	// Holiday.
	if s.cfg.IgnoreHolidays {
		v.BypassReasons = append(v.BypassReasons, "Holiday check bypassed")
		v.Messages = append(v.Messages, "Holiday check bypassed")
	} else if s.isHoliday(ctx, now) {
		v.Reason = ReasonHoliday
		v.Messages = append(v.Messages, fmt.Sprintf("%s is a public holiday", now.Format(time.DateOnly)))
		v.NextRunTime = s.nextRun(ctx, now, true)
		s.noteNextRun(&v)
		return v
	} else {
		v.Messages = append(v.Messages, "Not a public holiday")
	}

	// Time of day.
	start, end := s.cfg.Start.On(now), s.cfg.End.On(now)
	inHours := !now.Before(start) && now.Before(end)
	switch {
	case inHours:
		v.Messages = append(v.Messages, fmt.Sprintf("Within working hours (%s-%s)", s.cfg.Start, s.cfg.End))
	case s.cfg.IgnoreWorkingHours:
		v.BypassReasons = append(v.BypassReasons, "Working hours check bypassed")
		v.Messages = append(v.Messages, fmt.Sprintf("Outside working hours (%s-%s), bypassed", s.cfg.Start, s.cfg.End))
	default:
		v.Reason = ReasonOutsideHours
		v.Messages = append(v.Messages, fmt.Sprintf("Outside working hours (%s-%s)", s.cfg.Start, s.cfg.End))
		if now.Before(start) {
			v.NextRunTime = start
		} else {
			v.NextRunTime = s.nextRun(ctx, now, true)
		}
		s.noteNextRun(&v)
		return v
	}

	v.ShouldRun = true

	if withBreaks {
		for i, b := range s.cfg.Breaks {
			if b.Duration <= 0 || !b.Contains(now) {
				continue
			}
			_, breakEnd := b.Window(now)
			v.InBreak = true
			v.BreakEnd = breakEnd
			v.Reason = ReasonInBreak
			v.Messages = append(v.Messages, fmt.Sprintf("In break %d (%s, %s)", i+1, b.Start, b.Duration))
			return v
		}
		if len(s.cfg.Breaks) > 0 {
			v.Messages = append(v.Messages, "Not in a break window")
		}
	}

	v.Reason = ReasonAllMet
	return v
}

func (s *Scheduler) noteNextRun(v *Verdict) {
	if v.HasNextRun() {
		v.Messages = append(v.Messages, "Next run: "+v.NextRunTime.Format("Mon 2006-01-02 15:04"))
	} else {
		v.Messages = append(v.Messages, fmt.Sprintf("No eligible day found within %d days", MaxSearchDays))
	}
}

func (s *Scheduler) isExcludedWeekday(d time.Weekday) bool {
	for _, w := range s.cfg.NotWorkingDays {
		if w == d {
			return true
		}
	}
	return false
}

// isHoliday treats lookup failures as "not a holiday".
func (s *Scheduler) isHoliday(ctx context.Context, day time.Time) bool {
	holiday, err := s.holidays.IsHoliday(ctx, day)
	if err != nil {
		s.logger.Warn("holiday lookup failed, assuming working day",
			"date", day.Format(time.DateOnly), "error", err)
		return false
	}
	return holiday
}
