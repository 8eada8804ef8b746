package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/stigoleg/awake/internal/action"
	"github.com/stigoleg/awake/internal/logging"
	"github.com/stigoleg/awake/internal/platform"
)

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationErrors) add(field, format string, args ...any) {
	*e = append(*e, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the whole configuration and returns ValidationErrors when
// anything is wrong. Break windows are not checked against working hours.
func (c Config) Validate() error {
	var errs ValidationErrors

	s := c.Schedule
	if _, err := ParseWeekdays(s.NotWorkingDays); err != nil {
		errs.add("schedule.not_working_days", "%v", err)
	}
	if !s.Start.Before(s.End) {
		errs.add("schedule.end", "end %s must be after start %s", s.End, s.Start)
	}
	for i, b := range s.Breaks {
		field := fmt.Sprintf("schedule.breaks[%d]", i)
		if b.MinMinutes < 0 {
			errs.add(field, "min_minutes must not be negative")
		}
		if b.MaxMinutes < b.MinMinutes {
			errs.add(field, "max_minutes %d is less than min_minutes %d", b.MaxMinutes, b.MinMinutes)
		}
	}

	h := c.Holidays
	if h.Country != "" && len(strings.TrimSpace(h.Country)) != 2 {
		errs.add("holidays.country", "want a two-letter ISO code, got %q", h.Country)
	}
	if h.Language != "" && len(strings.TrimSpace(h.Language)) != 2 {
		errs.add("holidays.language", "want a two-letter ISO code, got %q", h.Language)
	}
	if h.APIURL != "" {
		if u, err := url.Parse(h.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs.add("holidays.api_url", "invalid URL %q", h.APIURL)
		}
	}
	if h.Timeout.Duration < 0 {
		errs.add("holidays.timeout", "must not be negative")
	}

	a := c.Activity
	if a.MovementThreshold < 1 {
		errs.add("activity.movement_threshold", "must be at least 1 pixel")
	}
	if a.EngagementConfidence < 0 || a.EngagementConfidence > 100 {
		errs.add("activity.engagement_confidence", "must be within 0..100, got %d", a.EngagementConfidence)
	}
	if a.PollInterval.Duration < 100*time.Millisecond {
		errs.add("activity.poll_interval", "must be at least 100ms, got %s", a.PollInterval)
	}

	k := c.KeepAlive
	method, err := action.ParseMethod(k.Method)
	if err != nil {
		errs.add("keepalive.method", "%v", err)
	}
	switch method {
	case action.MethodApp:
		if k.App == "" {
			errs.add("keepalive.app", "required for method app")
		}
	case action.MethodBrowser:
		if k.URL == "" {
			errs.add("keepalive.url", "required for method browser")
		}
	case action.MethodCommand:
		if k.Command == "" {
			errs.add("keepalive.command", "required for method command")
		}
	}
	if k.WaitMinSeconds < 1 {
		errs.add("keepalive.wait_min_seconds", "must be at least 1")
	}
	if k.WaitMaxSeconds < k.WaitMinSeconds {
		errs.add("keepalive.wait_max_seconds", "%d is less than wait_min_seconds %d", k.WaitMaxSeconds, k.WaitMinSeconds)
	}
	if _, err := platform.ParseDisplayMode(k.IdleDisplay); err != nil {
		errs.add("keepalive.idle_display", "%v", err)
	}
	if k.Duration.Duration < 0 {
		errs.add("keepalive.duration", "must not be negative")
	}

	if v := c.Logging.Verbosity; v < 0 || v > logging.MaxVerbosity {
		errs.add("logging.verbosity", "must be within 0..%d, got %d", logging.MaxVerbosity, v)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
