// Package config loads the awake configuration: built-in defaults, then a
// TOML or YAML file, then command-line flags the user actually set.
package config

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stigoleg/awake/internal/action"
	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/holiday"
	"github.com/stigoleg/awake/internal/keepalive"
	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/schedule"
	"github.com/stigoleg/awake/internal/util"
)

// Config is the full configuration.
type Config struct {
	Schedule  ScheduleConfig  `toml:"schedule" yaml:"schedule"`
	Holidays  HolidayConfig   `toml:"holidays" yaml:"holidays"`
	Activity  ActivityConfig  `toml:"activity" yaml:"activity"`
	KeepAlive KeepAliveConfig `toml:"keepalive" yaml:"keepalive"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Status    StatusConfig    `toml:"status" yaml:"status"`
}

// ScheduleConfig describes working time.
type ScheduleConfig struct {
	NotWorkingDays []string      `toml:"not_working_days" yaml:"not_working_days"`
	Start          util.Clock    `toml:"start" yaml:"start"`
	End            util.Clock    `toml:"end" yaml:"end"`
	Breaks         []BreakConfig `toml:"breaks" yaml:"breaks"`

	IgnoreWorkingDays  bool `toml:"ignore_working_days" yaml:"ignore_working_days"`
	IgnoreHolidays     bool `toml:"ignore_holidays" yaml:"ignore_holidays"`
	IgnoreWorkingHours bool `toml:"ignore_working_hours" yaml:"ignore_working_hours"`
	ForceRun           bool `toml:"force_run" yaml:"force_run"`
}

// BreakConfig is a break window whose length is drawn once per process
// from [MinMinutes, MaxMinutes].
type BreakConfig struct {
	Start      util.Clock `toml:"start" yaml:"start"`
	MinMinutes int        `toml:"min_minutes" yaml:"min_minutes"`
	MaxMinutes int        `toml:"max_minutes" yaml:"max_minutes"`
}

// HolidayConfig configures the public holiday lookup. An empty country
// disables it.
type HolidayConfig struct {
	Country   string   `toml:"country" yaml:"country"`
	Language  string   `toml:"language" yaml:"language"`
	APIURL    string   `toml:"api_url" yaml:"api_url"`
	CachePath string   `toml:"cache_path" yaml:"cache_path"`
	Timeout   Duration `toml:"timeout" yaml:"timeout"`
}

// ActivityConfig tunes the activity detector.
type ActivityConfig struct {
	MovementThreshold    int      `toml:"movement_threshold" yaml:"movement_threshold"`
	EngagementConfidence int      `toml:"engagement_confidence" yaml:"engagement_confidence"`
	PollInterval         Duration `toml:"poll_interval" yaml:"poll_interval"`
}

// KeepAliveConfig selects and tunes the keep-alive action.
type KeepAliveConfig struct {
	Method         string   `toml:"method" yaml:"method"`
	Key            string   `toml:"key" yaml:"key"`
	App            string   `toml:"app" yaml:"app"`
	AppArgs        []string `toml:"app_args" yaml:"app_args"`
	AppHold        Duration `toml:"app_hold" yaml:"app_hold"`
	URL            string   `toml:"url" yaml:"url"`
	Command        string   `toml:"command" yaml:"command"`
	CommandTimeout Duration `toml:"command_timeout" yaml:"command_timeout"`

	WaitMinSeconds int `toml:"wait_min_seconds" yaml:"wait_min_seconds"`
	WaitMaxSeconds int `toml:"wait_max_seconds" yaml:"wait_max_seconds"`

	IdleDisplay  string   `toml:"idle_display" yaml:"idle_display"`
	InhibitSleep bool     `toml:"inhibit_sleep" yaml:"inhibit_sleep"`
	Duration     Duration `toml:"duration" yaml:"duration"`
}

// LoggingConfig controls the log output.
type LoggingConfig struct {
	Verbosity int    `toml:"verbosity" yaml:"verbosity"`
	File      string `toml:"file" yaml:"file"`
}

// StatusConfig enables the local status endpoint. An empty address
// disables it.
type StatusConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Duration is a time.Duration written as "90s", "1h30m" or a bare number
// of minutes.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := util.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Schedule: ScheduleConfig{
			NotWorkingDays: []string{"Saturday", "Sunday"},
			Start:          util.MustParseClock("08:30"),
			End:            util.MustParseClock("17:00"),
			Breaks: []BreakConfig{
				{Start: util.MustParseClock("10:00"), MinMinutes: 10, MaxMinutes: 15},
				{Start: util.MustParseClock("12:00"), MinMinutes: 30, MaxMinutes: 45},
				{Start: util.MustParseClock("14:30"), MinMinutes: 10, MaxMinutes: 15},
			},
		},
		Holidays: HolidayConfig{
			Language:  "EN",
			APIURL:    holiday.DefaultBaseURL,
			CachePath: DefaultHolidayCachePath(),
			Timeout:   Duration{holiday.DefaultTimeout},
		},
		Activity: ActivityConfig{
			MovementThreshold:    activity.DefaultMovementThreshold,
			EngagementConfidence: activity.EngagementConfidenceMin,
			PollInterval:         Duration{keepalive.DefaultPollInterval},
		},
		KeepAlive: KeepAliveConfig{
			Method:         action.MethodKey.String(),
			Key:            action.DefaultKey,
			AppHold:        Duration{action.DefaultAppHold},
			CommandTimeout: Duration{action.DefaultCommandTimeout},
			WaitMinSeconds: int(keepalive.DefaultWaitMin / time.Second),
			WaitMaxSeconds: int(keepalive.DefaultWaitMax / time.Second),
			IdleDisplay:    platform.DisplayNormal.String(),
		},
		Logging: LoggingConfig{
			Verbosity: 2,
		},
	}
}

// ResolveBreaks draws each break's duration once, in whole minutes.
func (c Config) ResolveBreaks(rnd *rand.Rand) []schedule.Break {
	breaks := make([]schedule.Break, 0, len(c.Schedule.Breaks))
	for _, b := range c.Schedule.Breaks {
		lo, hi := b.MinMinutes, b.MaxMinutes
		if hi < lo {
			hi = lo
		}
		minutes := lo + rnd.Intn(hi-lo+1)
		breaks = append(breaks, schedule.Break{
			Start:    b.Start,
			Duration: time.Duration(minutes) * time.Minute,
		})
	}
	return breaks
}

// ScheduleConfig converts to the scheduler's configuration. It assumes the
// config has been validated.
func (c Config) ScheduleConfig(rnd *rand.Rand) schedule.Config {
	days, _ := ParseWeekdays(c.Schedule.NotWorkingDays)
	return schedule.Config{
		NotWorkingDays:     days,
		Start:              c.Schedule.Start,
		End:                c.Schedule.End,
		Breaks:             c.ResolveBreaks(rnd),
		IgnoreWorkingDays:  c.Schedule.IgnoreWorkingDays,
		IgnoreHolidays:     c.Schedule.IgnoreHolidays,
		IgnoreWorkingHours: c.Schedule.IgnoreWorkingHours,
		ForceRun:           c.Schedule.ForceRun,
	}
}

// MonitorConfig converts to the loop configuration. It assumes the config
// has been validated.
func (c Config) MonitorConfig() keepalive.MonitorConfig {
	method, _ := action.ParseMethod(c.KeepAlive.Method)
	display, _ := platform.ParseDisplayMode(c.KeepAlive.IdleDisplay)
	return keepalive.MonitorConfig{
		WaitMin:           time.Duration(c.KeepAlive.WaitMinSeconds) * time.Second,
		WaitMax:           time.Duration(c.KeepAlive.WaitMaxSeconds) * time.Second,
		PollInterval:      c.Activity.PollInterval.Duration,
		MovementThreshold: c.Activity.MovementThreshold,
		EngagementMin:     c.Activity.EngagementConfidence,
		Method:            method,
		IdleDisplay:       display,
		Duration:          c.KeepAlive.Duration.Duration,
		InhibitSleep:      c.KeepAlive.InhibitSleep,
	}
}

// ActionOptions converts to the keep-alive handler options.
func (c Config) ActionOptions() action.Options {
	return action.Options{
		Key:            c.KeepAlive.Key,
		App:            c.KeepAlive.App,
		AppArgs:        c.KeepAlive.AppArgs,
		AppHold:        c.KeepAlive.AppHold.Duration,
		URL:            c.KeepAlive.URL,
		Command:        c.KeepAlive.Command,
		CommandTimeout: c.KeepAlive.CommandTimeout.Duration,
	}
}

// HolidayEnabled reports whether holidays should be looked up.
func (c Config) HolidayEnabled() bool {
	return strings.TrimSpace(c.Holidays.Country) != "" && !c.Schedule.IgnoreHolidays
}

// HolidayOptions converts to the holiday client options, without a cache.
func (c Config) HolidayOptions() holiday.Options {
	return holiday.Options{
		BaseURL:      c.Holidays.APIURL,
		CountryCode:  c.Holidays.Country,
		LanguageCode: c.Holidays.Language,
		Timeout:      c.Holidays.Timeout.Duration,
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts a full or three-letter English day name.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdays[name]; ok {
		return d, nil
	}
	if len(name) == 3 {
		for full, d := range weekdays {
			if strings.HasPrefix(full, name) {
				return d, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekdays parses every name, returning the first error.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGCacheHome returns the XDG cache home or a default fallback.
func XDGCacheHome() string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".cache")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "awake", "config.toml")
}

// DefaultHolidayCachePath returns the default SQLite holiday cache path.
func DefaultHolidayCachePath() string {
	return filepath.Join(XDGCacheHome(), "awake", "holidays.db")
}
