package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/stigoleg/awake/internal/util"
)

// Flags holds command-line overrides. Only flags the user set are applied,
// so file values survive unset flags.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath string

	notWorkingDays []string
	start          string
	end            string

	ignoreWorkingDays  bool
	ignoreHolidays     bool
	ignoreWorkingHours bool
	forceRun           bool

	country   string
	language  string
	apiURL    string
	cachePath string

	threshold    int
	engagement   int
	pollInterval time.Duration

	method       string
	key          string
	app          string
	url          string
	command      string
	waitMin      int
	waitMax      int
	idleDisplay  string
	inhibitSleep bool
	duration     string

	verbosity int
	logFile   string

	statusAddr string
}

// RegisterFlags adds the configuration flags to fs. Defaults shown in help
// are the built-in ones.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}

	fs.StringVarP(&f.ConfigPath, "config", "c", DefaultConfigPath(), "config file (.toml, .yaml or .yml)")

	fs.StringSliceVar(&f.notWorkingDays, "not-working-days", d.Schedule.NotWorkingDays, "weekdays without work")
	fs.StringVar(&f.start, "start", d.Schedule.Start.String(), "start of working hours (HH:MM or HH:MM AM/PM)")
	fs.StringVar(&f.end, "end", d.Schedule.End.String(), "end of working hours (HH:MM or HH:MM AM/PM)")
	fs.BoolVar(&f.ignoreWorkingDays, "ignore-working-days", false, "run on non-working days")
	fs.BoolVar(&f.ignoreHolidays, "ignore-holidays", false, "run on public holidays")
	fs.BoolVar(&f.ignoreWorkingHours, "ignore-working-hours", false, "run outside working hours")
	fs.BoolVarP(&f.forceRun, "force", "f", false, "bypass every schedule restriction")

	fs.StringVar(&f.country, "country", d.Holidays.Country, "ISO country code for public holidays (empty disables)")
	fs.StringVar(&f.language, "language", d.Holidays.Language, "ISO language code for holiday names")
	fs.StringVar(&f.apiURL, "holiday-api", d.Holidays.APIURL, "holiday API base URL")
	fs.StringVar(&f.cachePath, "holiday-cache", d.Holidays.CachePath, "holiday cache database (empty disables)")

	fs.IntVar(&f.threshold, "threshold", d.Activity.MovementThreshold, "pointer movement in pixels that counts as activity")
	fs.IntVar(&f.engagement, "engagement", d.Activity.EngagementConfidence, "confidence at which activity postpones the keep-alive action")
	fs.DurationVar(&f.pollInterval, "poll-interval", d.Activity.PollInterval.Duration, "input polling interval")

	fs.StringVarP(&f.method, "method", "m", d.KeepAlive.Method, "keep-alive method: key, mouse, app, browser, command or random")
	fs.StringVar(&f.key, "key", d.KeepAlive.Key, "key pressed by the key method")
	fs.StringVar(&f.app, "app", "", "application started by the app method")
	fs.StringVar(&f.url, "url", "", "URL opened by the browser method")
	fs.StringVar(&f.command, "command", "", "shell command run by the command method")
	fs.IntVar(&f.waitMin, "wait-min", d.KeepAlive.WaitMinSeconds, "minimum idle seconds before acting")
	fs.IntVar(&f.waitMax, "wait-max", d.KeepAlive.WaitMaxSeconds, "maximum idle seconds before acting")
	fs.StringVar(&f.idleDisplay, "idle-display", d.KeepAlive.IdleDisplay, "display mode while idle: normal, dim, sleep or off")
	fs.BoolVar(&f.inhibitSleep, "inhibit-sleep", false, "also hold an OS sleep inhibitor while running")
	fs.StringVarP(&f.duration, "duration", "d", "", `stop after this long (e.g. "2h30m" or minutes)`)

	fs.IntVarP(&f.verbosity, "verbosity", "v", d.Logging.Verbosity, "log verbosity 0-4 (errors, warnings, info, debug, trace)")
	fs.StringVar(&f.logFile, "log-file", "", "log file (default: platform log directory)")

	fs.StringVar(&f.statusAddr, "status-addr", "", `serve /status on this address (e.g. "127.0.0.1:8765")`)

	return f
}

// Apply overlays the flags the user set onto cfg.
func (f *Flags) Apply(cfg *Config) error {
	changed := f.fs.Changed

	if changed("not-working-days") {
		cfg.Schedule.NotWorkingDays = f.notWorkingDays
	}
	if changed("start") {
		c, err := util.ParseClock(f.start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		cfg.Schedule.Start = c
	}
	if changed("end") {
		c, err := util.ParseClock(f.end)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		cfg.Schedule.End = c
	}
	applyBool(changed("ignore-working-days"), &cfg.Schedule.IgnoreWorkingDays, f.ignoreWorkingDays)
	applyBool(changed("ignore-holidays"), &cfg.Schedule.IgnoreHolidays, f.ignoreHolidays)
	applyBool(changed("ignore-working-hours"), &cfg.Schedule.IgnoreWorkingHours, f.ignoreWorkingHours)
	applyBool(changed("force"), &cfg.Schedule.ForceRun, f.forceRun)

	applyString(changed("country"), &cfg.Holidays.Country, f.country)
	applyString(changed("language"), &cfg.Holidays.Language, f.language)
	applyString(changed("holiday-api"), &cfg.Holidays.APIURL, f.apiURL)
	applyString(changed("holiday-cache"), &cfg.Holidays.CachePath, f.cachePath)

	applyInt(changed("threshold"), &cfg.Activity.MovementThreshold, f.threshold)
	applyInt(changed("engagement"), &cfg.Activity.EngagementConfidence, f.engagement)
	if changed("poll-interval") {
		cfg.Activity.PollInterval = Duration{f.pollInterval}
	}

	applyString(changed("method"), &cfg.KeepAlive.Method, f.method)
	applyString(changed("key"), &cfg.KeepAlive.Key, f.key)
	applyString(changed("app"), &cfg.KeepAlive.App, f.app)
	applyString(changed("url"), &cfg.KeepAlive.URL, f.url)
	applyString(changed("command"), &cfg.KeepAlive.Command, f.command)
	applyInt(changed("wait-min"), &cfg.KeepAlive.WaitMinSeconds, f.waitMin)
	applyInt(changed("wait-max"), &cfg.KeepAlive.WaitMaxSeconds, f.waitMax)
	applyString(changed("idle-display"), &cfg.KeepAlive.IdleDisplay, f.idleDisplay)
	applyBool(changed("inhibit-sleep"), &cfg.KeepAlive.InhibitSleep, f.inhibitSleep)
	if changed("duration") {
		d, err := util.ParseDuration(f.duration)
		if err != nil {
			return err
		}
		cfg.KeepAlive.Duration = Duration{d}
	}

	applyInt(changed("verbosity"), &cfg.Logging.Verbosity, f.verbosity)
	applyString(changed("log-file"), &cfg.Logging.File, f.logFile)

	applyString(changed("status-addr"), &cfg.Status.Addr, f.statusAddr)
	return nil
}

// Load reads the config file named by --config and applies the flags.
func (f *Flags) Load() (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if err := f.Apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyString(changed bool, target *string, value string) {
	if changed {
		*target = value
	}
}

func applyInt(changed bool, target *int, value int) {
	if changed {
		*target = value
	}
}

func applyBool(changed bool, target *bool, value bool) {
	if changed {
		*target = value
	}
}
