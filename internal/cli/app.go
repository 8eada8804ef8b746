package cli

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/stigoleg/awake/internal/action"
	"github.com/stigoleg/awake/internal/config"
	"github.com/stigoleg/awake/internal/holiday"
	"github.com/stigoleg/awake/internal/keepalive"
	"github.com/stigoleg/awake/internal/logging"
	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/schedule"
)

// app is the wired runtime: logger, holiday client, scheduler, platform
// collaborators, action dispatcher and the keep-alive loop.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	session  string
	holidays *holiday.Client
	sched    *schedule.Scheduler
	plat     platform.Collaborators
	monitor  *keepalive.Monitor
	keeper   *keepalive.Keeper

	closers []io.Closer
}

// appOptions adjust newApp for commands and tests.
type appOptions struct {
	// logFile is used when the config names none. Empty logs to stderr.
	logFile  string
	platform *platform.Collaborators
	rnd      *rand.Rand
}

func newApp(cfg config.Config, o appOptions) (*app, error) {
	a := &app{cfg: cfg, session: logging.NewSessionID()}

	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = o.logFile
	}
	logger, closer, err := logging.New(logging.Config{
		Verbosity: cfg.Logging.Verbosity,
		FilePath:  logFile,
		Session:   a.session,
	})
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.closers = append(a.closers, closer)

	rnd := o.rnd
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	a.holidays = a.newHolidayClient()
	var checker schedule.HolidayChecker
	if a.holidays != nil {
		checker = a.holidays
	}
	a.sched = schedule.New(cfg.ScheduleConfig(rnd), checker, logger)
	for _, b := range a.sched.Config().Breaks {
		logger.Debug("break window", "start", b.Start, "duration", b.Duration)
	}

	if o.platform != nil {
		a.plat = *o.platform
	} else {
		a.plat = platform.New(logger)
	}
	actions := action.NewDefault(a.plat.Injector, a.plat.Opener, cfg.ActionOptions(), rnd, logger)
	a.monitor = keepalive.NewMonitor(cfg.MonitorConfig(), a.sched, a.plat, actions, logger)
	a.keeper = keepalive.NewKeeper(a.monitor, logger)
	return a, nil
}

// newHolidayClient returns nil when holiday lookups are disabled. A cache
// that cannot be opened is logged and skipped.
func (a *app) newHolidayClient() *holiday.Client {
	if !a.cfg.HolidayEnabled() {
		a.logger.Debug("public holiday lookup disabled")
		return nil
	}
	opts := a.cfg.HolidayOptions()
	if path := a.cfg.Holidays.CachePath; path != "" {
		cache, err := holiday.OpenCache(path)
		if err != nil {
			a.logger.Warn("holiday cache unavailable", "path", path, "error", err)
		} else {
			opts.Cache = cache
			a.closers = append(a.closers, cache)
		}
	}
	client, err := holiday.New(opts, a.logger)
	if err != nil {
		a.logger.Warn("public holiday lookup disabled", "error", err)
		return nil
	}
	return client
}

// Close releases the cache and the log file, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
