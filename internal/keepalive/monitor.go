// Package keepalive runs the schedule-gated keep-alive loop: it watches for
// genuine user activity and only acts once the user has been idle for a
// randomized wait.
package keepalive

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/stigoleg/awake/internal/action"
	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/logging"
	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/schedule"
)

// Loop timing defaults.
const (
	DefaultPollInterval  = 2 * time.Second
	DefaultRetryInterval = 60 * time.Second
	DefaultErrorCooldown = 60 * time.Second
	DefaultWaitMin       = 60 * time.Second
	DefaultWaitMax       = 240 * time.Second

	// SleepTimeoutMargin keeps the wait this far below the OS sleep timeout.
	SleepTimeoutMargin = 5 * time.Second
)

// Schedule gates the loop.
type Schedule interface {
	Evaluate(ctx context.Context, now time.Time) schedule.Verdict
	StillValid(ctx context.Context, now time.Time) (bool, string)
}

// Invoker performs keep-alive actions.
type Invoker interface {
	Invoke(ctx context.Context, m action.Method) (action.Method, error)
}

// MonitorConfig tunes the loop. Zero values take the defaults above.
type MonitorConfig struct {
	WaitMin      time.Duration
	WaitMax      time.Duration
	PollInterval time.Duration

	MovementThreshold int
	EngagementMin     int

	Method      action.Method
	IdleDisplay platform.DisplayMode

	// Duration stops the loop after it elapses. Zero runs until cancelled.
	Duration time.Duration

	// InhibitSleep holds an OS sleep inhibitor while the loop runs.
	InhibitSleep bool

	RetryInterval time.Duration
	ErrorCooldown time.Duration
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.WaitMin <= 0 {
		c.WaitMin = DefaultWaitMin
	}
	if c.WaitMax <= 0 {
		c.WaitMax = DefaultWaitMax
	}
	if c.WaitMax < c.WaitMin {
		c.WaitMax = c.WaitMin
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MovementThreshold <= 0 {
		c.MovementThreshold = activity.DefaultMovementThreshold
	}
	if c.EngagementMin <= 0 {
		c.EngagementMin = activity.EngagementConfidenceMin
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.ErrorCooldown <= 0 {
		c.ErrorCooldown = DefaultErrorCooldown
	}
	return c
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithSleeper replaces the context-aware sleep used between polls.
func WithSleeper(s platform.Sleeper) Option {
	return func(m *Monitor) { m.sleep = s }
}

// WithRand sets the source for wait draws.
func WithRand(rnd *rand.Rand) Option {
	return func(m *Monitor) { m.rnd = rnd }
}

// Monitor is the outer loop. Run drives it from a single goroutine; Status
// and Updates may be read from any goroutine.
type Monitor struct {
	cfg      MonitorConfig
	sched    Schedule
	plat     platform.Collaborators
	actions  Invoker
	detector *activity.Detector
	health   *Health
	logger   *slog.Logger

	now   func() time.Time
	sleep platform.Sleeper
	rnd   *rand.Rand

	// Owned by the Run goroutine.
	engaged  bool
	display  platform.DisplayMode
	isLaptop bool
	end      time.Time

	mu      sync.RWMutex
	status  Status
	updates chan Status
}

// NewMonitor wires the loop. Nil collaborators in plat are replaced with
// platform.Unsupported.
func NewMonitor(cfg MonitorConfig, sched Schedule, plat platform.Collaborators, actions Invoker, logger *slog.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	m := &Monitor{
		cfg:      cfg,
		sched:    sched,
		plat:     fillUnsupported(plat),
		actions:  actions,
		detector: activity.NewDetector(cfg.MovementThreshold),
		health:   &Health{},
		logger:   logger.With("component", "monitor"),
		now:      time.Now,
		sleep:    platform.SleepContext,
		updates:  make(chan Status, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewSource(m.now().UnixNano()))
	}
	m.status.Method = cfg.Method
	return m
}

func fillUnsupported(c platform.Collaborators) platform.Collaborators {
	u := platform.Unsupported{}
	if c.Input == nil {
		c.Input = u
	}
	if c.Chassis == nil {
		c.Chassis = u
	}
	if c.Power == nil {
		c.Power = u
	}
	if c.Display == nil {
		c.Display = u
	}
	if c.Injector == nil {
		c.Injector = u
	}
	if c.Opener == nil {
		c.Opener = u
	}
	if c.Inhibitor == nil {
		c.Inhibitor = u
	}
	return c
}

// Status returns the latest snapshot.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Updates delivers snapshots as they change. Slow readers only see the
// latest one.
func (m *Monitor) Updates() <-chan Status {
	return m.updates
}

// Health reports the keep-alive action health.
func (m *Monitor) Health() *Health {
	return m.health
}

func (m *Monitor) update(fn func(*Status)) {
	m.mu.Lock()
	fn(&m.status)
	s := m.status
	m.mu.Unlock()

	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- s:
	default:
	}
}

func (m *Monitor) setPhase(p Phase) {
	m.update(func(s *Status) { s.Phase = p })
}

// Run drives the loop until ctx is cancelled or the configured duration
// elapses. Cleanup runs once before Run returns.
func (m *Monitor) Run(ctx context.Context) error {
	return m.RunFor(ctx, m.cfg.Duration)
}

// RunFor is Run with an explicit duration limit; zero means none. Calls
// must not overlap.
func (m *Monitor) RunFor(ctx context.Context, d time.Duration) error {
	start := m.now()
	m.end = time.Time{}
	if d > 0 {
		m.end = start.Add(d)
	}
	m.update(func(s *Status) {
		s.Started = start
		s.EndTime = m.end
		s.Phase = PhaseStarting
	})

	cleanup := NewCleanupManager(0, m.logger)
	cleanup.RegisterFunc("monitor state", m.reset)
	defer func() {
		for _, err := range cleanup.Execute() {
			m.logger.Warn("cleanup error", "error", err)
		}
		m.setPhase(PhaseStopped)
	}()

	if m.cfg.InhibitSleep {
		if err := m.plat.Inhibitor.Activate(ctx); err != nil {
			m.logger.Warn("sleep inhibitor unavailable", "error", err)
		} else {
			m.logger.Info("sleep inhibitor active", "inhibitor", m.plat.Inhibitor.Name())
			cleanup.RegisterFunc("inhibitor "+m.plat.Inhibitor.Name(), m.plat.Inhibitor.Deactivate)
		}
	}

	m.logger.Info("monitor started",
		"method", m.cfg.Method,
		"wait_min", m.cfg.WaitMin,
		"wait_max", m.cfg.WaitMax,
		"duration", d)

	for {
		if ctx.Err() != nil {
			m.logger.Info("monitor stopped")
			return nil
		}
		if m.expired(m.now()) {
			m.logger.Info("run duration elapsed", "duration", d)
			return nil
		}
		m.iterate(ctx)
	}
}

// iterate is one outer pass. A panic anywhere inside is logged and followed
// by the error cooldown.
func (m *Monitor) iterate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("monitor iteration panicked", "panic", r, "stack", string(debug.Stack()))
			m.update(func(s *Status) {
				s.Phase = PhaseCooldown
				s.NextAction = time.Time{}
			})
			_ = m.pause(ctx, m.cfg.ErrorCooldown)
		}
	}()

	now := m.now()
	v := m.sched.Evaluate(ctx, now)
	for _, msg := range v.Messages {
		m.logger.Debug("schedule", "check", msg)
	}
	m.update(func(s *Status) {
		s.Time = now
		s.Schedule = v
	})

	if !v.ShouldRun {
		wait := m.cfg.RetryInterval
		if v.HasNextRun() {
			wait = v.NextRunTime.Sub(now)
		}
		m.logger.Info("outside schedule", "reason", v.Reason, "next_run", v.NextRunTime, "sleep", wait)
		m.park()
		m.update(func(s *Status) {
			s.Phase = PhaseWaiting
			s.NextAction = time.Time{}
		})
		_ = m.pause(ctx, wait)
		return
	}
	if v.InBreak {
		m.logger.Debug("in break window", "until", v.BreakEnd)
	}
	m.cycle(ctx)
}

// cycle counts down a randomized wait, restarting on every engaged verdict,
// then acts if the schedule still allows it.
func (m *Monitor) cycle(ctx context.Context) {
	m.isLaptop = m.laptop(ctx)
	wait := m.drawWait(ctx)

	now := m.now()
	deadline := now.Add(wait)
	m.update(func(s *Status) {
		s.Phase = PhaseCountdown
		s.Wait = wait
		s.NextAction = deadline
		s.IsLaptop = m.isLaptop
	})
	m.logger.Debug("cycle started", "wait", wait, "laptop", m.isLaptop)

	for now.Before(deadline) {
		obs := m.observe(ctx, now)
		engaged := obs.Verdict.Engaged(m.cfg.EngagementMin)
		if engaged {
			deadline = now.Add(wait)
			if ok, reason := m.sched.StillValid(ctx, now); !ok {
				m.logger.Info("schedule window closed during countdown", "reason", reason)
				return
			}
		}
		m.setEngaged(ctx, engaged)
		m.update(func(s *Status) {
			s.Time = now
			s.Activity = obs
			s.Engaged = engaged
			s.LastActivity = m.detector.LastActivity()
			s.Human = m.detector.HumanPattern()
			s.NextAction = deadline
			s.Display = m.display
		})

		step := min(m.cfg.PollInterval, deadline.Sub(now))
		if err := m.pause(ctx, step); err != nil {
			return
		}
		now = m.now()
		if m.expired(now) {
			return
		}
	}

	if ok, reason := m.sched.StillValid(ctx, now); !ok {
		m.logger.Info("schedule no longer valid, action skipped", "reason", reason)
		return
	}
	m.act(ctx, now)
}

func (m *Monitor) observe(ctx context.Context, now time.Time) activity.Observation {
	qctx, cancel := context.WithTimeout(ctx, platform.QueryTimeout)
	sample, err := m.plat.Input.Snapshot(qctx)
	cancel()
	if err != nil {
		if errors.Is(err, platform.ErrUnsupported) {
			m.logger.Log(ctx, logging.LevelTrace, "input sampling unsupported")
		} else {
			m.logger.Warn("input snapshot failed", "error", err)
		}
		return activity.Observation{
			Time:    now,
			Verdict: activity.Verdict{Reasons: []string{"Input unavailable"}},
		}
	}

	obs := m.detector.Observe(now, sample, m.isLaptop)
	v := obs.Verdict
	m.logger.Log(ctx, logging.LevelTrace, "activity",
		"active", v.IsActive,
		"confidence", v.Confidence,
		"type", v.Type,
		"device", v.Device,
		"reasons", v.Reasons)
	if v.IsActive {
		hp := m.detector.HumanPattern()
		m.logger.Debug("user activity",
			"type", v.Type,
			"confidence", v.Confidence,
			"human_like", hp.IsHumanLike,
			"human_score", hp.Score)
	}
	return obs
}

// setEngaged drives the display actuator on engaged/idle edges only.
func (m *Monitor) setEngaged(ctx context.Context, engaged bool) {
	if engaged == m.engaged {
		return
	}
	m.engaged = engaged

	mode := platform.DisplayNormal
	if !engaged {
		mode = m.cfg.IdleDisplay
	}
	if mode == m.display {
		return
	}
	qctx, cancel := context.WithTimeout(ctx, platform.QueryTimeout)
	defer cancel()
	if err := m.plat.Display.SetMode(qctx, mode); err != nil {
		m.logger.Warn("display mode change failed", "mode", mode, "error", err)
		return
	}
	m.logger.Debug("display mode changed", "mode", mode)
	m.display = mode
}

// drawWait picks a whole number of seconds in [WaitMin, WaitMax], with
// WaitMax clamped below the OS sleep timeout when it is known.
func (m *Monitor) drawWait(ctx context.Context) time.Duration {
	lo, hi := m.cfg.WaitMin, m.cfg.WaitMax
	if limit, ok := m.sleepLimit(ctx); ok && hi > limit {
		m.logger.Debug("wait clamped below sleep timeout", "wait_max", hi, "limit", limit)
		hi = limit
	}
	if lo > hi {
		lo = hi
	}
	span := int64((hi - lo) / time.Second)
	return lo + time.Duration(m.rnd.Int63n(span+1))*time.Second
}

// sleepLimit returns the OS sleep timeout minus the margin. An unknown power
// source counts as AC.
func (m *Monitor) sleepLimit(ctx context.Context) (time.Duration, bool) {
	ctx, cancel := context.WithTimeout(ctx, platform.QueryTimeout)
	defer cancel()

	src, err := m.plat.Power.PowerSource(ctx)
	if err != nil {
		src = platform.PowerAC
		if !errors.Is(err, platform.ErrUnsupported) {
			m.logger.Debug("power source unknown, assuming AC", "error", err)
		}
	}
	timeout, ok, err := m.plat.Power.SleepTimeout(ctx, src)
	if err != nil {
		if !errors.Is(err, platform.ErrUnsupported) {
			m.logger.Debug("sleep timeout query failed", "error", err)
		}
		return 0, false
	}
	if !ok {
		return 0, false
	}
	limit := timeout - SleepTimeoutMargin
	if limit < time.Second {
		limit = time.Second
	}
	return limit, true
}

func (m *Monitor) laptop(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, platform.QueryTimeout)
	defer cancel()
	ok, err := m.plat.Chassis.IsLaptop(ctx)
	if err != nil {
		if !errors.Is(err, platform.ErrUnsupported) {
			m.logger.Debug("chassis detection failed, assuming desktop", "error", err)
		}
		return false
	}
	return ok
}

func (m *Monitor) act(ctx context.Context, now time.Time) {
	m.setPhase(PhaseActing)
	ran, err := m.actions.Invoke(ctx, m.cfg.Method)

	result := ActionResult{Method: ran, Time: now}
	switch {
	case err == nil:
		m.health.RecordSuccess()
		m.logger.Info("keep-alive action", "method", ran)
	case errors.Is(err, action.ErrUnknownMethod):
		m.logger.Error("unknown keep-alive method, cycle skipped", "method", m.cfg.Method, "error", err)
	case ctx.Err() != nil:
		return
	default:
		m.health.RecordFailure()
		m.logger.Warn("keep-alive action failed", "method", ran, "error", err)
	}
	if err != nil {
		result.Err = err.Error()
	}
	m.update(func(s *Status) {
		s.LastAction = result
		if err == nil {
			s.Actions++
		}
		s.Health = m.health.State()
	})
}

// pause sleeps for d, never past the end of the run.
func (m *Monitor) pause(ctx context.Context, d time.Duration) error {
	if !m.end.IsZero() {
		if left := m.end.Sub(m.now()); left < d {
			d = left
		}
	}
	if d <= 0 {
		return ctx.Err()
	}
	return m.sleep(ctx, d)
}

func (m *Monitor) expired(now time.Time) bool {
	return !m.end.IsZero() && !now.Before(m.end)
}

// park runs before sleeping outside the schedule: the display goes back to
// normal and the next cycle starts from a fresh pointer baseline.
func (m *Monitor) park() {
	if err := m.reset(); err != nil {
		m.logger.Warn("display restore failed", "error", err)
	}
}

// reset restores the display and clears per-session detector state. It is
// safe before the loop has observed anything.
func (m *Monitor) reset() error {
	var err error
	if m.display != platform.DisplayNormal {
		ctx, cancel := context.WithTimeout(context.Background(), platform.QueryTimeout)
		defer cancel()
		err = m.plat.Display.SetMode(ctx, platform.DisplayNormal)
		m.display = platform.DisplayNormal
	}
	m.engaged = false
	m.detector.Reset()
	m.update(func(s *Status) {
		s.Engaged = false
		s.Display = platform.DisplayNormal
		s.NextAction = time.Time{}
	})
	return err
}
