package keepalive

import (
	"sync/atomic"
	"time"

	"github.com/stigoleg/awake/internal/action"
	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/schedule"
)

// Phase is what the loop is doing right now.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseStarting
	PhaseWaiting
	PhaseCountdown
	PhaseActing
	PhaseCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhaseStarting:
		return "starting"
	case PhaseWaiting:
		return "waiting for schedule"
	case PhaseCountdown:
		return "counting down"
	case PhaseActing:
		return "acting"
	case PhaseCooldown:
		return "cooling down after error"
	default:
		return "unknown"
	}
}

// ActionResult records one keep-alive action.
type ActionResult struct {
	Method action.Method
	Time   time.Time
	Err    string
}

// Status is a point-in-time snapshot of the loop.
type Status struct {
	Phase   Phase
	Method  action.Method
	Started time.Time
	EndTime time.Time
	Time    time.Time

	Schedule schedule.Verdict

	Activity     activity.Observation
	Engaged      bool
	IsLaptop     bool
	LastActivity time.Time
	Human        activity.HumanPattern
	Display      platform.DisplayMode

	Wait       time.Duration
	NextAction time.Time
	LastAction ActionResult
	Actions    int
	Health     HealthState
}

// Remaining returns the time left until the next action, or zero.
func (s Status) Remaining(now time.Time) time.Duration {
	if s.NextAction.IsZero() || !now.Before(s.NextAction) {
		return 0
	}
	return s.NextAction.Sub(now)
}

// TimeLeft returns the time left in a limited run, or zero.
func (s Status) TimeLeft(now time.Time) time.Duration {
	if s.EndTime.IsZero() || !now.Before(s.EndTime) {
		return 0
	}
	return s.EndTime.Sub(now)
}

// HealthState summarizes recent keep-alive actions.
type HealthState int

const (
	HealthUnknown HealthState = iota
	HealthOK
	HealthFailed
)

func (h HealthState) String() string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthFailed:
		return "failing"
	default:
		return "unknown"
	}
}

// Health counts consecutive action failures. It is safe for concurrent use.
type Health struct {
	failures  atomic.Int64
	succeeded atomic.Bool
}

// RecordFailure counts a failed action.
func (h *Health) RecordFailure() {
	h.failures.Add(1)
}

// RecordSuccess resets the failure count.
func (h *Health) RecordSuccess() {
	h.succeeded.Store(true)
	h.failures.Store(0)
}

// Failures returns the number of consecutive failures.
func (h *Health) Failures() int64 {
	return h.failures.Load()
}

// State reports failing after any consecutive failure.
func (h *Health) State() HealthState {
	switch {
	case h.failures.Load() > 0:
		return HealthFailed
	case h.succeeded.Load():
		return HealthOK
	default:
		return HealthUnknown
	}
}
