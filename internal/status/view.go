package status

import (
	"time"

	"github.com/stigoleg/awake/internal/keepalive"
)

// View is the JSON form of a loop snapshot.
type View struct {
	Session  string     `json:"session"`
	Phase    string     `json:"phase"`
	Method   string     `json:"method"`
	Started  *time.Time `json:"started,omitempty"`
	EndTime  *time.Time `json:"end_time,omitempty"`
	TimeLeft float64    `json:"time_left_seconds,omitempty"`

	Schedule ScheduleView `json:"schedule"`
	Activity ActivityView `json:"activity"`
	Display  string       `json:"display"`
	IsLaptop bool         `json:"is_laptop"`

	WaitSeconds      float64     `json:"wait_seconds"`
	NextAction       *time.Time  `json:"next_action,omitempty"`
	RemainingSeconds float64     `json:"remaining_seconds"`
	LastAction       *ActionView `json:"last_action,omitempty"`
	Actions          int         `json:"actions"`
	Health           string      `json:"health"`
}

// ScheduleView is the last schedule verdict.
type ScheduleView struct {
	ShouldRun     bool       `json:"should_run"`
	Reason        string     `json:"reason"`
	Messages      []string   `json:"messages,omitempty"`
	BypassReasons []string   `json:"bypass_reasons,omitempty"`
	NextRunTime   *time.Time `json:"next_run_time,omitempty"`
	InBreak       bool       `json:"in_break"`
	BreakEnd      *time.Time `json:"break_end,omitempty"`
}

// ActivityView is the last classifier verdict and the human-pattern
// analysis.
type ActivityView struct {
	Engaged      bool       `json:"engaged"`
	Active       bool       `json:"active"`
	Confidence   int        `json:"confidence"`
	Type         string     `json:"type"`
	Device       string     `json:"device"`
	Reasons      []string   `json:"reasons,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	HumanLike    bool       `json:"human_like"`
	HumanScore   int        `json:"human_score"`
}

// ActionView is the most recent keep-alive action.
type ActionView struct {
	Method string    `json:"method"`
	Time   time.Time `json:"time"`
	Error  string    `json:"error,omitempty"`
}

// NewView converts a snapshot taken at now.
func NewView(st keepalive.Status, session string, now time.Time) View {
	v := View{
		Session:  session,
		Phase:    st.Phase.String(),
		Method:   st.Method.String(),
		Started:  optionalTime(st.Started),
		EndTime:  optionalTime(st.EndTime),
		TimeLeft: st.TimeLeft(now).Seconds(),
		Schedule: ScheduleView{
			ShouldRun:     st.Schedule.ShouldRun,
			Reason:        st.Schedule.Reason,
			Messages:      st.Schedule.Messages,
			BypassReasons: st.Schedule.BypassReasons,
			NextRunTime:   optionalTime(st.Schedule.NextRunTime),
			InBreak:       st.Schedule.InBreak,
			BreakEnd:      optionalTime(st.Schedule.BreakEnd),
		},
		Activity: ActivityView{
			Engaged:      st.Engaged,
			Active:       st.Activity.Verdict.IsActive,
			Confidence:   st.Activity.Verdict.Confidence,
			Type:         st.Activity.Verdict.Type.String(),
			Device:       st.Activity.Verdict.Device.String(),
			Reasons:      st.Activity.Verdict.Reasons,
			LastActivity: optionalTime(st.LastActivity),
			HumanLike:    st.Human.IsHumanLike,
			HumanScore:   st.Human.Score,
		},
		Display:          st.Display.String(),
		IsLaptop:         st.IsLaptop,
		WaitSeconds:      st.Wait.Seconds(),
		NextAction:       optionalTime(st.NextAction),
		RemainingSeconds: st.Remaining(now).Seconds(),
		Actions:          st.Actions,
		Health:           st.Health.String(),
	}
	if !st.LastAction.Time.IsZero() {
		v.LastAction = &ActionView{
			Method: st.LastAction.Method.String(),
			Time:   st.LastAction.Time,
			Error:  st.LastAction.Err,
		}
	}
	return v
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
