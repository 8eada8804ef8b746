package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/awake/internal/action"
	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/keepalive"
	"github.com/stigoleg/awake/internal/logging"
	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/schedule"
)

// offHours keeps the monitor waiting for the schedule so tests never act.
type offHours struct{}

func (offHours) Evaluate(_ context.Context, now time.Time) schedule.Verdict {
	return schedule.Verdict{Reason: schedule.ReasonOutsideHours, NextRunTime: now.Add(time.Hour)}
}

func (offHours) StillValid(context.Context, time.Time) (bool, string) {
	return false, schedule.ReasonOutsideHours
}

func newKeeper(t *testing.T) *keepalive.Keeper {
	t.Helper()
	m := keepalive.NewMonitor(keepalive.MonitorConfig{}, offHours{},
		platform.AllUnsupported(), action.New(nil, nil), logging.Discard())
	k := keepalive.NewKeeper(m, logging.Discard())
	t.Cleanup(func() { _ = k.Stop() })
	return k
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitialModel(t *testing.T) {
	m := InitialModel(newKeeper(t))
	if m.State != stateMenu {
		t.Error("expected initial state to be stateMenu")
	}
	if m.Selected != 0 {
		t.Error("expected initial selected to be 0")
	}
	if m.input.Value() != "" {
		t.Error("expected initial input to be empty")
	}
	if m.ErrorMessage != "" {
		t.Error("expected initial error message to be empty")
	}
	if m.Init() == nil {
		t.Error("expected Init to start the status listener")
	}
}

func TestMenuView(t *testing.T) {
	m := InitialModel(newKeeper(t))
	view := View(m)

	expectedOptions := []string{
		"Keep system awake indefinitely",
		"Keep system awake for a duration",
		"Quit",
	}
	for _, opt := range expectedOptions {
		if !strings.Contains(view, opt) {
			t.Errorf("expected view to contain option %q", opt)
		}
	}

	foundCursor := false
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, ">") && strings.Contains(line, "Keep system awake indefinitely") {
			foundCursor = true
			break
		}
	}
	if !foundCursor {
		t.Error("expected cursor to be at first option")
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name         string
		msg          tea.Msg
		selected     int
		wantState    state
		wantSelected int
	}{
		{
			name:         "up key at top stays at top",
			msg:          tea.KeyMsg{Type: tea.KeyUp},
			selected:     0,
			wantState:    stateMenu,
			wantSelected: 0,
		},
		{
			name:         "down key moves selection",
			msg:          tea.KeyMsg{Type: tea.KeyDown},
			selected:     0,
			wantState:    stateMenu,
			wantSelected: 1,
		},
		{
			name:         "down key at bottom stays at bottom",
			msg:          keyRunes("j"),
			selected:     2,
			wantState:    stateMenu,
			wantSelected: 2,
		},
		{
			name:         "enter on timed option moves to input state",
			msg:          tea.KeyMsg{Type: tea.KeyEnter},
			selected:     1,
			wantState:    stateTimedInput,
			wantSelected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := InitialModel(newKeeper(t))
			m.Selected = tt.selected
			got, _ := Update(tt.msg, m)
			if got.State != tt.wantState {
				t.Errorf("Update() state = %v, want %v", got.State, tt.wantState)
			}
			if got.Selected != tt.wantSelected {
				t.Errorf("Update() selected = %d, want %d", got.Selected, tt.wantSelected)
			}
		})
	}
}

func TestQuitFromMenu(t *testing.T) {
	m := InitialModel(newKeeper(t))
	m.Selected = 2
	_, cmd := Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestTimedInputFlow(t *testing.T) {
	k := newKeeper(t)
	m := InitialModel(k)
	m.Selected = 1
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)

	m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	if m.ErrorMessage == "" || m.State != stateTimedInput {
		t.Fatal("expected an error for empty input")
	}

	for _, r := range "1h5m" {
		m, _ = Update(keyRunes(string(r)), m)
	}
	if !strings.Contains(View(m), "1h5m") {
		t.Error("expected view to show input value")
	}
	if m.ErrorMessage != "" {
		t.Error("typing should clear the error")
	}

	m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	if m.State != stateRunning {
		t.Fatalf("expected running state, got %v (%s)", m.State, m.ErrorMessage)
	}
	if m.Duration != 65*time.Minute {
		t.Errorf("Duration = %v, want 65m", m.Duration)
	}
	if !k.IsRunning() {
		t.Error("expected keeper to run")
	}
	if r := m.TimeRemaining(); r <= 60*time.Minute || r > 65*time.Minute {
		t.Errorf("TimeRemaining() = %v, want within (60m, 65m]", r)
	}

	m, _ = Update(keyRunes("s"), m)
	if m.State != stateMenu {
		t.Error("expected stop to return to the menu")
	}
	if k.IsRunning() {
		t.Error("expected keeper to stop")
	}
}

func TestTimedInputRejects(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abc", "invalid duration"},
		{"0", "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := InitialModel(newKeeper(t))
			m.Selected = 1
			m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
			m, _ = Update(keyRunes(tt.input), m)
			m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
			if m.State != stateTimedInput {
				t.Errorf("state = %v, want TimedInput", m.State)
			}
			if !strings.Contains(m.ErrorMessage, tt.want) {
				t.Errorf("ErrorMessage = %q, want it to contain %q", m.ErrorMessage, tt.want)
			}
		})
	}
}

func TestTimedInputBack(t *testing.T) {
	m := InitialModel(newKeeper(t))
	m.State = stateTimedInput
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEsc}, m)
	if m.State != stateMenu {
		t.Error("expected esc to return to the menu")
	}
}

func TestStartIndefiniteAndRestart(t *testing.T) {
	k := newKeeper(t)
	m := InitialModel(k)

	m, cmd := Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	if m.State != stateRunning || cmd == nil {
		t.Fatalf("expected running state with commands, got %v", m.State)
	}
	firstRun := m.run

	m, _ = Update(tea.KeyMsg{Type: tea.KeyEsc}, m)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	if m.State != stateRunning {
		t.Fatal("expected restart to run again")
	}

	// A stop notification from the first run must not end the second.
	m, _ = Update(stoppedMsg{run: firstRun}, m)
	if m.State != stateRunning {
		t.Error("stale stop notification ended the current run")
	}

	_ = k.Stop()
	m, _ = Update(stoppedMsg{run: m.run}, m)
	if m.State != stateMenu {
		t.Error("expected the menu after the run ended")
	}
	if m.Notice == "" {
		t.Error("expected a notice after the run ended")
	}
}

func TestStatusMsgUpdatesModel(t *testing.T) {
	m := InitialModel(newKeeper(t))
	st := keepalive.Status{Phase: keepalive.PhaseWaiting, Actions: 4}
	m, cmd := Update(statusMsg(st), m)
	if m.Status.Actions != 4 {
		t.Error("expected the status to be stored")
	}
	if cmd == nil {
		t.Error("expected the listener to be re-armed")
	}
}

func TestRunningView(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	m := InitialModel(newKeeper(t))
	m.now = func() time.Time { return now }
	m.State = stateRunning
	m.Duration = 5 * time.Minute
	m.Status = keepalive.Status{
		Phase:   keepalive.PhaseCountdown,
		Method:  action.MethodMouse,
		EndTime: now.Add(3 * time.Minute),
		Schedule: schedule.Verdict{
			ShouldRun: true,
			Reason:    schedule.ReasonAllMet,
		},
		Activity: activity.Observation{Verdict: activity.Verdict{
			IsActive:   true,
			Confidence: 85,
			Type:       activity.TypeKeyboard,
			Reasons:    []string{"keyboard input"},
		}},
		Engaged:    true,
		Human:      activity.HumanPattern{IsHumanLike: true, Score: 70},
		Wait:       2 * time.Minute,
		NextAction: now.Add(90 * time.Second),
		LastAction: keepalive.ActionResult{Method: action.MethodKey, Time: now.Add(-time.Minute), Err: "boom"},
		Actions:    2,
		Health:     keepalive.HealthFailed,
	}
	view := View(m)

	for _, want := range []string{
		"Awake Active",
		"counting down",
		"mouse",
		schedule.ReasonAllMet,
		"engaged",
		"Keyboard 85%",
		"keyboard input",
		"human-like (score 70)",
		"1:30",
		"3:00",
		"boom",
		"failing, 2 actions",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("expected running view to contain %q", want)
		}
	}
}

func TestRunningViewTruncatesReasons(t *testing.T) {
	m := InitialModel(newKeeper(t))
	m.State = stateRunning
	m.Status = keepalive.Status{
		Phase: keepalive.PhaseCountdown,
		Activity: activity.Observation{Verdict: activity.Verdict{
			Reasons: []string{"Window changed: " + strings.Repeat("会議", 40)},
		}},
	}
	view := View(m)

	if !strings.Contains(view, "…") {
		t.Error("expected long reasons to be truncated")
	}
	if strings.Contains(view, strings.Repeat("会議", 40)) {
		t.Error("expected the full window title to be cut")
	}
}

func TestScheduleLine(t *testing.T) {
	now := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		verdict schedule.Verdict
		want    string
	}{
		{"not evaluated", schedule.Verdict{}, "not evaluated yet"},
		{"tomorrow", schedule.Verdict{Reason: schedule.ReasonOutsideHours, NextRunTime: now.Add(14*time.Hour + 30*time.Minute)}, "resumes Thu Mar 5 08:30"},
		{"later today", schedule.Verdict{Reason: schedule.ReasonOutsideHours, NextRunTime: now.Add(time.Hour)}, "resumes 19:00"},
		{"in break", schedule.Verdict{ShouldRun: true, Reason: schedule.ReasonAllMet, InBreak: true, BreakEnd: now.Add(10 * time.Minute)}, "break until 18:10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scheduleLine(keepalive.Status{Schedule: tt.verdict}, now)
			if !strings.Contains(got, tt.want) {
				t.Errorf("scheduleLine() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestHelpToggle(t *testing.T) {
	m := InitialModel(newKeeper(t))
	m, _ = Update(keyRunes("?"), m)
	if !m.ShowHelp || !strings.Contains(View(m), "Awake Help") {
		t.Fatal("expected help view")
	}
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEsc}, m)
	if m.ShowHelp {
		t.Error("expected esc to close help")
	}
}

func TestErrorDisplay(t *testing.T) {
	m := InitialModel(newKeeper(t))
	m.ErrorMessage = "test error"
	if !strings.Contains(View(m), "test error") {
		t.Error("expected view to show error message")
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil) != "" {
		t.Error("expected empty output for nil")
	}
	err := fmt.Errorf("load config: %w", errors.New("unknown config keys: foo"))
	got := FormatError(err)
	for _, want := range []string{"Error: load config", "unknown config keys", "foo"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatError() = %q, want it to contain %q", got, want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{90 * time.Second, "1:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.in); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if stateRunning.String() != "Running" || state(99).String() != "Unknown" {
		t.Error("unexpected state names")
	}
}
