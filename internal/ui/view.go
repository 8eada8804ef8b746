package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/stigoleg/awake/internal/keepalive"
	"github.com/stigoleg/awake/internal/platform"
)

// View renders the current state of the model to a string.
func View(m Model) string {
	if m.ShowHelp {
		return helpView()
	}

	switch m.State {
	case stateMenu:
		return menuView(m)
	case stateTimedInput:
		return timedInputView(m)
	case stateRunning:
		return runningView(m)
	}

	return ""
}

func menuView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Awake"))
	b.WriteString("\n\n")

	b.WriteString(Current.Unselected.Render("Select an option:"))
	b.WriteString("\n\n")

	items := [menuItems]string{
		"Keep system awake indefinitely",
		"Keep system awake for a duration",
		"Quit",
	}

	for i, opt := range items {
		if i == m.Selected {
			b.WriteString(Current.Selected.Render("> " + opt))
		} else {
			b.WriteString(Current.Unselected.Render("  " + opt))
		}
		b.WriteString("\n")
	}

	if m.Notice != "" {
		b.WriteString("\n" + Current.Unselected.Render(Current.Active.Render(m.Notice)))
	}
	if m.ErrorMessage != "" {
		b.WriteString("\n" + Current.Error.Render(m.ErrorMessage))
	}

	b.WriteString("\n\n" + m.help.View(m.keys.ForState(stateMenu)))
	return b.String()
}

func timedInputView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Enter Duration"))
	b.WriteString("\n\n")

	b.WriteString(Current.Unselected.Render("Minutes (30) or a duration (1h30m):"))
	b.WriteString("\n")
	b.WriteString(Current.InputBox.Render(m.input.View()))
	b.WriteString("\n")

	if m.ErrorMessage != "" {
		b.WriteString("\n" + Current.Error.Render(m.ErrorMessage) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys.ForState(stateTimedInput)))
	return b.String()
}

func runningView(m Model) string {
	st := m.Status
	now := m.now()

	var b strings.Builder
	b.WriteString(Current.Title.Render("Awake Active"))
	b.WriteString("\n\n")

	b.WriteString(" " + m.spinner.View() + " " + phaseLine(st))
	b.WriteString("\n\n")

	var rows []string
	row := func(label, value string) {
		rows = append(rows, Current.Label.Render(label)+Current.Value.Render(value))
	}

	row("Method", st.Method.String())
	row("Schedule", scheduleLine(st, now))
	row("Activity", activityLine(st))
	if len(st.Activity.Verdict.Reasons) > 0 {
		reasons := strings.Join(firstN(st.Activity.Verdict.Reasons, 2), "; ")
		row("", Current.Inactive.Render(runewidth.Truncate(reasons, reasonsWidth, "…")))
	}
	row("Pattern", humanLine(st))
	if st.Display != platform.DisplayNormal {
		row("Display", st.Display.String())
	}
	if st.IsLaptop {
		row("Device", "laptop")
	}
	row("Last action", lastActionLine(st))
	row("Health", healthLine(st))

	if remaining := st.Remaining(now); remaining > 0 && st.Wait > 0 {
		done := 1 - float64(remaining)/float64(st.Wait)
		row("Next action", Current.Countdown.Render(formatClock(remaining))+"  "+m.progress.ViewAs(clamp01(done)))
	}

	if m.Duration > 0 {
		remaining := m.TimeRemaining()
		done := 1 - float64(remaining)/float64(m.Duration)
		row("Time left", Current.Countdown.Render(formatClock(remaining))+"  "+m.progress.ViewAs(clamp01(done)))
	}

	b.WriteString(Current.Panel.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if m.ErrorMessage != "" {
		b.WriteString("\n" + Current.Error.Render(m.ErrorMessage) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys.ForState(stateRunning)))
	return b.String()
}

func phaseLine(st keepalive.Status) string {
	switch st.Phase {
	case keepalive.PhaseCooldown:
		return Current.Warning.Render(st.Phase.String())
	case keepalive.PhaseWaiting:
		return Current.Inactive.Render(st.Phase.String())
	default:
		return Current.Active.Render(st.Phase.String())
	}
}

func scheduleLine(st keepalive.Status, now time.Time) string {
	v := st.Schedule
	switch {
	case v.Reason == "":
		return Current.Inactive.Render("not evaluated yet")
	case v.InBreak && !v.BreakEnd.IsZero():
		return fmt.Sprintf("%s, break until %s", v.Reason, v.BreakEnd.Format("15:04"))
	case !v.ShouldRun && !v.NextRunTime.IsZero():
		return fmt.Sprintf("%s, resumes %s", v.Reason, formatNextRun(v.NextRunTime, now))
	case !v.ShouldRun:
		return Current.Inactive.Render(v.Reason)
	default:
		return v.Reason
	}
}

func activityLine(st keepalive.Status) string {
	v := st.Activity.Verdict
	if !v.IsActive {
		if st.LastActivity.IsZero() {
			return Current.Inactive.Render("idle")
		}
		return Current.Inactive.Render("idle since " + st.LastActivity.Format("15:04:05"))
	}
	line := fmt.Sprintf("%s %d%%", v.Type, v.Confidence)
	if st.Engaged {
		return Current.Active.Render("engaged") + " (" + line + ")"
	}
	return line
}

func humanLine(st keepalive.Status) string {
	h := st.Human
	if h.Score == 0 && !h.IsHumanLike {
		return Current.Inactive.Render("not enough data")
	}
	if h.IsHumanLike {
		return fmt.Sprintf("human-like (score %d)", h.Score)
	}
	return Current.Warning.Render(fmt.Sprintf("mechanical (score %d)", h.Score))
}

func lastActionLine(st keepalive.Status) string {
	a := st.LastAction
	if a.Time.IsZero() {
		return Current.Inactive.Render("none yet")
	}
	line := fmt.Sprintf("%s at %s", a.Method, a.Time.Format("15:04:05"))
	if a.Err != "" {
		return Current.Error.Render(line + ": " + a.Err)
	}
	return line
}

func healthLine(st keepalive.Status) string {
	line := fmt.Sprintf("%s, %d actions", st.Health, st.Actions)
	if st.Health == keepalive.HealthFailed {
		return Current.Error.Render(line)
	}
	return line
}

func formatNextRun(t, now time.Time) string {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	return t.Format("Mon Jan 2 15:04")
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func clamp01(f float64) float64 {
	return min(max(f, 0), 1)
}

// reasonsWidth is the widest reasons line, in terminal cells. Window titles
// may contain wide runes.
const reasonsWidth = 56

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func helpView() string {
	help := `Awake Help

Usage:
  awake [flags]
  awake run --headless
  awake check | holidays | config | version

Common flags:
  -d, --duration string   Stop after this long ("2h30m" or minutes)
  -m, --method string     key, mouse, app, browser, command or random
  -f, --force             Ignore working days, hours and holidays
  -c, --config string     Config file (.toml, .yaml or .yml)
  -v, --verbosity int     Log verbosity 0-4

Examples:
  awake                      # Interactive dashboard
  awake -d 2h30m             # Keep awake for 2 hours and 30 minutes
  awake run --headless -f    # No dashboard, ignore the schedule
  awake check                # Show the schedule verdict and exit

Navigation:
  ↑/k, ↓/j  : Navigate menu
  Enter      : Select option
  s/Esc      : Stop
  h/?        : Toggle this help
  q          : Quit

Press 'h' or 'Esc' to close help`

	return Current.Help.Render(help)
}
