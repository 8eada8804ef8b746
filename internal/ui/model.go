package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/awake/internal/keepalive"
)

const menuItems = 3

// Model holds the TUI state. The keeper does the work; the model only
// starts and stops it and renders its status.
type Model struct {
	State        state
	Selected     int
	Keeper       *keepalive.Keeper
	Status       keepalive.Status
	ErrorMessage string
	Notice       string
	Duration     time.Duration
	ShowHelp     bool

	// run identifies the current keeper run so a late stop notification
	// from an earlier run is ignored.
	run int

	input    textinput.Model
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model
	now      func() time.Time
}

// InitialModel returns the menu model for k.
func InitialModel(k *keepalive.Keeper) Model {
	in := textinput.New()
	in.Placeholder = "30 or 1h30m"
	in.CharLimit = 10
	in.Width = 12

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = Current.Active

	return Model{
		State:    stateMenu,
		Keeper:   k,
		input:    in,
		keys:     DefaultKeys(),
		help:     NewHelpModel(),
		spinner:  sp,
		progress: progress.New(progress.WithGradient(gradientStart, gradientEnd), progress.WithWidth(progressWidth), progress.WithoutPercentage()),
		now:      time.Now,
	}
}

// InitialModelWithDuration returns a model that is already running for d,
// or indefinitely when d is zero.
func InitialModelWithDuration(k *keepalive.Keeper, d time.Duration) Model {
	m := InitialModel(k)
	if err := m.startKeeper(d); err != nil {
		m.ErrorMessage = err.Error()
	}
	return m
}

// Init implements tea.Model. The status listener lives for the whole
// program; the monitor's update channel is never closed.
func (m Model) Init() tea.Cmd {
	listen := waitForStatus(m.Keeper.Monitor().Updates())
	if m.State != stateRunning {
		return listen
	}
	return tea.Batch(listen, m.runningCmds())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return Update(msg, m)
}

// View implements tea.Model.
func (m Model) View() string {
	return View(m)
}

// TimeRemaining returns the time left in a timed run. The keeper answers
// until the monitor has published its first snapshot.
func (m Model) TimeRemaining() time.Duration {
	if m.State != stateRunning || m.Duration <= 0 {
		return 0
	}
	if !m.Status.EndTime.IsZero() {
		return m.Status.TimeLeft(m.now())
	}
	return m.Keeper.TimeRemaining()
}

// startKeeper starts the keeper and switches to the running screen.
func (m *Model) startKeeper(d time.Duration) error {
	var err error
	if d > 0 {
		err = m.Keeper.StartTimed(d)
	} else {
		err = m.Keeper.StartIndefinite()
	}
	if err != nil {
		return err
	}
	m.run++
	m.State = stateRunning
	m.Duration = d
	m.Status = keepalive.Status{Phase: keepalive.PhaseStarting}
	m.ErrorMessage = ""
	m.Notice = ""
	return nil
}

// runningCmds starts the per-run background commands.
func (m Model) runningCmds() tea.Cmd {
	return tea.Batch(tick(m.run), m.spinner.Tick, waitForStop(m.run, m.Keeper.Done()))
}
