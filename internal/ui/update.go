package ui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/awake/internal/keepalive"
	"github.com/stigoleg/awake/internal/util"
)

// tickMsg refreshes countdowns once a second during run.
type tickMsg struct {
	run int
}

// statusMsg carries a snapshot published by the monitor.
type statusMsg keepalive.Status

// stoppedMsg reports that a keeper run ended.
type stoppedMsg struct {
	run int
}

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case statusMsg:
		m.Status = keepalive.Status(msg)
		return m, waitForStatus(m.Keeper.Monitor().Updates())

	case stoppedMsg:
		if msg.run != m.run || m.State != stateRunning {
			return m, nil
		}
		m.State = stateMenu
		m.Duration = 0
		if err := m.Keeper.Err(); err != nil {
			m.ErrorMessage = err.Error()
		} else {
			m.Notice = "Timed session finished"
		}
		return m, nil

	case tea.KeyMsg:
		if m.ShowHelp {
			if key.Matches(msg, m.keys.ToggleHelp, m.keys.Back, m.keys.Quit) {
				m.ShowHelp = false
			}
			return m, nil
		}
	}

	switch m.State {
	case stateMenu:
		return updateMenu(msg, m)
	case stateTimedInput:
		return updateTimedInput(msg, m)
	case stateRunning:
		return updateRunning(msg, m)
	}
	return m, nil
}

func updateMenu(msg tea.Msg, m Model) (Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(k, m.keys.Up):
		if m.Selected > 0 {
			m.Selected--
		}
	case key.Matches(k, m.keys.Down):
		if m.Selected < menuItems-1 {
			m.Selected++
		}
	case key.Matches(k, m.keys.ToggleHelp):
		m.ShowHelp = true
	case key.Matches(k, m.keys.Quit, m.keys.Back):
		return m, tea.Quit
	case key.Matches(k, m.keys.Select):
		m.Notice = ""
		switch m.Selected {
		case 0:
			if err := m.startKeeper(0); err != nil {
				m.ErrorMessage = err.Error()
				return m, nil
			}
			return m, m.runningCmds()
		case 1:
			m.State = stateTimedInput
			m.ErrorMessage = ""
			m.input.Reset()
			return m, m.input.Focus()
		case 2:
			return m, tea.Quit
		}
	}
	return m, nil
}

func updateTimedInput(msg tea.Msg, m Model) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case k.String() == "ctrl+c":
			return m, tea.Quit
		case key.Matches(k, m.keys.Back):
			m.input.Blur()
			m.State = stateMenu
			m.ErrorMessage = ""
			return m, nil
		case key.Matches(k, m.keys.Submit):
			d, err := parseInputDuration(m.input.Value())
			if err != nil {
				m.ErrorMessage = err.Error()
				return m, nil
			}
			if err := m.startKeeper(d); err != nil {
				m.ErrorMessage = err.Error()
				return m, nil
			}
			m.input.Blur()
			return m, m.runningCmds()
		}
		m.ErrorMessage = ""
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func updateRunning(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleHelp):
			m.ShowHelp = true
		case key.Matches(msg, m.keys.Stop):
			if err := m.Keeper.Stop(); err != nil {
				m.ErrorMessage = err.Error()
			}
			m.State = stateMenu
			m.Duration = 0
			m.Status = m.Keeper.Monitor().Status()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if msg.run != m.run {
			return m, nil
		}
		return m, tick(m.run)
	}
	return m, nil
}

func parseInputDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("enter a duration")
	}
	d, err := util.ParseDuration(s)
	if err != nil {
		return 0, errors.New("invalid duration: use minutes (30) or a duration (1h30m)")
	}
	if d <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return d, nil
}

func tick(run int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{run: run}
	})
}

func waitForStatus(updates <-chan keepalive.Status) tea.Cmd {
	return func() tea.Msg {
		return statusMsg(<-updates)
	}
}

func waitForStop(run int, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return stoppedMsg{run: run}
	}
}
