package ui

// state is the screen the TUI is showing.
type state int

const (
	stateMenu state = iota
	stateTimedInput
	stateRunning
)

func (s state) String() string {
	switch s {
	case stateMenu:
		return "Menu"
	case stateTimedInput:
		return "TimedInput"
	case stateRunning:
		return "Running"
	default:
		return "Unknown"
	}
}
