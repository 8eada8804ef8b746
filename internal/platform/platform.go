// Package platform provides the operating-system collaborators of the
// keep-alive loop: raw input sampling, chassis and power queries, display
// control, input injection and sleep inhibition.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stigoleg/awake/internal/activity"
)

// ErrUnsupported is returned by collaborators that cannot work on the
// current system.
var ErrUnsupported = errors.New("not supported on this platform")

// Timeouts for collaborator calls that may block.
const (
	QueryTimeout  = 3 * time.Second
	ScriptTimeout = 3 * time.Second
)

// DimPercent is the backlight level used for DisplayDim.
const DimPercent = 30

// PowerSource is the current power supply.
type PowerSource int

const (
	PowerAC PowerSource = iota
	PowerBattery
)

func (p PowerSource) String() string {
	switch p {
	case PowerAC:
		return "AC"
	case PowerBattery:
		return "Battery"
	default:
		return "Unknown"
	}
}

// DisplayMode is a brightness/monitor-power state.
type DisplayMode int

const (
	DisplayNormal DisplayMode = iota
	DisplayDim
	DisplaySleep
	DisplayOff
)

func (m DisplayMode) String() string {
	switch m {
	case DisplayNormal:
		return "Normal"
	case DisplayDim:
		return "Dim"
	case DisplaySleep:
		return "Sleep"
	case DisplayOff:
		return "Off"
	default:
		return "Unknown"
	}
}

// ParseDisplayMode parses a mode name, case-insensitively.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "":
		return DisplayNormal, nil
	case "dim":
		return DisplayDim, nil
	case "sleep":
		return DisplaySleep, nil
	case "off":
		return DisplayOff, nil
	default:
		return DisplayNormal, fmt.Errorf("unknown display mode %q (want normal, dim, sleep or off)", s)
	}
}

// InputSource polls the current state of the input devices.
type InputSource interface {
	Snapshot(ctx context.Context) (activity.Sample, error)
}

// ChassisDetector reports whether the machine is a laptop.
type ChassisDetector interface {
	IsLaptop(ctx context.Context) (bool, error)
}

// PowerQuery reads the power supply and the OS sleep timeout.
type PowerQuery interface {
	PowerSource(ctx context.Context) (PowerSource, error)

	// SleepTimeout returns the idle time after which the OS sleeps on the
	// given source. The boolean is false when no timeout is configured or it
	// cannot be determined.
	SleepTimeout(ctx context.Context, source PowerSource) (time.Duration, bool, error)
}

// DisplayActuator changes the display state.
type DisplayActuator interface {
	SetMode(ctx context.Context, mode DisplayMode) error
}

// Injector synthesises input events.
type Injector interface {
	PressKey(ctx context.Context, key string) error
	MoveMouseRelative(ctx context.Context, dx, dy int) error
}

// Opener opens a URL or document with the desktop's default handler.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// Inhibitor holds an OS-level sleep/idle inhibition while active.
type Inhibitor interface {
	Name() string
	Activate(ctx context.Context) error
	Deactivate() error
}

// Collaborators bundles the implementations for the running OS.
type Collaborators struct {
	Input     InputSource
	Chassis   ChassisDetector
	Power     PowerQuery
	Display   DisplayActuator
	Injector  Injector
	Opener    Opener
	Inhibitor Inhibitor
}

// New returns the collaborators for the running OS. Pieces the OS cannot
// provide return ErrUnsupported.
func New(logger *slog.Logger) Collaborators {
	if logger == nil {
		logger = slog.Default()
	}
	c := newCollaborators(logger.With("component", "platform"))
	c.Chassis = NewCachedChassis(c.Chassis, DefaultChassisTTL)
	return c
}

// Unsupported implements every collaborator by returning ErrUnsupported.
type Unsupported struct{}

func (Unsupported) Snapshot(context.Context) (activity.Sample, error) {
	return activity.Sample{}, ErrUnsupported
}

func (Unsupported) IsLaptop(context.Context) (bool, error) { return false, ErrUnsupported }

func (Unsupported) PowerSource(context.Context) (PowerSource, error) { return PowerAC, ErrUnsupported }

func (Unsupported) SleepTimeout(context.Context, PowerSource) (time.Duration, bool, error) {
	return 0, false, ErrUnsupported
}

func (Unsupported) SetMode(context.Context, DisplayMode) error { return ErrUnsupported }

func (Unsupported) PressKey(context.Context, string) error { return ErrUnsupported }

func (Unsupported) MoveMouseRelative(context.Context, int, int) error { return ErrUnsupported }

func (Unsupported) Open(context.Context, string) error { return ErrUnsupported }

func (Unsupported) Name() string { return "unsupported" }

func (Unsupported) Activate(context.Context) error { return ErrUnsupported }

func (Unsupported) Deactivate() error { return nil }

// AllUnsupported returns a bundle where every collaborator is Unsupported.
func AllUnsupported() Collaborators {
	u := Unsupported{}
	return Collaborators{
		Input:     u,
		Chassis:   u,
		Power:     u,
		Display:   u,
		Injector:  u,
		Opener:    u,
		Inhibitor: u,
	}
}
