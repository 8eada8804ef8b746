//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/platform/linux"
)

func newCollaborators(logger *slog.Logger) Collaborators {
	caps := linux.DetectCapabilities()
	logger.Debug("linux capabilities",
		"display_server", caps.DisplayServer,
		"desktop", caps.DesktopEnvironment,
		"xdotool", caps.XdotoolAvailable,
		"xset", caps.XsetAvailable,
		"brightnessctl", caps.BrightnessctlAvailable,
		"gsettings", caps.GsettingsAvailable,
	)

	c := Collaborators{
		Input:    Unsupported{},
		Chassis:  &linuxChassis{sysfs: linux.DefaultSysfs, logger: logger},
		Power:    &linuxPower{sysfs: linux.DefaultSysfs},
		Display:  &linuxDisplay{logger: logger},
		Injector: Unsupported{},
		Opener:   linuxOpener{},
	}
	if caps.CanSampleInput() {
		c.Input = &linuxInput{}
	}
	if caps.XdotoolAvailable {
		c.Injector = linuxInjector{}
	}

	var candidates []Inhibitor
	for _, inh := range linux.BuildInhibitors(logger) {
		candidates = append(candidates, inh)
	}
	c.Inhibitor = NewInhibitorChain(logger, candidates...)
	return c
}

// DependencyMessage describes missing desktop tools, or is empty.
func DependencyMessage() string {
	return linux.GetDependencyMessage()
}

// linuxInput samples the pointer and focused window through xdotool. X11
// offers no polling query for key or button state to an unprivileged
// client, so those stay empty.
type linuxInput struct {
	x linux.Xdotool
}

func (in *linuxInput) Snapshot(ctx context.Context) (activity.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	x, y, err := in.x.Location(ctx)
	if err != nil {
		return activity.Sample{}, fmt.Errorf("pointer location: %w", err)
	}
	s := activity.Sample{Pointer: activity.Point{X: x, Y: y}}

	title, err := in.x.ActiveWindowName(ctx)
	switch {
	case err == nil:
		s.WindowTitle = title
	case errors.Is(err, linux.ErrNoActiveWindow):
	default:
		return s, err
	}
	return s, nil
}

// linuxChassis prefers systemd-hostnamed and falls back to the DMI chassis
// type, then to the presence of a system battery.
type linuxChassis struct {
	sysfs  linux.Sysfs
	logger *slog.Logger
}

func (c *linuxChassis) IsLaptop(ctx context.Context) (bool, error) {
	kind, err := linux.HostnameChassis(ctx)
	if err == nil && kind != "" {
		return linux.IsLaptopChassis(kind), nil
	}
	if err != nil {
		c.logger.Debug("hostname1 chassis unavailable", "error", err)
	}

	if n, err := c.sysfs.ChassisType(); err == nil {
		return linux.IsPortableChassisType(n), nil
	}
	return c.sysfs.HasSystemBattery()
}

type linuxPower struct {
	sysfs linux.Sysfs
}

func (p *linuxPower) PowerSource(context.Context) (PowerSource, error) {
	onBattery, err := p.sysfs.OnBattery()
	if err != nil {
		return PowerAC, err
	}
	if onBattery {
		return PowerBattery, nil
	}
	return PowerAC, nil
}

func (p *linuxPower) SleepTimeout(ctx context.Context, source PowerSource) (time.Duration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	return linux.GnomeSleepTimeout(ctx, source == PowerBattery)
}

// linuxDisplay dims with brightnessctl and blanks with xset DPMS.
type linuxDisplay struct {
	backlight linux.Backlight
	logger    *slog.Logger
	blanked   bool
}

func (d *linuxDisplay) SetMode(ctx context.Context, mode DisplayMode) error {
	d.logger.Debug("setting display mode", "mode", mode)
	switch mode {
	case DisplayNormal:
		var errs []error
		if d.blanked {
			if err := linux.DPMS(ctx, "on"); err != nil {
				errs = append(errs, err)
			} else {
				d.blanked = false
			}
		}
		if err := d.backlight.Restore(ctx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	case DisplayDim:
		return d.backlight.Dim(ctx, DimPercent)
	case DisplaySleep, DisplayOff:
		state := "standby"
		if mode == DisplayOff {
			state = "off"
		}
		if err := linux.DPMS(ctx, state); err != nil {
			return err
		}
		d.blanked = true
		return nil
	default:
		return fmt.Errorf("unknown display mode %d", mode)
	}
}

type linuxInjector struct {
	x linux.Xdotool
}

func (i linuxInjector) PressKey(ctx context.Context, key string) error {
	return i.x.Key(ctx, key)
}

func (i linuxInjector) MoveMouseRelative(ctx context.Context, dx, dy int) error {
	return i.x.MoveRelative(ctx, dx, dy)
}

type linuxOpener struct{}

func (linuxOpener) Open(ctx context.Context, target string) error {
	return linux.Open(ctx, target)
}
