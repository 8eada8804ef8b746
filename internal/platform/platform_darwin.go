//go:build darwin

package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/util"
)

func newCollaborators(logger *slog.Logger) Collaborators {
	return Collaborators{
		Input:     darwinInput{},
		Chassis:   darwinChassis{},
		Power:     darwinPower{},
		Display:   &darwinDisplay{},
		Injector:  darwinInjector{},
		Opener:    darwinOpener{},
		Inhibitor: NewInhibitorChain(logger, &caffeinateInhibitor{logger: logger}),
	}
}

// DependencyMessage describes missing desktop tools, or is empty.
func DependencyMessage() string {
	if !util.HasCommand("osascript") {
		return "osascript not found: activity detection and input injection are disabled"
	}
	return ""
}

// runJXA runs a JavaScript for Automation script. Scripts that post events
// need the Accessibility permission for the terminal or app running awake.
func runJXA(ctx context.Context, script string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ScriptTimeout)
	defer cancel()
	out, err := util.Output(ctx, "osascript", "-l", "JavaScript", "-e", script)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out, fmt.Errorf("osascript timed out after %s", ScriptTimeout)
	}
	return out, err
}

const snapshotScript = `
ObjC.import('AppKit');
var p = $.NSEvent.mouseLocation;
var buttons = $.NSEvent.pressedMouseButtons;
var title = "";
try {
	var proc = Application("System Events").processes.whose({frontmost: true})[0];
	title = proc.name();
	if (proc.windows.length > 0) { title = proc.windows[0].name() + " - " + title; }
} catch (e) {}
JSON.stringify({x: Math.round(p.x), y: Math.round(p.y), buttons: buttons, title: title});
`

type darwinSnapshot struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Buttons int    `json:"buttons"`
	Title   string `json:"title"`
}

// darwinInput samples pointer, buttons and the frontmost window. Key state
// would need an event tap and stays empty.
type darwinInput struct{}

func (darwinInput) Snapshot(ctx context.Context) (activity.Sample, error) {
	out, err := runJXA(ctx, snapshotScript)
	if err != nil {
		return activity.Sample{}, err
	}
	var snap darwinSnapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		return activity.Sample{}, fmt.Errorf("decode snapshot %q: %w", out, err)
	}

	s := activity.Sample{
		Pointer:     activity.Point{X: snap.X, Y: snap.Y},
		WindowTitle: snap.Title,
	}
	for bit, b := range map[int]activity.MouseButton{
		1: activity.ButtonLeft,
		2: activity.ButtonRight,
		4: activity.ButtonMiddle,
	} {
		if snap.Buttons&bit != 0 {
			s.Buttons = append(s.Buttons, b)
		}
	}
	return s, nil
}

type darwinChassis struct{}

func (darwinChassis) IsLaptop(ctx context.Context) (bool, error) {
	model, err := util.Output(ctx, "sysctl", "-n", "hw.model")
	if err != nil {
		return false, err
	}
	return IsMacLaptopModel(model), nil
}

type darwinPower struct{}

func (darwinPower) PowerSource(ctx context.Context) (PowerSource, error) {
	out, err := util.Output(ctx, "pmset", "-g", "batt")
	if err != nil {
		return PowerAC, err
	}
	return ParsePmsetSource(out)
}

func (darwinPower) SleepTimeout(ctx context.Context, source PowerSource) (time.Duration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	out, err := util.Output(ctx, "pmset", "-g", "custom")
	if err != nil {
		return 0, false, err
	}
	return ParsePmsetSleep(out, source)
}

// darwinDisplay sleeps the display with pmset and wakes it with a
// one-second user-activity assertion. Dimming has no built-in tool.
type darwinDisplay struct {
	asleep bool
}

func (d *darwinDisplay) SetMode(ctx context.Context, mode DisplayMode) error {
	switch mode {
	case DisplayNormal:
		if !d.asleep {
			return nil
		}
		if err := util.Run(ctx, "caffeinate", "-u", "-t", "1"); err != nil {
			return err
		}
		d.asleep = false
		return nil
	case DisplayDim:
		return ErrUnsupported
	case DisplaySleep, DisplayOff:
		if err := util.Run(ctx, "pmset", "displaysleepnow"); err != nil {
			return err
		}
		d.asleep = true
		return nil
	default:
		return fmt.Errorf("unknown display mode %d", mode)
	}
}

type darwinInjector struct{}

func (darwinInjector) PressKey(ctx context.Context, key string) error {
	code, ok := MacKeyCode(key)
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	script := fmt.Sprintf(`
ObjC.import('CoreGraphics');
$.CGEventPost($.kCGHIDEventTap, $.CGEventCreateKeyboardEvent(null, %d, true));
delay(0.01);
$.CGEventPost($.kCGHIDEventTap, $.CGEventCreateKeyboardEvent(null, %d, false));
"ok";
`, code, code)
	_, err := runJXA(ctx, script)
	return err
}

func (darwinInjector) MoveMouseRelative(ctx context.Context, dx, dy int) error {
	script := fmt.Sprintf(`
ObjC.import('CoreGraphics');
var p = $.CGEventGetLocation($.CGEventCreate(null));
var ev = $.CGEventCreateMouseEvent(null, $.kCGEventMouseMoved, {x: p.x + %d, y: p.y + %d}, $.kCGMouseButtonLeft);
$.CGEventPost($.kCGHIDEventTap, ev);
"ok";
`, dx, dy)
	_, err := runJXA(ctx, script)
	return err
}

type darwinOpener struct{}

func (darwinOpener) Open(ctx context.Context, target string) error {
	return util.Run(ctx, "open", target)
}

// caffeinateInhibitor holds a caffeinate process preventing idle, display
// and system sleep.
type caffeinateInhibitor struct {
	logger *slog.Logger
	cmd    *exec.Cmd
}

func (c *caffeinateInhibitor) Name() string { return "caffeinate" }

func (c *caffeinateInhibitor) Activate(context.Context) error {
	if c.cmd != nil {
		return nil
	}
	if !util.HasCommand("caffeinate") {
		return errors.New("caffeinate command not found")
	}
	cmd := exec.Command("caffeinate", "-s", "-d", "-i")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start caffeinate: %w", err)
	}
	c.cmd = cmd
	c.logger.Debug("caffeinate started", "pid", cmd.Process.Pid)
	return nil
}

func (c *caffeinateInhibitor) Deactivate() error {
	if c.cmd == nil {
		return nil
	}
	pid := c.cmd.Process.Pid
	_ = c.cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = c.cmd.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		c.logger.Warn("caffeinate did not terminate, sending SIGKILL", "pid", pid)
		err = syscall.Kill(-pid, syscall.SIGKILL)
		<-done
	}
	c.cmd = nil
	return err
}
