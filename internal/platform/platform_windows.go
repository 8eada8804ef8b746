//go:build windows

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/util"
)

const (
	esSystemRequired  = 0x00000001
	esDisplayRequired = 0x00000002
	esContinuous      = 0x80000000

	keyeventfKeyUp = 0x0002
	keyDownMask    = 0x8000

	wmSysCommand    = 0x0112
	scMonitorPower  = 0xF170
	hwndBroadcast   = 0xFFFF
	monitorOn       = ^uintptr(0) // -1
	monitorLowPower = 1
	monitorOff      = 2

	noSystemBattery = 128
	batteryUnknown  = 255
	acOffline       = 0
)

var (
	kernel32                    = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
	procGetSystemPowerStatus    = kernel32.NewProc("GetSystemPowerStatus")

	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos         = user32.NewProc("GetCursorPos")
	procSetCursorPos         = user32.NewProc("SetCursorPos")
	procGetAsyncKeyState     = user32.NewProc("GetAsyncKeyState")
	procGetForegroundWindow  = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procKeybdEvent           = user32.NewProc("keybd_event")
	procPostMessageW         = user32.NewProc("PostMessageW")
)

type point struct {
	X, Y int32
}

type systemPowerStatus struct {
	ACLineStatus        byte
	BatteryFlag         byte
	BatteryLifePercent  byte
	SystemStatusFlag    byte
	BatteryLifeTime     uint32
	BatteryFullLifeTime uint32
}

func newCollaborators(logger *slog.Logger) Collaborators {
	power := windowsPower{}
	return Collaborators{
		Input:     windowsInput{},
		Chassis:   power,
		Power:     power,
		Display:   &windowsDisplay{logger: logger},
		Injector:  windowsInjector{},
		Opener:    windowsOpener{},
		Inhibitor: NewInhibitorChain(logger, &executionStateInhibitor{}),
	}
}

// DependencyMessage describes missing desktop tools, or is empty.
func DependencyMessage() string { return "" }

func cursorPos() (point, error) {
	var p point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return p, fmt.Errorf("GetCursorPos: %w", err)
	}
	return p, nil
}

func keyDown(vk uint16) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return r&keyDownMask != 0
}

func foregroundTitle() string {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return ""
	}
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

type windowsInput struct{}

func (windowsInput) Snapshot(context.Context) (activity.Sample, error) {
	p, err := cursorPos()
	if err != nil {
		return activity.Sample{}, err
	}
	s := activity.Sample{
		Pointer:     activity.Point{X: int(p.X), Y: int(p.Y)},
		KeysDown:    make(map[activity.KeyCode]bool),
		WindowTitle: foregroundTitle(),
	}
	for _, k := range activity.WatchedKeys {
		if keyDown(uint16(k)) {
			s.KeysDown[k] = true
		}
	}
	for vk, b := range map[uint16]activity.MouseButton{
		0x01: activity.ButtonLeft,
		0x02: activity.ButtonRight,
		0x04: activity.ButtonMiddle,
	} {
		if keyDown(vk) {
			s.Buttons = append(s.Buttons, b)
		}
	}
	return s, nil
}

func powerStatus() (systemPowerStatus, error) {
	var st systemPowerStatus
	r, _, err := procGetSystemPowerStatus.Call(uintptr(unsafe.Pointer(&st)))
	if r == 0 {
		return st, fmt.Errorf("GetSystemPowerStatus: %w", err)
	}
	return st, nil
}

// windowsPower answers both the chassis and the power questions from
// GetSystemPowerStatus; a machine with a system battery is a laptop.
type windowsPower struct{}

func (windowsPower) IsLaptop(context.Context) (bool, error) {
	st, err := powerStatus()
	if err != nil {
		return false, err
	}
	return st.BatteryFlag != noSystemBattery && st.BatteryFlag != batteryUnknown, nil
}

func (windowsPower) PowerSource(context.Context) (PowerSource, error) {
	st, err := powerStatus()
	if err != nil {
		return PowerAC, err
	}
	if st.ACLineStatus == acOffline {
		return PowerBattery, nil
	}
	return PowerAC, nil
}

func (windowsPower) SleepTimeout(ctx context.Context, source PowerSource) (time.Duration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	out, err := util.Output(ctx, "powercfg", "/q", "SCHEME_CURRENT", "SUB_SLEEP", "STANDBYIDLE")
	if err != nil {
		return 0, false, err
	}
	return ParsePowercfgTimeout(out, source == PowerBattery)
}

// windowsDisplay dims through the WMI brightness methods and blanks with
// SC_MONITORPOWER.
type windowsDisplay struct {
	logger *slog.Logger

	mu      sync.Mutex
	saved   int
	dimmed  bool
	blanked bool
}

func wmiBrightness(ctx context.Context) (int, error) {
	out, err := util.Output(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command",
		"(Get-CimInstance -Namespace root/WMI -ClassName WmiMonitorBrightness).CurrentBrightness")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(out))
}

func wmiSetBrightness(ctx context.Context, percent int) error {
	return util.Run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command",
		fmt.Sprintf("(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,%d)", percent))
}

func monitorPower(state uintptr) error {
	r, _, err := procPostMessageW.Call(hwndBroadcast, wmSysCommand, scMonitorPower, state)
	if r == 0 {
		return fmt.Errorf("PostMessage SC_MONITORPOWER: %w", err)
	}
	return nil
}

func (d *windowsDisplay) SetMode(ctx context.Context, mode DisplayMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger.Debug("setting display mode", "mode", mode)

	switch mode {
	case DisplayNormal:
		if d.blanked {
			if err := monitorPower(monitorOn); err != nil {
				return err
			}
			d.blanked = false
		}
		if d.dimmed {
			if err := wmiSetBrightness(ctx, d.saved); err != nil {
				return err
			}
			d.dimmed = false
		}
		return nil
	case DisplayDim:
		if !d.dimmed {
			level, err := wmiBrightness(ctx)
			if err != nil {
				return fmt.Errorf("read brightness: %w", err)
			}
			d.saved = level
		}
		if err := wmiSetBrightness(ctx, DimPercent); err != nil {
			return err
		}
		d.dimmed = true
		return nil
	case DisplaySleep:
		d.blanked = true
		return monitorPower(monitorLowPower)
	case DisplayOff:
		d.blanked = true
		return monitorPower(monitorOff)
	default:
		return fmt.Errorf("unknown display mode %d", mode)
	}
}

type windowsInjector struct{}

func (windowsInjector) PressKey(_ context.Context, key string) error {
	vk, ok := VirtualKey(key)
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
	procKeybdEvent.Call(uintptr(vk), 0, keyeventfKeyUp, 0)
	return nil
}

func (windowsInjector) MoveMouseRelative(_ context.Context, dx, dy int) error {
	p, err := cursorPos()
	if err != nil {
		return err
	}
	r, _, err := procSetCursorPos.Call(uintptr(int(p.X)+dx), uintptr(int(p.Y)+dy))
	if r == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

type windowsOpener struct{}

func (windowsOpener) Open(ctx context.Context, target string) error {
	return util.Run(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
}

// executionStateInhibitor holds ES_SYSTEM_REQUIRED | ES_DISPLAY_REQUIRED.
// The state belongs to the calling thread, so activation pins a goroutine
// to an OS thread that lives until Deactivate.
type executionStateInhibitor struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (e *executionStateInhibitor) Name() string { return "SetThreadExecutionState" }

func (e *executionStateInhibitor) Activate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		return nil
	}

	stop, done := make(chan struct{}), make(chan struct{})
	result := make(chan error, 1)
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		r, _, err := procSetThreadExecutionState.Call(uintptr(esSystemRequired | esDisplayRequired | esContinuous))
		if r == 0 {
			result <- fmt.Errorf("SetThreadExecutionState: %w", err)
			return
		}
		result <- nil
		<-stop
		procSetThreadExecutionState.Call(uintptr(esContinuous))
	}()

	select {
	case err := <-result:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		close(stop)
		return ctx.Err()
	}
	e.stop, e.done = stop, done
	return nil
}

func (e *executionStateInhibitor) Deactivate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop == nil {
		return nil
	}
	close(e.stop)
	<-e.done
	e.stop, e.done = nil, nil
	return nil
}
