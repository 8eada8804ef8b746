//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
)

// Inhibitor timing constants.
const (
	inhibitorVerifyDelay = 100 * time.Millisecond
)

// GNOME SessionManager inhibit flags.
const (
	gnomeInhibitSuspend = 4  // Inhibit suspending the session
	gnomeInhibitIdle    = 8  // Inhibit the session being marked as idle
	gnomeInhibitBoth    = 12 // Inhibit both suspend and idle
)

const (
	inhibitApp    = "awake"
	inhibitReason = "Keeping the session awake during working hours"
)

// Inhibitor defines the common interface for various Linux sleep prevention methods.
type Inhibitor interface {
	Name() string
	Activate(ctx context.Context) error
	Deactivate() error
}

// SystemdInhibitor holds a systemd-inhibit block lock for as long as its
// child process lives.
type SystemdInhibitor struct {
	logger *slog.Logger
	cmd    *exec.Cmd
}

func (s *SystemdInhibitor) Name() string { return "systemd-inhibit" }

func (s *SystemdInhibitor) Activate(ctx context.Context) error {
	if !hasCommand("systemd-inhibit") {
		return errors.New("systemd-inhibit command not found")
	}

	// The lock must outlive ctx, which only bounds activation.
	cmd := exec.Command("systemd-inhibit",
		"--what=idle:sleep",
		"--who="+inhibitApp,
		"--why="+inhibitReason,
		"--mode=block",
		"sleep", "infinity")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start systemd-inhibit: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return ctx.Err()
	case <-time.After(inhibitorVerifyDelay):
	}
	if err := cmd.Process.Signal(syscall.Signal(0)); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("systemd-inhibit exited early: %w", err)
	}

	s.cmd = cmd
	s.logger.Debug("systemd-inhibit started", "pid", cmd.Process.Pid)
	return nil
}

func (s *SystemdInhibitor) Deactivate() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	_ = s.cmd.Wait()
	s.cmd = nil
	return err
}

// DBusInhibitor takes an inhibit cookie from a session-bus service and
// returns it on Deactivate. The connection is private to the inhibitor so
// the service releases the cookie if the process dies.
type DBusInhibitor struct {
	name      string
	dest      string
	path      dbus.ObjectPath
	iface     string
	uninhibit string
	args      []any
	logger    *slog.Logger

	conn   *dbus.Conn
	cookie uint32
}

func (d *DBusInhibitor) Name() string { return d.name }

func (d *DBusInhibitor) Activate(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	var cookie uint32
	call := conn.Object(d.dest, d.path).CallWithContext(ctx, d.iface+".Inhibit", 0, d.args...)
	if err := call.Store(&cookie); err != nil {
		conn.Close()
		return fmt.Errorf("%s.Inhibit: %w", d.iface, err)
	}
	if cookie == 0 {
		conn.Close()
		return fmt.Errorf("received invalid cookie (0) from %s", d.dest)
	}

	d.conn, d.cookie = conn, cookie
	d.logger.Debug("dbus inhibitor activated", "inhibitor", d.name, "cookie", cookie)
	return nil
}

func (d *DBusInhibitor) Deactivate() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Object(d.dest, d.path).Call(d.iface+"."+d.uninhibit, 0, d.cookie).Err
	d.conn.Close()
	d.conn, d.cookie = nil, 0
	return err
}

// Cookie returns the inhibitor cookie, zero while inactive.
func (d *DBusInhibitor) Cookie() uint32 {
	return d.cookie
}

// XsetInhibitor disables the X screensaver and DPMS (X11 only).
type XsetInhibitor struct {
	logger *slog.Logger
}

func (x *XsetInhibitor) Name() string { return "xset" }

func (x *XsetInhibitor) Activate(ctx context.Context) error {
	if !hasCommand("xset") || os.Getenv("DISPLAY") == "" {
		return errors.New("xset not available or DISPLAY not set")
	}
	if _, err := run(ctx, "xset", "s", "off"); err != nil {
		return err
	}
	runBestEffort(ctx, x.logger, "xset", "-dpms")
	return nil
}

func (x *XsetInhibitor) Deactivate() error {
	ctx := context.Background()
	runBestEffort(ctx, x.logger, "xset", "s", "on")
	runBestEffort(ctx, x.logger, "xset", "+dpms")
	return nil
}

func gnomeSessionInhibitor(name string, flags uint32, logger *slog.Logger) *DBusInhibitor {
	return &DBusInhibitor{
		name:      name,
		dest:      "org.gnome.SessionManager",
		path:      "/org/gnome/SessionManager",
		iface:     "org.gnome.SessionManager",
		uninhibit: "Uninhibit",
		args:      []any{inhibitApp, uint32(0), inhibitReason, flags},
		logger:    logger,
	}
}

func simpleInhibitor(name, service string, path dbus.ObjectPath, logger *slog.Logger) *DBusInhibitor {
	return &DBusInhibitor{
		name:      name,
		dest:      service,
		path:      path,
		iface:     service,
		uninhibit: "UnInhibit",
		args:      []any{inhibitApp, inhibitReason},
		logger:    logger,
	}
}

// BuildInhibitors builds a prioritized list of inhibitors based on detected desktop environment.
func BuildInhibitors(logger *slog.Logger) []Inhibitor {
	de := DetectDesktopEnvironment()
	inhibitors := []Inhibitor{&SystemdInhibitor{logger: logger}}

	switch de {
	case DesktopCosmic, DesktopGNOME:
		inhibitors = append(inhibitors, gnomeSessionInhibitor("dbus-"+de, gnomeInhibitSuspend|gnomeInhibitIdle, logger))
	case DesktopKDE:
		inhibitors = append(inhibitors, simpleInhibitor("dbus-kde",
			"org.freedesktop.PowerManagement.Inhibit", "/org/freedesktop/PowerManagement/Inhibit", logger))
	case DesktopXFCE:
		inhibitors = append(inhibitors, simpleInhibitor("dbus-xfce",
			"org.xfce.PowerManager", "/org/xfce/PowerManager", logger))
	case DesktopMATE:
		inhibitors = append(inhibitors, &DBusInhibitor{
			name:      "dbus-mate",
			dest:      "org.mate.SessionManager",
			path:      "/org/mate/SessionManager",
			iface:     "org.mate.SessionManager",
			uninhibit: "Uninhibit",
			args:      []any{inhibitApp, uint32(0), inhibitReason, uint32(gnomeInhibitBoth)},
			logger:    logger,
		})
	}

	inhibitors = append(inhibitors, simpleInhibitor("dbus-freedesktop",
		"org.freedesktop.ScreenSaver", "/org/freedesktop/ScreenSaver", logger))

	if DetectDisplayServer() == DisplayServerX11 {
		inhibitors = append(inhibitors, &XsetInhibitor{logger: logger})
	}
	return inhibitors
}
