//go:build linux

package linux

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	hostname1Dest = "org.freedesktop.hostname1"
	hostname1Path = dbus.ObjectPath("/org/freedesktop/hostname1")
)

// HostnameChassis asks systemd-hostnamed for the chassis kind, one of
// "desktop", "laptop", "convertible", "server", "tablet", "handset", "vm"
// and so on. The answer is empty when hostnamed could not tell.
func HostnameChassis(ctx context.Context) (string, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return "", fmt.Errorf("connect system bus: %w", err)
	}
	defer conn.Close()

	var v dbus.Variant
	err = conn.Object(hostname1Dest, hostname1Path).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, hostname1Dest, "Chassis").
		Store(&v)
	if err != nil {
		return "", fmt.Errorf("hostname1 Chassis: %w", err)
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("hostname1 Chassis: unexpected type %s", v.Signature())
	}
	return s, nil
}

// IsLaptopChassis reports whether a hostname1 chassis kind has a built-in
// pointing device.
func IsLaptopChassis(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "laptop", "convertible":
		return true
	default:
		return false
	}
}
