//go:build linux

package linux

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sysfs reads power and chassis information from a sysfs tree.
type Sysfs struct {
	Root string
}

// DefaultSysfs reads the live /sys.
var DefaultSysfs = Sysfs{Root: "/sys"}

// PowerSupply is one entry of /sys/class/power_supply.
type PowerSupply struct {
	Name   string
	Type   string // Battery, Mains, USB, ...
	Scope  string // empty for system supplies, Device for peripherals
	Online bool
	Status string // Charging, Discharging, Full, ...
}

// System reports whether the supply powers the machine itself rather than a
// peripheral such as a wireless mouse.
func (p PowerSupply) System() bool {
	return !strings.EqualFold(p.Scope, "Device")
}

// PowerSupplies lists the power supplies under the tree.
func (s Sysfs) PowerSupplies() ([]PowerSupply, error) {
	dir := filepath.Join(s.Root, "class", "power_supply")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read power supplies: %w", err)
	}

	var out []PowerSupply
	for _, e := range entries {
		base := filepath.Join(dir, e.Name())
		typ := readTrimmed(filepath.Join(base, "type"))
		if typ == "" {
			continue
		}
		out = append(out, PowerSupply{
			Name:   e.Name(),
			Type:   typ,
			Scope:  readTrimmed(filepath.Join(base, "scope")),
			Online: readTrimmed(filepath.Join(base, "online")) == "1",
			Status: readTrimmed(filepath.Join(base, "status")),
		})
	}
	return out, nil
}

// HasSystemBattery reports whether a non-peripheral battery is present.
func (s Sysfs) HasSystemBattery() (bool, error) {
	supplies, err := s.PowerSupplies()
	if err != nil {
		return false, err
	}
	for _, p := range supplies {
		if p.Type == "Battery" && p.System() {
			return true, nil
		}
	}
	return false, nil
}

// OnBattery reports whether the machine runs from its battery: no mains or
// USB supply is online and a system battery is discharging. A machine
// without a battery is on AC.
func (s Sysfs) OnBattery() (bool, error) {
	supplies, err := s.PowerSupplies()
	if err != nil {
		return false, err
	}

	var battery, discharging bool
	for _, p := range supplies {
		switch {
		case p.Type == "Battery" && p.System():
			battery = true
			if p.Status == "Discharging" {
				discharging = true
			}
		case p.Online && (p.Type == "Mains" || p.Type == "USB" || p.Type == "USB_C"):
			return false, nil
		}
	}
	return battery && discharging, nil
}

// ChassisType returns the SMBIOS chassis type from the DMI tables.
func (s Sysfs) ChassisType() (int, error) {
	raw := readTrimmed(filepath.Join(s.Root, "class", "dmi", "id", "chassis_type"))
	if raw == "" {
		return 0, errors.New("dmi chassis_type not available")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse chassis_type %q: %w", raw, err)
	}
	return n, nil
}

// IsPortableChassisType reports whether an SMBIOS chassis type is a laptop
// class device: Portable, Laptop, Notebook, Sub Notebook, Convertible or
// Detachable.
func IsPortableChassisType(n int) bool {
	switch n {
	case 8, 9, 10, 14, 31, 32:
		return true
	default:
		return false
	}
}

func readTrimmed(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
