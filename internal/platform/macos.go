package platform

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsePmsetSource reports whether `pmset -g batt` output says the machine
// draws from its battery.
func ParsePmsetSource(out string) (PowerSource, error) {
	switch {
	case strings.Contains(out, "'Battery Power'"):
		return PowerBattery, nil
	case strings.Contains(out, "'AC Power'"), strings.Contains(out, "'UPS Power'"):
		return PowerAC, nil
	default:
		return PowerAC, fmt.Errorf("unexpected pmset output %q", firstLine(out))
	}
}

// ParsePmsetSleep extracts the system sleep timeout of one profile from
// `pmset -g custom` output. The value is in minutes; zero means never.
func ParsePmsetSleep(out string, source PowerSource) (time.Duration, bool, error) {
	header := "AC Power:"
	if source == PowerBattery {
		header = "Battery Power:"
	}

	inSection := false
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, "Power:") {
			inSection = trimmed == header
			continue
		}
		if !inSection {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 || fields[0] != "sleep" {
			continue
		}
		mins, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, false, fmt.Errorf("parse pmset sleep %q: %w", fields[1], err)
		}
		if mins <= 0 {
			return 0, false, nil
		}
		return time.Duration(mins) * time.Minute, true, nil
	}
	return 0, false, fmt.Errorf("pmset output has no sleep setting under %q", header)
}

// IsMacLaptopModel reports whether a hw.model identifier is a portable Mac.
func IsMacLaptopModel(model string) bool {
	return strings.HasPrefix(strings.TrimSpace(model), "MacBook")
}

// macKeyCodes are macOS virtual key codes for injectable key names.
var macKeyCodes = map[string]int{
	"shift":    0x38,
	"ctrl":     0x3B,
	"control":  0x3B,
	"alt":      0x3A,
	"option":   0x3A,
	"capslock": 0x39,
	"space":    0x31,
	"enter":    0x24,
	"return":   0x24,
	"tab":      0x30,
	"escape":   0x35,
	"esc":      0x35,
	"f13":      0x69,
	"f14":      0x6B,
	"f15":      0x71,
	"f16":      0x6A,
}

// MacKeyCode maps a key name to its macOS virtual key code.
func MacKeyCode(name string) (int, bool) {
	code, ok := macKeyCodes[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
