package platform

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsePowercfgTimeout extracts the AC or DC setting index from
// `powercfg /q SCHEME_CURRENT SUB_SLEEP STANDBYIDLE` output. The index is
// the idle timeout in seconds; zero means never.
func ParsePowercfgTimeout(out string, battery bool) (time.Duration, bool, error) {
	prefix := "Current AC Power Setting Index:"
	if battery {
		prefix = "Current DC Power Setting Index:"
	}

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		secs, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(raw), "0x"), 16, 32)
		if err != nil {
			return 0, false, fmt.Errorf("parse powercfg index %q: %w", raw, err)
		}
		if secs == 0 {
			return 0, false, nil
		}
		return time.Duration(secs) * time.Second, true, nil
	}
	return 0, false, fmt.Errorf("powercfg output has no %q line", prefix)
}

// Windows virtual-key codes for injectable key names.
var virtualKeys = map[string]uint16{
	"shift":      0x10,
	"ctrl":       0x11,
	"control":    0x11,
	"alt":        0x12,
	"capslock":   0x14,
	"escape":     0x1B,
	"esc":        0x1B,
	"space":      0x20,
	"enter":      0x0D,
	"return":     0x0D,
	"tab":        0x09,
	"numlock":    0x90,
	"scrolllock": 0x91,
}

// VirtualKey maps a key name ("shift", "f15", "a", "7") to its Windows
// virtual-key code.
func VirtualKey(name string) (uint16, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if vk, ok := virtualKeys[lower]; ok {
		return vk, true
	}
	if len(lower) > 1 && lower[0] == 'f' {
		if n, err := strconv.Atoi(lower[1:]); err == nil && n >= 1 && n <= 24 {
			return uint16(0x70 + n - 1), true
		}
	}
	if len(lower) == 1 {
		c := lower[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint16(c - 'a' + 'A'), true
		case c >= '0' && c <= '9':
			return uint16(c), true
		}
	}
	return 0, false
}
