//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoActiveWindow is returned when no window has focus.
var ErrNoActiveWindow = errors.New("no active window")

// Xdotool drives the xdotool CLI.
type Xdotool struct{}

// ParseMouseLocation parses `xdotool getmouselocation --shell` output.
func ParseMouseLocation(out string) (x, y int, err error) {
	var gotX, gotY bool
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch k {
		case "X":
			if x, err = strconv.Atoi(v); err != nil {
				return 0, 0, fmt.Errorf("parse X %q: %w", v, err)
			}
			gotX = true
		case "Y":
			if y, err = strconv.Atoi(v); err != nil {
				return 0, 0, fmt.Errorf("parse Y %q: %w", v, err)
			}
			gotY = true
		}
	}
	if !gotX || !gotY {
		return 0, 0, fmt.Errorf("unexpected getmouselocation output %q", out)
	}
	return x, y, nil
}

// Location returns the pointer position in screen coordinates.
func (Xdotool) Location(ctx context.Context) (int, int, error) {
	out, err := run(ctx, "xdotool", "getmouselocation", "--shell")
	if err != nil {
		return 0, 0, err
	}
	return ParseMouseLocation(out)
}

// ActiveWindowName returns the title of the focused window.
func (Xdotool) ActiveWindowName(ctx context.Context) (string, error) {
	out, err := run(ctx, "xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoActiveWindow, err)
	}
	return out, nil
}

// Key taps a key, given either as an xdotool keysym or a friendly name.
func (Xdotool) Key(ctx context.Context, key string) error {
	_, err := run(ctx, "xdotool", "key", Keysym(key))
	return err
}

// MoveRelative moves the pointer by (dx, dy).
func (Xdotool) MoveRelative(ctx context.Context, dx, dy int) error {
	// "--" keeps negative offsets from being read as flags.
	_, err := run(ctx, "xdotool", "mousemove_relative", "--", strconv.Itoa(dx), strconv.Itoa(dy))
	return err
}

var keysyms = map[string]string{
	"shift":      "Shift_L",
	"ctrl":       "Control_L",
	"control":    "Control_L",
	"alt":        "Alt_L",
	"super":      "Super_L",
	"capslock":   "Caps_Lock",
	"numlock":    "Num_Lock",
	"scrolllock": "Scroll_Lock",
	"enter":      "Return",
	"return":     "Return",
	"escape":     "Escape",
	"esc":        "Escape",
	"space":      "space",
	"tab":        "Tab",
}

// Keysym translates a friendly key name into an X keysym. Function keys
// ("f15") are upper-cased and unknown names pass through unchanged.
func Keysym(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if sym, ok := keysyms[lower]; ok {
		return sym
	}
	if len(lower) > 1 && lower[0] == 'f' {
		if n, err := strconv.Atoi(lower[1:]); err == nil && n >= 1 && n <= 35 {
			return "F" + lower[1:]
		}
	}
	return strings.TrimSpace(name)
}
