//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Backlight dims and restores the backlight through brightnessctl, which
// saves the previous level itself (-s / -r).
type Backlight struct {
	mu    sync.Mutex
	saved bool
}

// Dim saves the current brightness and sets it to percent.
func (b *Backlight) Dim(ctx context.Context, percent int) error {
	if !hasCommand("brightnessctl") {
		return errors.New("brightnessctl command not found")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	args := []string{"-q"}
	if !b.saved {
		args = append(args, "-s")
	}
	args = append(args, "set", fmt.Sprintf("%d%%", percent))
	if _, err := run(ctx, "brightnessctl", args...); err != nil {
		return err
	}
	b.saved = true
	return nil
}

// Restore returns the brightness saved by Dim. It is a no-op when nothing
// was saved.
func (b *Backlight) Restore(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.saved {
		return nil
	}
	if _, err := run(ctx, "brightnessctl", "-q", "-r"); err != nil {
		return err
	}
	b.saved = false
	return nil
}

// DPMS forces the monitor power state: "on", "standby", "suspend" or "off".
func DPMS(ctx context.Context, state string) error {
	if !hasCommand("xset") {
		return errors.New("xset command not found")
	}
	switch state {
	case "on", "standby", "suspend", "off":
	default:
		return fmt.Errorf("unknown dpms state %q", state)
	}
	_, err := run(ctx, "xset", "dpms", "force", state)
	return err
}
