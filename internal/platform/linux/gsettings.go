//go:build linux

package linux

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const gnomePowerSchema = "org.gnome.settings-daemon.plugins.power"

// ParseGVariantInt parses gsettings output for an integer key, with or
// without a type annotation ("1800", "uint32 1800", "int32 0").
func ParseGVariantInt(s string) (int64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty gvariant")
	}
	n, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse gvariant %q: %w", s, err)
	}
	return n, nil
}

// ParseGVariantString strips the quotes of a gsettings string value.
func ParseGVariantString(s string) string {
	return strings.Trim(strings.TrimSpace(s), `'"`)
}

// GnomeSleepTimeout reads the GNOME automatic suspend timeout for the AC or
// battery profile. The boolean is false when automatic suspend is disabled.
func GnomeSleepTimeout(ctx context.Context, battery bool) (time.Duration, bool, error) {
	if !hasCommand("gsettings") {
		return 0, false, fmt.Errorf("gsettings command not found")
	}
	profile := "ac"
	if battery {
		profile = "battery"
	}

	typ, err := run(ctx, "gsettings", "get", gnomePowerSchema, "sleep-inactive-"+profile+"-type")
	if err != nil {
		return 0, false, err
	}
	if ParseGVariantString(typ) == "nothing" {
		return 0, false, nil
	}

	raw, err := run(ctx, "gsettings", "get", gnomePowerSchema, "sleep-inactive-"+profile+"-timeout")
	if err != nil {
		return 0, false, err
	}
	secs, err := ParseGVariantInt(raw)
	if err != nil {
		return 0, false, err
	}
	if secs <= 0 {
		return 0, false, nil
	}
	return time.Duration(secs) * time.Second, true, nil
}
