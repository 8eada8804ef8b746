package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDuration accepts either a bare integer (minutes) or a Go duration
// string such as "1h30m". Negative values are rejected.
func ParseDuration(input string) (time.Duration, error) {
	if minutes, err := strconv.Atoi(input); err == nil {
		if minutes < 0 {
			return 0, fmt.Errorf("invalid duration: %s must not be negative", input)
		}
		return time.Duration(minutes) * time.Minute, nil
	}

	duration, err := time.ParseDuration(input)
	if err != nil || duration < 0 {
		return 0, fmt.Errorf("invalid duration format: %s\n\nValid formats:\n"+
			"• Minutes: 30, 120\n"+
			"• Duration: 1h30m, 45m, 2h", input)
	}
	return duration, nil
}
