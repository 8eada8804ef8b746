// Package action performs the keep-alive actions: a harmless key press, a
// small mouse shape, opening an application or URL, or running a command.
package action

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMethod is returned for a method name or value outside the
// closed set, and for a method that has no registered handler.
var ErrUnknownMethod = errors.New("unknown keep-alive method")

// Method selects the keep-alive action.
type Method int

const (
	MethodKey Method = iota
	MethodMouse
	MethodApp
	MethodBrowser
	MethodCommand
	// MethodRandom picks one of the registered concrete methods uniformly
	// at each invocation.
	MethodRandom
)

var methodNames = map[Method]string{
	MethodKey:     "key",
	MethodMouse:   "mouse",
	MethodApp:     "app",
	MethodBrowser: "browser",
	MethodCommand: "command",
	MethodRandom:  "random",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod parses a method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w %q (want key, mouse, app, browser, command or random)", ErrUnknownMethod, s)
}

func (m Method) MarshalText() ([]byte, error) {
	if _, ok := methodNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	v, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
