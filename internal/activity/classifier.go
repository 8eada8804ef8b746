package activity

import (
	"fmt"
	"strings"
)

// Type is the first signal that made a verdict active.
type Type int

const (
	TypeNone Type = iota
	TypeMouseMovement
	TypeKeyboard
	TypeMouseClick
	TypeWindowFocus
	TypeMouseWheel
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeMouseMovement:
		return "MouseMovement"
	case TypeKeyboard:
		return "Keyboard"
	case TypeMouseClick:
		return "MouseClick"
	case TypeWindowFocus:
		return "WindowFocus"
	case TypeMouseWheel:
		return "MouseWheel"
	default:
		return "Unknown"
	}
}

// Device is the input device a movement was attributed to.
type Device int

const (
	DeviceUnknown Device = iota
	DeviceMouse
	DeviceTrackpad
)

func (d Device) String() string {
	switch d {
	case DeviceMouse:
		return "Mouse"
	case DeviceTrackpad:
		return "Trackpad"
	default:
		return "Unknown"
	}
}

// MouseButton identifies a pressed mouse button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota + 1
	ButtonRight
	ButtonMiddle
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "Left"
	case ButtonRight:
		return "Right"
	case ButtonMiddle:
		return "Middle"
	default:
		return "Unknown"
	}
}

// Signals is everything the classifier looks at for one tick.
type Signals struct {
	Current  Point
	Previous Point

	// PressedKey is the first key that went down this tick, if KeyPressed.
	PressedKey KeyCode
	KeyPressed bool

	Clicks []MouseButton

	// Window titles; an empty string means the title is unknown.
	WindowTitle         string
	PreviousWindowTitle string

	WheelDelta int

	Typing   TypingState
	Trackpad TrackpadVerdict
	Gestures []string
}

// Verdict is the scored outcome of one classification.
type Verdict struct {
	IsActive   bool
	Confidence int
	Type       Type
	Device     Device
	Reasons    []string
}

// Engaged reports whether the verdict is strong enough to count as the user
// being present.
func (v Verdict) Engaged(minConfidence int) bool {
	return v.IsActive && v.Confidence >= minConfidence
}

// Classifier aggregates input signals into a Verdict.
type Classifier struct {
	MovementThreshold int
}

// NewClassifier returns a classifier using the given movement threshold.
// Non-positive thresholds fall back to DefaultMovementThreshold.
func NewClassifier(threshold int) *Classifier {
	if threshold <= 0 {
		threshold = DefaultMovementThreshold
	}
	return &Classifier{MovementThreshold: threshold}
}

// Classify scores the signals. Every signal contributes a reason whether or
// not it fired.
func (c *Classifier) Classify(s Signals) Verdict {
	var (
		v     Verdict
		score int
	)
	setType := func(t Type) {
		if v.Type == TypeNone {
			v.Type = t
		}
	}

	m := AnalyzeMovement(s.Previous, s.Current)
	if m.Exceeds(c.MovementThreshold) {
		score += MovementScore
		setType(TypeMouseMovement)
		if s.Trackpad.IsTrackpad {
			score += TrackpadMovementBonus
			v.Device = DeviceTrackpad
			v.Reasons = append(v.Reasons, fmt.Sprintf("Trackpad movement detected (%.1fpx, confidence %d)", m.Distance, s.Trackpad.Confidence))
		} else {
			v.Device = DeviceMouse
			v.Reasons = append(v.Reasons, fmt.Sprintf("Mouse movement detected (%.1fpx)", m.Distance))
		}
	} else {
		v.Reasons = append(v.Reasons, fmt.Sprintf("No significant pointer movement (%.1fpx)", m.Distance))
	}

	if s.KeyPressed {
		score += KeyboardScore
		setType(TypeKeyboard)
		reason := fmt.Sprintf("Key pressed (0x%02X)", uint16(s.PressedKey))
		switch s.Typing.Pattern {
		case TypingContinuous:
			score += ContinuousTypingBonus
			reason += ", continuous typing"
		case TypingFast:
			score += FastTypingBonus
			reason += fmt.Sprintf(", fast typing (%.0f WPM)", s.Typing.SpeedWPM)
		case TypingNormal:
			score += NormalTypingBonus
			reason += fmt.Sprintf(", normal typing (%.0f WPM)", s.Typing.SpeedWPM)
		}
		v.Reasons = append(v.Reasons, reason)
	} else {
		v.Reasons = append(v.Reasons, "No keyboard activity")
	}

	if len(s.Clicks) > 0 {
		score += ClickScore
		setType(TypeMouseClick)
		if len(s.Gestures) > 0 {
			score += GestureClickBonus
			v.Reasons = append(v.Reasons, "Trackpad gesture: "+strings.Join(s.Gestures, ", "))
		} else {
			names := make([]string, len(s.Clicks))
			for i, b := range s.Clicks {
				names[i] = b.String()
			}
			v.Reasons = append(v.Reasons, "Mouse click: "+strings.Join(names, ", "))
		}
	} else {
		v.Reasons = append(v.Reasons, "No mouse clicks")
	}

	if s.WindowTitle != "" && s.PreviousWindowTitle != "" && s.WindowTitle != s.PreviousWindowTitle {
		score += WindowFocusScore
		setType(TypeWindowFocus)
		v.Reasons = append(v.Reasons, fmt.Sprintf("Window focus changed: %q -> %q", s.PreviousWindowTitle, s.WindowTitle))
	} else {
		v.Reasons = append(v.Reasons, "No window focus change")
	}

	if s.WheelDelta != 0 {
		score += WheelScore
		setType(TypeMouseWheel)
		v.Reasons = append(v.Reasons, fmt.Sprintf("Mouse wheel moved (%d)", s.WheelDelta))
	} else {
		v.Reasons = append(v.Reasons, "No mouse wheel activity")
	}

	v.Confidence = clampConfidence(score)
	v.IsActive = score > 0
	return v
}
