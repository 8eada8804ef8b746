package activity

import (
	"fmt"
	"math"
)

// GestureType is the trackpad gesture inferred from a movement.
type GestureType int

const (
	GestureNone GestureType = iota
	GestureScroll
	GestureSwipe
)

func (g GestureType) String() string {
	switch g {
	case GestureNone:
		return "None"
	case GestureScroll:
		return "Scroll"
	case GestureSwipe:
		return "Swipe"
	default:
		return "Unknown"
	}
}

// MovementPattern labels the size of a movement.
type MovementPattern int

const (
	PatternPrecise MovementPattern = iota
	PatternModerate
	PatternLarge
)

func (p MovementPattern) String() string {
	switch p {
	case PatternPrecise:
		return "Precise"
	case PatternModerate:
		return "Moderate"
	case PatternLarge:
		return "Large"
	default:
		return "Unknown"
	}
}

// TrackpadVerdict is the outcome of trackpad discrimination for one movement.
type TrackpadVerdict struct {
	IsTrackpad bool
	Confidence int
	Gesture    GestureType
	Pattern    MovementPattern
	Reasons    []string
}

// Gestures returns the gesture names carried by the verdict, suitable for
// Signals.Gestures.
func (v TrackpadVerdict) Gestures() []string {
	if !v.IsTrackpad || v.Gesture == GestureNone {
		return nil
	}
	return []string{v.Gesture.String()}
}

// PatternFor labels a movement distance.
func PatternFor(distance float64) MovementPattern {
	switch {
	case distance <= PrecisePatternMax:
		return PatternPrecise
	case distance <= ModeratePatternMax:
		return PatternModerate
	default:
		return PatternLarge
	}
}

// Discriminate scores how likely a movement came from a trackpad rather
// than a mouse. It never panics; any internal failure yields a zero verdict.
func Discriminate(m Movement, isLaptop bool, threshold int) (v TrackpadVerdict) {
	defer func() {
		if r := recover(); r != nil {
			v = TrackpadVerdict{Reasons: []string{fmt.Sprintf("Trackpad detection failed: %v", r)}}
		}
	}()

	if math.IsNaN(m.Distance) || math.IsInf(m.Distance, 0) {
		return TrackpadVerdict{Reasons: []string{"Trackpad detection failed: invalid distance"}}
	}

	v.Pattern = PatternFor(m.Distance)
	if !m.Exceeds(threshold) {
		v.Reasons = []string{fmt.Sprintf("Movement below threshold (%.1fpx < %dpx)", m.Distance, threshold)}
		return v
	}

	score := 0
	if isLaptop {
		score += LaptopChassisBonus
		v.Reasons = append(v.Reasons, "Laptop chassis detected")
	}
	if m.Distance >= PreciseMovementMin && m.Distance <= PreciseMovementMax {
		score += PreciseMovementBonus
		v.Reasons = append(v.Reasons, fmt.Sprintf("Precise movement (%.1fpx)", m.Distance))
	}
	if m.HasAngle && m.Angle >= DiagonalAngleMin && m.Angle <= DiagonalAngleMax {
		score += DiagonalBonus
		v.Reasons = append(v.Reasons, fmt.Sprintf("Diagonal movement (%.1f°)", m.Angle))
	}
	if m.Distance >= SmoothMovementMin && m.Distance <= SmoothMovementMax {
		score += SmoothMovementBonus
		v.Reasons = append(v.Reasons, "Smooth movement range")
	}
	if m.Distance >= CircularMovementMin && m.Distance <= CircularMovementMax {
		score += CircularBonus
		v.Reasons = append(v.Reasons, "Small circular movement range")
	}

	dx, dy := absInt(m.DeltaX), absInt(m.DeltaY)
	switch {
	case dy > GestureDominance*dx:
		score += ScrollGestureBonus
		v.Gesture = GestureScroll
		v.Reasons = append(v.Reasons, "Vertical-dominant movement (scroll gesture)")
	case dx > GestureDominance*dy:
		score += SwipeGestureBonus
		v.Gesture = GestureSwipe
		v.Reasons = append(v.Reasons, "Horizontal-dominant movement (swipe gesture)")
	}

	v.Confidence = clampConfidence(score)
	v.IsTrackpad = v.Confidence >= TrackpadConfidenceMin
	return v
}
