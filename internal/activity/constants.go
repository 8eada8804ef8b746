// Package activity classifies raw input samples into scored activity verdicts.
package activity

import "time"

// Movement thresholds.
const (
	// DefaultMovementThreshold is the minimum pointer displacement, in pixels,
	// that counts as movement.
	DefaultMovementThreshold = 2

	PreciseMovementMin  = 1.0
	PreciseMovementMax  = 50.0
	SmoothMovementMin   = 5.0
	SmoothMovementMax   = 30.0
	CircularMovementMin = 3.0
	CircularMovementMax = 15.0
	DiagonalAngleMin    = 15.0
	DiagonalAngleMax    = 75.0

	// Pattern label boundaries.
	PrecisePatternMax  = 10.0
	ModeratePatternMax = 30.0

	// GestureDominance is how many times one axis must exceed the other for a
	// movement to count as a scroll or swipe.
	GestureDominance = 2
)

// Trackpad confidence scoring.
const (
	// TrackpadConfidenceMin is the confidence at which a movement is
	// attributed to a trackpad.
	TrackpadConfidenceMin = 40

	LaptopChassisBonus   = 30
	PreciseMovementBonus = 10
	DiagonalBonus        = 10
	SmoothMovementBonus  = 10
	CircularBonus        = 5
	ScrollGestureBonus   = 15
	SwipeGestureBonus    = 10
)

// Activity classifier scoring.
const (
	// EngagementConfidenceMin is the confidence an active verdict needs before
	// the monitor treats the user as present. The classifier never applies it.
	EngagementConfidenceMin = 20

	MovementScore         = 30
	TrackpadMovementBonus = 10
	KeyboardScore         = 40
	ContinuousTypingBonus = 20
	FastTypingBonus       = 15
	NormalTypingBonus     = 10
	ClickScore            = 50
	GestureClickBonus     = 15
	WindowFocusScore      = 25
	WheelScore            = 20

	MaxConfidence = 100
)

// Typing tracker tuning.
const (
	TypingWindowSize    = 10
	TypingSpeedWindow   = 10 * time.Second
	ContinuousTypingGap = 2 * time.Second
	KeySampleDebounce   = 30 * time.Millisecond

	FastTypingWPM   = 60.0
	NormalTypingWPM = 20.0
	SlowTypingWPM   = 5.0
)

// Human-pattern analysis tuning.
const (
	HumanHistorySize       = 20
	HumanMinEvents         = 3
	HumanIrregularCV       = 0.3
	HumanLikeScoreMin      = 50
	IrregularTimingScore   = 40
	DiverseTypesScore      = 30
	VeryDiverseTypesScore  = 40
	ConfidentEventsScore   = 20
	ConfidentEventsAverage = 50.0
)

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxConfidence {
		return MaxConfidence
	}
	return v
}
