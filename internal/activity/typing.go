package activity

import "time"

// TypingPattern labels the current typing behaviour.
type TypingPattern int

const (
	TypingNone TypingPattern = iota
	TypingSingle
	TypingSlow
	TypingNormal
	TypingFast
	TypingContinuous
)

func (p TypingPattern) String() string {
	switch p {
	case TypingNone:
		return "None"
	case TypingSingle:
		return "Single"
	case TypingSlow:
		return "Slow"
	case TypingNormal:
		return "Normal"
	case TypingFast:
		return "Fast"
	case TypingContinuous:
		return "Continuous"
	default:
		return "Unknown"
	}
}

// TypingEvent records the key-down transitions seen in one poll tick.
type TypingEvent struct {
	Time  time.Time
	Keys  []KeyCode
	Count int
}

// TypingState is derived from the tracker's event window on every update.
type TypingState struct {
	IsTyping bool
	SpeedWPM float64
	Pattern  TypingPattern
}

// TypingTracker keeps a bounded window of typing events and the last known
// state of every watched key.
type TypingTracker struct {
	events     []TypingEvent
	keyDown    map[KeyCode]bool
	lastSample time.Time
}

// NewTypingTracker creates an empty tracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{keyDown: make(map[KeyCode]bool)}
}

// Sample compares the current key state against the previous sample and
// returns the keys that went from up to down. Samples closer than
// KeySampleDebounce to the previous one are ignored and return nil.
func (t *TypingTracker) Sample(now time.Time, isDown func(KeyCode) bool) []KeyCode {
	if !t.lastSample.IsZero() && now.Sub(t.lastSample) < KeySampleDebounce {
		return nil
	}
	t.lastSample = now

	var pressed []KeyCode
	for _, k := range WatchedKeys {
		down := isDown(k)
		if down && !t.keyDown[k] {
			pressed = append(pressed, k)
		}
		t.keyDown[k] = down
	}
	return pressed
}

// Update records the keys pressed in this tick and recomputes the typing state.
func (t *TypingTracker) Update(now time.Time, pressed []KeyCode) TypingState {
	if len(pressed) > 0 {
		keys := make([]KeyCode, len(pressed))
		copy(keys, pressed)
		t.events = append(t.events, TypingEvent{Time: now, Keys: keys, Count: len(keys)})
		if len(t.events) > TypingWindowSize {
			t.events = t.events[len(t.events)-TypingWindowSize:]
		}

		speed := t.speed(now)
		return TypingState{IsTyping: true, SpeedWPM: speed, Pattern: patternForSpeed(speed)}
	}

	if n := len(t.events); n > 0 && now.Sub(t.events[n-1].Time) <= ContinuousTypingGap {
		return TypingState{IsTyping: true, SpeedWPM: t.speed(now), Pattern: TypingContinuous}
	}
	return TypingState{}
}

// Events returns a copy of the current event window.
func (t *TypingTracker) Events() []TypingEvent {
	out := make([]TypingEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Reset clears the event window and key cache.
func (t *TypingTracker) Reset() {
	t.events = nil
	t.keyDown = make(map[KeyCode]bool)
	t.lastSample = time.Time{}
}

// speed is the key count of events inside TypingSpeedWindow divided by the
// minutes those events span.
func (t *TypingTracker) speed(now time.Time) float64 {
	var (
		total         int
		first, latest time.Time
	)
	for _, e := range t.events {
		if now.Sub(e.Time) > TypingSpeedWindow {
			continue
		}
		if first.IsZero() {
			first = e.Time
		}
		latest = e.Time
		total += e.Count
	}

	minutes := latest.Sub(first).Minutes()
	if total == 0 || minutes <= 0 {
		return 0
	}
	return float64(total) / minutes
}

func patternForSpeed(wpm float64) TypingPattern {
	switch {
	case wpm > FastTypingWPM:
		return TypingFast
	case wpm > NormalTypingWPM:
		return TypingNormal
	case wpm > SlowTypingWPM:
		return TypingSlow
	default:
		return TypingSingle
	}
}
