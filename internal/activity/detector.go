package activity

import "time"

// Sample is one raw poll of the input devices.
type Sample struct {
	Pointer     Point
	KeysDown    map[KeyCode]bool
	Buttons     []MouseButton
	WheelDelta  int
	WindowTitle string
}

// Observation is the full result of one detector tick.
type Observation struct {
	Time     time.Time
	Movement Movement
	Trackpad TrackpadVerdict
	Typing   TypingState
	Verdict  Verdict
}

// Detector owns the state that persists between poll ticks: the previous
// pointer sample and window title, the typing window, the activity history
// and the last activity/check timestamps. It is not safe for concurrent use.
type Detector struct {
	classifier *Classifier
	typing     *TypingTracker
	history    *History

	prev      Point
	prevTitle string
	primed    bool

	last         Observation
	lastActivity time.Time
	lastCheck    time.Time
}

// NewDetector creates a detector with the given movement threshold.
func NewDetector(threshold int) *Detector {
	return &Detector{
		classifier: NewClassifier(threshold),
		typing:     NewTypingTracker(),
		history:    NewHistory(HumanHistorySize),
	}
}

// Observe classifies a sample against the previous one. The first sample
// only primes the detector and always yields an inactive verdict.
func (d *Detector) Observe(now time.Time, s Sample, isLaptop bool) Observation {
	d.lastCheck = now
	prev, prevTitle := d.prev, d.prevTitle
	d.prev, d.prevTitle = s.Pointer, s.WindowTitle

	pressed := d.typing.Sample(now, func(k KeyCode) bool { return s.KeysDown[k] })
	if !d.primed {
		d.primed = true
		d.last = Observation{Time: now, Verdict: Verdict{Reasons: []string{"Baseline sample"}}}
		return d.last
	}
	typing := d.typing.Update(now, pressed)

	m := AnalyzeMovement(prev, s.Pointer)
	tp := Discriminate(m, isLaptop, d.classifier.MovementThreshold)

	sig := Signals{
		Current:             s.Pointer,
		Previous:            prev,
		Clicks:              s.Buttons,
		WindowTitle:         s.WindowTitle,
		PreviousWindowTitle: prevTitle,
		WheelDelta:          s.WheelDelta,
		Typing:              typing,
		Trackpad:            tp,
		Gestures:            tp.Gestures(),
	}
	// Transitions feed the typing window; a key held across ticks still
	// counts as keyboard input.
	if len(pressed) > 0 {
		sig.PressedKey, sig.KeyPressed = pressed[0], true
	} else if k, ok := firstHeld(s.KeysDown); ok {
		sig.PressedKey, sig.KeyPressed = k, true
	}

	obs := Observation{
		Time:     now,
		Movement: m,
		Trackpad: tp,
		Typing:   typing,
		Verdict:  d.classifier.Classify(sig),
	}
	if obs.Verdict.IsActive {
		d.lastActivity = now
		d.history.Add(now, obs.Verdict)
	}
	d.last = obs
	return obs
}

// firstHeld returns the first watched key that is down, in watch-list order.
func firstHeld(down map[KeyCode]bool) (KeyCode, bool) {
	if len(down) == 0 {
		return 0, false
	}
	for _, k := range WatchedKeys {
		if down[k] {
			return k, true
		}
	}
	return 0, false
}

// Last returns the most recent observation.
func (d *Detector) Last() Observation {
	return d.last
}

// LastActivity returns when the last active verdict was produced.
func (d *Detector) LastActivity() time.Time {
	return d.lastActivity
}

// LastCheck returns when the detector last observed a sample.
func (d *Detector) LastCheck() time.Time {
	return d.lastCheck
}

// HumanPattern analyzes the recorded activity history.
func (d *Detector) HumanPattern() HumanPattern {
	return AnalyzeHumanPattern(d.history.Events())
}

// Reset clears all per-session state. Safe to call on a fresh detector.
func (d *Detector) Reset() {
	if d == nil {
		return
	}
	d.typing.Reset()
	d.history.Reset()
	d.prev, d.prevTitle, d.primed = Point{}, "", false
	d.last = Observation{}
	d.lastActivity, d.lastCheck = time.Time{}, time.Time{}
}
