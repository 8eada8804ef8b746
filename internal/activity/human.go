package activity

import (
	"fmt"
	"math"
	"time"
)

// Event is one classified activity observation kept for pattern analysis.
type Event struct {
	Time       time.Time
	Type       Type
	Confidence int
}

// HumanPattern estimates whether a sequence of activity looks human-generated.
type HumanPattern struct {
	IsHumanLike   bool
	Score         int
	IntervalCV    float64
	DistinctTypes int
	Reasons       []string
}

// History is a bounded FIFO of activity events.
type History struct {
	events []Event
	limit  int
}

// NewHistory creates a history holding at most limit events.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = HumanHistorySize
	}
	return &History{limit: limit}
}

// Add appends an event, evicting the oldest when full. Inactive verdicts are
// not recorded.
func (h *History) Add(t time.Time, v Verdict) {
	if !v.IsActive {
		return
	}
	h.events = append(h.events, Event{Time: t, Type: v.Type, Confidence: v.Confidence})
	if len(h.events) > h.limit {
		h.events = h.events[len(h.events)-h.limit:]
	}
}

// Events returns a copy of the recorded events, oldest first.
func (h *History) Events() []Event {
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Len returns the number of recorded events.
func (h *History) Len() int {
	return len(h.events)
}

// Reset drops all recorded events.
func (h *History) Reset() {
	h.events = nil
}

// AnalyzeHumanPattern scores timing irregularity, type diversity and average
// confidence of the events. Scripted input tends to arrive at constant
// intervals with a single activity type.
func AnalyzeHumanPattern(events []Event) HumanPattern {
	if len(events) < HumanMinEvents {
		return HumanPattern{
			Reasons: []string{fmt.Sprintf("Not enough activity to analyze (%d of %d events)", len(events), HumanMinEvents)},
		}
	}

	var p HumanPattern
	score := 0

	p.IntervalCV = intervalCV(events)
	if p.IntervalCV > HumanIrregularCV {
		score += IrregularTimingScore
		p.Reasons = append(p.Reasons, fmt.Sprintf("Irregular timing (cv %.2f)", p.IntervalCV))
	} else {
		p.Reasons = append(p.Reasons, fmt.Sprintf("Regular timing (cv %.2f)", p.IntervalCV))
	}

	types := make(map[Type]struct{})
	sum := 0
	for _, e := range events {
		types[e.Type] = struct{}{}
		sum += e.Confidence
	}
	p.DistinctTypes = len(types)
	switch {
	case p.DistinctTypes >= 3:
		score += VeryDiverseTypesScore
		p.Reasons = append(p.Reasons, fmt.Sprintf("Diverse activity types (%d)", p.DistinctTypes))
	case p.DistinctTypes == 2:
		score += DiverseTypesScore
		p.Reasons = append(p.Reasons, "Mixed activity types (2)")
	default:
		p.Reasons = append(p.Reasons, "Single activity type")
	}

	avg := float64(sum) / float64(len(events))
	if avg >= ConfidentEventsAverage {
		score += ConfidentEventsScore
		p.Reasons = append(p.Reasons, fmt.Sprintf("High average confidence (%.0f)", avg))
	}

	p.Score = clampConfidence(score)
	p.IsHumanLike = p.Score >= HumanLikeScoreMin
	return p
}

// intervalCV is the coefficient of variation of the gaps between events.
func intervalCV(events []Event) float64 {
	n := len(events) - 1
	if n < 1 {
		return 0
	}
	gaps := make([]float64, 0, n)
	var mean float64
	for i := 1; i < len(events); i++ {
		g := events[i].Time.Sub(events[i-1].Time).Seconds()
		gaps = append(gaps, g)
		mean += g
	}
	mean /= float64(n)
	if mean <= 0 {
		return 0
	}

	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(n)
	return math.Sqrt(variance) / mean
}
