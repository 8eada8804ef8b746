package activity

import "math"

// Point is a pointer position in screen coordinates.
type Point struct {
	X int
	Y int
}

// Movement describes the displacement between two pointer samples.
type Movement struct {
	Distance float64
	DeltaX   int
	DeltaY   int

	// Angle is the angle between the movement vector and the horizontal axis,
	// in degrees within [0,90]. Only meaningful when HasAngle is set, which
	// requires both deltas to be non-zero.
	Angle    float64
	HasAngle bool
}

// AnalyzeMovement computes distance, deltas and angle between prev and cur.
func AnalyzeMovement(prev, cur Point) Movement {
	dx := cur.X - prev.X
	dy := cur.Y - prev.Y

	m := Movement{
		DeltaX:   dx,
		DeltaY:   dy,
		Distance: math.Hypot(float64(dx), float64(dy)),
	}
	if dx != 0 && dy != 0 {
		m.Angle = math.Atan2(math.Abs(float64(dy)), math.Abs(float64(dx))) * 180 / math.Pi
		m.HasAngle = true
	}
	return m
}

// Exceeds reports whether the movement reaches the given pixel threshold.
func (m Movement) Exceeds(threshold int) bool {
	return m.Distance >= float64(threshold)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
