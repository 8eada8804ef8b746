// Package patterns generates small human-like pointer paths for the mouse
// keep-alive action.
package patterns

import (
	"math"
	"math/rand"
	"time"
)

// Shape sizes, in pixels.
const (
	MouseMinSizePixels = 5.0
	MouseMaxSizePixels = 20.0
)

// Timing characteristics for mouse movements (in seconds).
const (
	MouseBaseDelayMinSeconds = 0.005
	MouseBaseDelayMaxSeconds = 0.12
	MouseReturnDelayMin      = 0.01
	MouseReturnDelayMax      = 0.05
)

// Movement pattern probabilities.
const (
	MousePauseProbability        = 0.12
	MousePauseDurationMin        = 0.15
	MousePauseDurationMax        = 0.4
	MouseIntermediateProbability = 0.35
	MouseIntermediateDistanceMin = 8.0
)

// Movement speed factors.
const (
	MouseSpeedFactorMin        = 0.7
	MouseSpeedFactorMax        = 1.3
	MouseSpeedFactorLongDist   = 1.2
	MouseLongDistanceThreshold = 10.0
)

// Intermediate point parameters.
const (
	MouseIntermediatePositionFactor = 0.4
	MouseIntermediateJitter         = 1.5
	MouseIntermediateSpeedMin       = 0.6
	MouseIntermediateSpeedMax       = 1.4
)

// Shape is the outline a generated path follows.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeZigZag
	ShapeRandomWalk

	shapeCount
)

func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeSquare:
		return "square"
	case ShapeZigZag:
		return "zigzag"
	case ShapeRandomWalk:
		return "random-walk"
	default:
		return "unknown"
	}
}

// Point is an offset from the pointer's starting position.
type Point struct {
	X float64
	Y float64
}

// Pattern is a generated path.
type Pattern struct {
	Shape  Shape
	Size   float64
	Points []Point
}

// Generator produces paths and human-like timings from a seeded source.
// It is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator creates a generator drawing from rnd.
func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Generate picks a random shape, size and point count.
func (g *Generator) Generate() Pattern {
	return g.GenerateShape(Shape(g.rnd.Intn(int(shapeCount))))
}

// GenerateShape builds a path of the given shape with a random size and
// 4 to 11 points.
func (g *Generator) GenerateShape(shape Shape) Pattern {
	size := MouseMinSizePixels + g.rnd.Float64()*(MouseMaxSizePixels-MouseMinSizePixels)
	n := 4 + g.rnd.Intn(8)

	p := Pattern{Shape: shape, Size: size}
	switch shape {
	case ShapeCircle:
		p.Points = circle(n, size)
	case ShapeSquare:
		p.Points = square(n, size)
	case ShapeZigZag:
		p.Points = zigzag(n, size)
	default:
		p.Shape = ShapeRandomWalk
		p.Points = g.randomWalk(n, size)
	}
	return p
}

func circle(n int, size float64) []Point {
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		points = append(points, Point{X: size * math.Cos(angle), Y: size * math.Sin(angle)})
	}
	return points
}

func square(n int, size float64) []Point {
	side := int(math.Sqrt(float64(n)))
	if side < 2 {
		side = 2
	}
	step := size / float64(side-1)

	points := make([]Point, 0, side*4)
	for i := 0; i < side; i++ {
		points = append(points, Point{X: step * float64(i)})
	}
	for i := 1; i < side; i++ {
		points = append(points, Point{X: size, Y: step * float64(i)})
	}
	for i := side - 2; i >= 0; i-- {
		points = append(points, Point{X: step * float64(i), Y: size})
	}
	for i := side - 2; i > 0; i-- {
		points = append(points, Point{Y: step * float64(i)})
	}
	return points
}

func zigzag(n int, size float64) []Point {
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		y := size / 2
		if i%2 == 0 {
			y = -y
		}
		points = append(points, Point{X: size * float64(i) / float64(n-1), Y: y})
	}
	return points
}

func (g *Generator) randomWalk(n int, size float64) []Point {
	points := make([]Point, 1, n)
	step := size / 3
	var x, y float64
	for i := 1; i < n; i++ {
		angle := g.rnd.Float64() * 2 * math.Pi
		x += step * math.Cos(angle)
		y += step * math.Sin(angle)
		points = append(points, Point{X: x, Y: y})
	}
	return points
}

// SegmentDistance is the distance from points[i] to the next point, or to
// the origin for the last point.
func SegmentDistance(points []Point, i int) float64 {
	if i < 0 || i >= len(points) {
		return 0
	}
	pt := points[i]
	if i < len(points)-1 {
		next := points[i+1]
		return math.Hypot(next.X-pt.X, next.Y-pt.Y)
	}
	return math.Hypot(pt.X, pt.Y)
}

// MovementDelay is a natural delay for a segment of the given length.
func (g *Generator) MovementDelay(distance float64) time.Duration {
	base := MouseBaseDelayMinSeconds + g.rnd.Float64()*(MouseBaseDelayMaxSeconds-MouseBaseDelayMinSeconds)

	speed := MouseSpeedFactorMin + g.rnd.Float64()*(MouseSpeedFactorMax-MouseSpeedFactorMin)
	if distance > MouseLongDistanceThreshold {
		speed *= MouseSpeedFactorLongDist
	}
	return seconds(base * speed)
}

// ShouldPause decides whether to insert a short stop.
func (g *Generator) ShouldPause() bool {
	return g.rnd.Float64() < MousePauseProbability
}

// PauseDelay returns a random pause duration.
func (g *Generator) PauseDelay() time.Duration {
	return seconds(MousePauseDurationMin + g.rnd.Float64()*(MousePauseDurationMax-MousePauseDurationMin))
}

// ShouldAddIntermediate decides whether a long segment gets an extra point.
func (g *Generator) ShouldAddIntermediate(points []Point, i int, distance float64) bool {
	if i >= len(points)-1 || distance <= MouseIntermediateDistanceMin {
		return false
	}
	return g.rnd.Float64() < MouseIntermediateProbability
}

// IntermediatePoint returns a jittered point part way to the next point and
// the delay to use after moving there.
func (g *Generator) IntermediatePoint(points []Point, i int, baseDelay time.Duration) (Point, time.Duration) {
	pt, next := points[i], points[i+1]

	mid := Point{
		X: pt.X + (next.X-pt.X)*MouseIntermediatePositionFactor + (g.rnd.Float64()-0.5)*MouseIntermediateJitter,
		Y: pt.Y + (next.Y-pt.Y)*MouseIntermediatePositionFactor + (g.rnd.Float64()-0.5)*MouseIntermediateJitter,
	}
	speed := MouseIntermediateSpeedMin + g.rnd.Float64()*(MouseIntermediateSpeedMax-MouseIntermediateSpeedMin)
	return mid, time.Duration(float64(baseDelay) * speed)
}

// ReturnDelay is the delay after returning to the origin.
func (g *Generator) ReturnDelay() time.Duration {
	return seconds(MouseReturnDelayMin + g.rnd.Float64()*(MouseReturnDelayMax-MouseReturnDelayMin))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
