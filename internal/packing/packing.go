// Package packing scatters circular gallery items inside a rectangular
// canvas without overlap and gives each one an idle drift vector.
//
// Positions are percentages of the canvas; drift is in pixels so the
// client can animate a transform directly. The layout is a bounded
// relaxation, not a solver: very dense inputs may keep a small residual
// overlap.
package packing

import (
	"math"
	"time"
)

// Source is the randomness the packer draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Item is the rest position and drift of one bubble.
type Item struct {
	StartX   float64 `json:"start_x"`
	StartY   float64 `json:"start_y"`
	DriftX   float64 `json:"drift_x"`
	DriftY   float64 `json:"drift_y"`
	Duration float64 `json:"duration"` // seconds for one leg of the ping-pong loop
}

// Canvas describes the box items are packed into.
type Canvas struct {
	Width, Height  float64 // px
	Diameter       float64 // px
	Spacing        float64 // separation as a multiple of Diameter
	Focus          Point   // percent; the cloud is pulled toward it
	Rows, Cols     int
	JitterX        float64 // percent
	JitterY        float64 // percent
	Iterations     int
	RecenterPasses int
	MaxDrift       float64 // px, radial
	MaxTangential  float64 // px
	MinDuration    time.Duration
	MaxDuration    time.Duration
}

func DefaultCanvas() Canvas {
	return Canvas{
		Width:          700,
		Height:         450,
		Diameter:       112,
		Spacing:        1.15,
		Focus:          Point{X: 30, Y: 30},
		Rows:           3,
		Cols:           4,
		JitterX:        14,
		JitterY:        12,
		Iterations:     90,
		RecenterPasses: 3,
		MaxDrift:       140,
		MaxTangential:  140,
		MinDuration:    12 * time.Second,
		MaxDuration:    20 * time.Second,
	}
}

// Bounds returns the percent range an item center may occupy so the whole
// circle stays inside the canvas.
func (c Canvas) Bounds() (minX, maxX, minY, maxY float64) {
	r := c.Diameter / 2
	minX = r / c.Width * 100
	minY = r / c.Height * 100
	return minX, 100 - minX, minY, 100 - minY
}

// MinDistance is the required center separation in width-percent units.
func (c Canvas) MinDistance() float64 {
	return c.Diameter / c.Width * 100 * c.Spacing
}

// aspect converts a y-percent delta into width-percent units.
func (c Canvas) aspect() float64 {
	return c.Width / c.Height
}

// Pack lays out n items. It is pure given rng.
func Pack(n int, c Canvas, rng Source) []Item {
	if n <= 0 {
		return []Item{}
	}

	points := seed(n, c, rng)
	relax(points, c, rng)
	recenter(points, c)
	// Recentering clamps against the margins, which can squeeze points
	// back together.
	relax(points, c, rng)

	items := make([]Item, len(points))
	for i, p := range points {
		items[i] = drift(p, c, rng)
	}
	return items
}

func seed(n int, c Canvas, rng Source) []Point {
	minX, maxX, minY, maxY := c.Bounds()
	rows, cols := max(c.Rows, 1), max(c.Cols, 1)

	centers := make([]Point, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			centers = append(centers, Point{
				X: minX + (float64(col)+0.5)/float64(cols)*(maxX-minX),
				Y: minY + (float64(r)+0.5)/float64(rows)*(maxY-minY),
			})
		}
	}

	points := make([]Point, n)
	for i := range points {
		center := centers[i%len(centers)]
		points[i] = Point{
			X: clamp(center.X+between(rng, -c.JitterX, c.JitterX), minX, maxX),
			Y: clamp(center.Y+between(rng, -c.JitterY, c.JitterY), minY, maxY),
		}
	}
	return points
}

// relax pushes apart every pair closer than MinDistance, half the deficit
// each, until nothing moves or the iteration cap is hit.
func relax(points []Point, c Canvas, rng Source) {
	minX, maxX, minY, maxY := c.Bounds()
	minDist := c.MinDistance()
	scaleY := c.aspect()

	for iter := 0; iter < c.Iterations; iter++ {
		moved := false
		for i := 0; i < len(points); i++ {
			for j := i + 1; j < len(points); j++ {
				dx := points[i].X - points[j].X
				dy := (points[i].Y - points[j].Y) * scaleY
				dist := math.Hypot(dx, dy)

				switch {
				case dist == 0:
					angle := rng.Float64() * 2 * math.Pi
					nudge := minDist * 0.05
					points[i].X += math.Cos(angle) * nudge
					points[i].Y += math.Sin(angle) * nudge
					points[j].X -= math.Cos(angle) * nudge
					points[j].Y -= math.Sin(angle) * nudge
					moved = true
				case dist < minDist:
					push := (minDist - dist) / 2
					nx, ny := dx/dist, dy/dist
					points[i].X += nx * push
					points[i].Y += ny / scaleY * push
					points[j].X -= nx * push
					points[j].Y -= ny / scaleY * push
					moved = true
				}
			}
		}
		if !moved {
			return
		}
		for k := range points {
			points[k].X = clamp(points[k].X, minX, maxX)
			points[k].Y = clamp(points[k].Y, minY, maxY)
		}
	}
}

// recenter shifts the cloud so its centroid moves toward Focus. A fixed
// number of passes, since clamping stops it from converging exactly.
func recenter(points []Point, c Canvas) {
	minX, maxX, minY, maxY := c.Bounds()
	for pass := 0; pass < c.RecenterPasses; pass++ {
		centroid := Centroid(points)
		shiftX := c.Focus.X - centroid.X
		shiftY := c.Focus.Y - centroid.Y
		for k := range points {
			points[k].X = clamp(points[k].X+shiftX, minX, maxX)
			points[k].Y = clamp(points[k].Y+shiftY, minY, maxY)
		}
	}
}

// drift picks a radial (away from or toward Focus) and a tangential
// component, each bounded by the room left before the margin.
func drift(p Point, c Canvas, rng Source) Item {
	minX, maxX, minY, maxY := c.Bounds()
	startX := clamp(p.X, minX, maxX)
	startY := clamp(p.Y, minY, maxY)

	leftPx := (startX - minX) / 100 * c.Width
	rightPx := (maxX - startX) / 100 * c.Width
	topPx := (startY - minY) / 100 * c.Height
	bottomPx := (maxY - startY) / 100 * c.Height

	dxPx := (startX - c.Focus.X) / 100 * c.Width
	dyPx := (startY - c.Focus.Y) / 100 * c.Height
	length := math.Hypot(dxPx, dyPx)
	if length == 0 {
		length = 1
	}
	unitX, unitY := dxPx/length, dyPx/length

	outX, inX := rightPx, leftPx
	if dxPx < 0 {
		outX, inX = leftPx, rightPx
	}
	outY, inY := bottomPx, topPx
	if dyPx < 0 {
		outY, inY = topPx, bottomPx
	}

	outLimit := min(reach(outX, unitX), reach(outY, unitY), c.MaxDrift)
	inLimit := min(reach(inX, unitX), reach(inY, unitY), c.MaxDrift)

	floor := -inLimit * 0.3
	if outLimit < 20 {
		floor = -inLimit * 0.7
	}
	radial := between(rng, floor, outLimit)

	perpX, perpY := -unitY, unitX
	tanX := rightPx
	if perpX < 0 {
		tanX = leftPx
	}
	tanY := bottomPx
	if perpY < 0 {
		tanY = topPx
	}
	tanLimit := min(reach(tanX, perpX), reach(tanY, perpY), c.MaxTangential)
	tangential := between(rng, -tanLimit, tanLimit)

	driftX := clamp(unitX*radial+perpX*tangential, -leftPx, rightPx)
	driftY := clamp(unitY*radial+perpY*tangential, -topPx, bottomPx)

	return Item{
		StartX:   startX,
		StartY:   startY,
		DriftX:   driftX,
		DriftY:   driftY,
		Duration: between(rng, c.MinDuration.Seconds(), c.MaxDuration.Seconds()),
	}
}

func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sum Point
	for _, p := range points {
		sum.X += p.X
		sum.Y += p.Y
	}
	n := float64(len(points))
	return Point{X: sum.X / n, Y: sum.Y / n}
}

// reach is how far one may travel along a unit axis component before
// using up room px. Near-zero components are unconstrained.
func reach(room, component float64) float64 {
	if math.Abs(component) <= 0.001 {
		return math.Inf(1)
	}
	return room / math.Abs(component)
}

func between(rng Source, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
