package packing

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func separation(c Canvas, a, b Item) float64 {
	return math.Hypot(a.StartX-b.StartX, (a.StartY-b.StartY)*c.aspect())
}

func TestPack_CountAndBounds(t *testing.T) {
	c := DefaultCanvas()
	minX, maxX, minY, maxY := c.Bounds()
	meta := NewRand(7)

	for trial := 0; trial < 60; trial++ {
		n := meta.IntN(41)
		seed := meta.Uint64()
		t.Run(fmt.Sprintf("n=%d/seed=%d", n, seed), func(t *testing.T) {
			items := Pack(n, c, NewRand(seed))
			require.Len(t, items, n)

			for i, it := range items {
				assert.GreaterOrEqual(t, it.StartX, minX-eps, "item %d x", i)
				assert.LessOrEqual(t, it.StartX, maxX+eps, "item %d x", i)
				assert.GreaterOrEqual(t, it.StartY, minY-eps, "item %d y", i)
				assert.LessOrEqual(t, it.StartY, maxY+eps, "item %d y", i)

				endX := it.StartX + it.DriftX/c.Width*100
				endY := it.StartY + it.DriftY/c.Height*100
				assert.GreaterOrEqual(t, endX, minX-eps, "item %d drift x", i)
				assert.LessOrEqual(t, endX, maxX+eps, "item %d drift x", i)
				assert.GreaterOrEqual(t, endY, minY-eps, "item %d drift y", i)
				assert.LessOrEqual(t, endY, maxY+eps, "item %d drift y", i)

				assert.GreaterOrEqual(t, it.Duration, c.MinDuration.Seconds())
				assert.LessOrEqual(t, it.Duration, c.MaxDuration.Seconds())
			}
		})
	}
}

func TestPack_SparseLayoutsDoNotOverlap(t *testing.T) {
	c := DefaultCanvas()
	minDist := c.MinDistance()

	for n := 2; n <= 6; n++ {
		for seed := uint64(1); seed <= 25; seed++ {
			items := Pack(n, c, NewRand(seed))
			for i := 0; i < len(items); i++ {
				for j := i + 1; j < len(items); j++ {
					d := separation(c, items[i], items[j])
					if d < minDist-1e-6 {
						t.Fatalf("n=%d seed=%d: items %d and %d are %.3f apart, want >= %.3f", n, seed, i, j, d, minDist)
					}
				}
			}
		}
	}
}

func TestPack_BiasedTowardFocus(t *testing.T) {
	c := DefaultCanvas()
	center := Point{X: 50, Y: 50}

	for n := 1; n <= 6; n++ {
		items := Pack(n, c, NewRand(uint64(n)))
		points := make([]Point, len(items))
		for i, it := range items {
			points[i] = Point{X: it.StartX, Y: it.StartY}
		}
		got := Centroid(points)

		toFocus := math.Hypot(got.X-c.Focus.X, got.Y-c.Focus.Y)
		toCenter := math.Hypot(got.X-center.X, got.Y-center.Y)
		assert.Less(t, toFocus, toCenter, "n=%d centroid %+v", n, got)
	}
}

func TestPack_DeterministicForSeed(t *testing.T) {
	c := DefaultCanvas()
	a := Pack(12, c, NewRand(99))
	b := Pack(12, c, NewRand(99))
	assert.Equal(t, a, b)
}

func TestPack_Empty(t *testing.T) {
	assert.Empty(t, Pack(0, DefaultCanvas(), NewRand(1)))
	assert.Empty(t, Pack(-3, DefaultCanvas(), NewRand(1)))
}

// fixedSource alternates two values so the coincident-point nudge has a
// known direction.
type fixedSource struct{ calls int }

func (z *fixedSource) Float64() float64 {
	z.calls++
	if z.calls%2 == 0 {
		return 0.5
	}
	return 0.25
}

func TestRelax_SeparatesCoincidentPoints(t *testing.T) {
	c := DefaultCanvas()
	points := []Point{{X: 40, Y: 40}, {X: 40, Y: 40}}
	relax(points, c, &fixedSource{})

	d := math.Hypot(points[0].X-points[1].X, (points[0].Y-points[1].Y)*c.aspect())
	assert.GreaterOrEqual(t, d, c.MinDistance()-1e-6)
}

func TestMemo_RecomputesOnlyWhenIdentityChanges(t *testing.T) {
	m := NewMemo(DefaultCanvas(), NewRand(3))

	first := m.Layout([]string{"/media/a.jpg", "/media/b.jpg"})
	again := m.Layout([]string{"/media/a.jpg", "/media/b.jpg"})
	require.Len(t, first, 2)
	assert.Same(t, &first[0], &again[0])

	other := m.Layout([]string{"/media/a.jpg", "/media/c.jpg"})
	require.Len(t, other, 2)
	assert.NotSame(t, &first[0], &other[0])

	assert.Empty(t, m.Layout(nil))
}
