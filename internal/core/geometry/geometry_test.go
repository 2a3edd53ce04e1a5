package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointCellRounding(t *testing.T) {
	cases := []struct {
		point Point
		cell  Cell
	}{
		{Point{X: 0, Y: 0}, Cell{X: 0, Y: 0}},
		{Point{X: 0.4, Y: 0.4}, Cell{X: 0, Y: 0}},
		{Point{X: 0.6, Y: 1.5}, Cell{X: 1, Y: 2}},
		{Point{X: -0.4, Y: -0.4}, Cell{X: 0, Y: 0}},
		{Point{X: 9.49, Y: 9.51}, Cell{X: 9, Y: 10}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.cell, tc.point.Cell(), "point %+v", tc.point)
	}
}

func TestPointEquality(t *testing.T) {
	p := Point{X: 1, Y: 2}
	assert.True(t, p.Equals(Point{X: 1 + 1e-9, Y: 2 - 1e-9}))
	assert.False(t, p.Equals(Point{X: 1.001, Y: 2}))
}

func TestInvalidSentinel(t *testing.T) {
	assert.True(t, Invalid().IsInvalid())
	assert.False(t, Point{X: 0, Y: 0}.IsInvalid())
}

func TestCellAdjacency(t *testing.T) {
	c := Cell{X: 3, Y: 3}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			neighbor := Cell{X: c.X + dx, Y: c.Y + dy}
			if dx == 0 && dy == 0 {
				assert.False(t, c.IsAdjacent(neighbor), "cell is not adjacent to itself")
				continue
			}
			assert.True(t, c.IsAdjacent(neighbor), "neighbor %+v", neighbor)
		}
	}
	assert.False(t, c.IsAdjacent(Cell{X: 5, Y: 3}))
}

func TestVecNormalize(t *testing.T) {
	v := Vec2{X: 3, Y: 4}
	n := v.Normalize()
	require.InDelta(t, 1.0, n.Length(), 1e-9)
	assert.InDelta(t, 0.6, n.X, 1e-9)
	assert.InDelta(t, 0.8, n.Y, 1e-9)

	assert.True(t, (Vec2{}).Normalize().IsZero(), "zero vector normalizes to zero")
}

func TestFromPolar(t *testing.T) {
	v := FromPolar(2, math.Pi/2)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, 2, v.Y, 1e-9)
	assert.InDelta(t, math.Pi/2, v.Heading(), 1e-9)
}

func TestDistanceTo(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}
	assert.InDelta(t, 5, a.DistanceTo(b), 1e-9)
	assert.InDelta(t, 5, b.DistanceTo(a), 1e-9)
}
