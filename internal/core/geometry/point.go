package geometry

import "math"

// Epsilon is the distance below which two points are considered equal.
// Coordinates are continuous, so exact float comparison is never used.
const Epsilon = 1e-6

// Point is a continuous 2D coordinate. The same type carries both the
// agent's live position and the logical identity of a grid cell (a cell is
// the lattice point nearest to it).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Invalid returns the sentinel point marking an unset start/goal.
func Invalid() Point {
	return Point{X: -1, Y: -1}
}

// IsInvalid reports whether p is the unset sentinel.
func (p Point) IsInvalid() bool {
	return p.Equals(Invalid())
}

// DistanceTo returns the Euclidean distance between p and other.
func (p Point) DistanceTo(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Equals collapses near-duplicate floating coordinates.
func (p Point) Equals(other Point) bool {
	return p.DistanceTo(other) < Epsilon
}

// Cell rounds p to the nearest integer lattice cell.
func (p Point) Cell() Cell {
	return Cell{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// Add returns p displaced by v.
func (p Point) Add(v Vec2) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// VectorTo returns the displacement vector from p to other.
func (p Point) VectorTo(other Point) Vec2 {
	return Vec2{X: other.X - p.X, Y: other.Y - p.Y}
}

// Cell is an integer grid cell.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Point returns the continuous coordinate of the cell's lattice point.
func (c Cell) Point() Point {
	return Point{X: float64(c.X), Y: float64(c.Y)}
}

// IsAdjacent reports whether other is reachable from c by one king move.
// A cell is not adjacent to itself.
func (c Cell) IsAdjacent(other Cell) bool {
	dx := abs(c.X - other.X)
	dy := abs(c.Y - other.Y)
	return dx <= 1 && dy <= 1 && (dx+dy) > 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
