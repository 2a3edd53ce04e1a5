package geometry

import "math"

// Vec2 is a 2D velocity/direction vector.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// FromPolar builds a vector from a magnitude and a heading in radians.
func FromPolar(magnitude, heading float64) Vec2 {
	return Vec2{X: magnitude * math.Cos(heading), Y: magnitude * math.Sin(heading)}
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Scale returns v multiplied by factor.
func (v Vec2) Scale(factor float64) Vec2 {
	return Vec2{X: v.X * factor, Y: v.Y * factor}
}

// Dot returns the dot product of v and other.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Length returns the Euclidean magnitude of v.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns the unit vector in v's direction, zero-safe.
func (v Vec2) Normalize() Vec2 {
	mag := v.Length()
	if mag == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / mag, Y: v.Y / mag}
}

// Heading returns the angle of v in radians.
func (v Vec2) Heading() float64 {
	return math.Atan2(v.Y, v.X)
}

// IsZero reports whether both components are below Epsilon.
func (v Vec2) IsZero() bool {
	return v.Length() < Epsilon
}
