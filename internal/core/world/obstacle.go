package world

import (
	"math"

	"github.com/google/uuid"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
)

// Motion tags an obstacle's kinematics variant. The arena stores all
// obstacles in one collection; "static" and "dynamic" are filters over the
// tag, not separate registries.
type Motion uint8

const (
	MotionStatic Motion = iota
	MotionLinear
	MotionCircular
)

func (m Motion) String() string {
	switch m {
	case MotionStatic:
		return "static"
	case MotionLinear:
		return "linear"
	case MotionCircular:
		return "circular"
	default:
		return "unknown"
	}
}

// DefaultObstacleRadius is half a grid cell, the collision footprint an
// obstacle gets when the scenario doesn't specify one.
const DefaultObstacleRadius = 0.5

// Obstacle is a tagged union over the three motion variants. Linear
// obstacles carry Speed and Direction; circular obstacles orbit Center at
// OrbitRadius with AngularSpeed. The initial pose is retained so Reset can
// restore it deterministically at simulation start.
type Obstacle struct {
	ID     uuid.UUID
	Motion Motion

	position geometry.Point
	radius   float64

	// linear motion
	speed     float64
	direction geometry.Vec2

	// circular motion
	center       geometry.Point
	orbitRadius  float64
	angularSpeed float64
	angle        float64

	// initial pose for Reset
	initialPosition     geometry.Point
	initialDirection    geometry.Vec2
	initialAngle        float64
	initialAngularSpeed float64

	// grid bounds used for boundary reflection
	width, height int
}

// NewStaticObstacle creates a fixed obstacle at position.
func NewStaticObstacle(position geometry.Point, radius float64) *Obstacle {
	if radius <= 0 {
		radius = DefaultObstacleRadius
	}
	return &Obstacle{
		ID:              uuid.New(),
		Motion:          MotionStatic,
		position:        position,
		radius:          radius,
		initialPosition: position,
	}
}

// NewLinearObstacle creates an obstacle moving in a straight line,
// reflecting off the grid boundary. Direction is normalized on entry.
func NewLinearObstacle(position geometry.Point, speed float64, direction geometry.Vec2, width, height int) *Obstacle {
	dir := direction.Normalize()
	return &Obstacle{
		ID:               uuid.New(),
		Motion:           MotionLinear,
		position:         position,
		radius:           DefaultObstacleRadius,
		speed:            speed,
		direction:        dir,
		initialPosition:  position,
		initialDirection: dir,
		width:            width,
		height:           height,
	}
}

// NewCircularObstacle creates an obstacle orbiting center. The starting
// angle is derived from the given position relative to the center, the way
// an editor places the obstacle where the user clicked.
func NewCircularObstacle(position, center geometry.Point, orbitRadius, angularSpeed float64, width, height int) *Obstacle {
	angle := math.Atan2(position.Y-center.Y, position.X-center.X)
	o := &Obstacle{
		ID:                  uuid.New(),
		Motion:              MotionCircular,
		radius:              DefaultObstacleRadius,
		center:              center,
		orbitRadius:         orbitRadius,
		angularSpeed:        angularSpeed,
		angle:               angle,
		initialAngle:        angle,
		initialAngularSpeed: angularSpeed,
		width:               width,
		height:              height,
	}
	o.position = o.orbitPosition(angle)
	o.initialPosition = o.position
	return o
}

// IsDynamic reports whether the obstacle moves.
func (o *Obstacle) IsDynamic() bool {
	return o.Motion != MotionStatic
}

// Position returns the obstacle's current continuous position.
func (o *Obstacle) Position() geometry.Point {
	return o.position
}

// Radius returns the collision radius.
func (o *Obstacle) Radius() float64 {
	return o.radius
}

// Center returns the orbit center (circular obstacles only).
func (o *Obstacle) Center() geometry.Point {
	return o.center
}

// OrbitRadius returns the orbit path radius (circular obstacles only).
func (o *Obstacle) OrbitRadius() float64 {
	return o.orbitRadius
}

// Direction returns the current unit direction (linear obstacles only).
func (o *Obstacle) Direction() geometry.Vec2 {
	return o.direction
}

// Speed returns the linear speed (linear obstacles only).
func (o *Obstacle) Speed() float64 {
	return o.speed
}

// Update advances the obstacle by dt. Boundary reflection is a pre-step
// correction: the next position is predicted first, and if its cell would
// leave the grid the motion sign flips before the obstacle advances, so it
// turns back at the wall instead of overshooting and sticking to it.
func (o *Obstacle) Update(dt float64) {
	switch o.Motion {
	case MotionLinear:
		o.updateLinear(dt)
	case MotionCircular:
		o.updateCircular(dt)
	}
}

func (o *Obstacle) updateLinear(dt float64) {
	next := o.PredictedPosition(dt)
	cell := next.Cell()

	reversed := false
	if cell.X < 0 || cell.X >= o.width {
		o.direction.X = -o.direction.X
		reversed = true
	}
	if cell.Y < 0 || cell.Y >= o.height {
		o.direction.Y = -o.direction.Y
		reversed = true
	}

	if reversed {
		o.position = o.position.Add(o.direction.Scale(o.speed * dt))
		return
	}
	o.position = next
}

func (o *Obstacle) updateCircular(dt float64) {
	next := o.PredictedPosition(dt)
	cell := next.Cell()

	if cell.X < 0 || cell.X >= o.width || cell.Y < 0 || cell.Y >= o.height {
		o.angularSpeed = -o.angularSpeed
	}
	o.angle = normalizeAngle(o.angle + o.angularSpeed*dt)
	o.position = o.orbitPosition(o.angle)
}

// PredictedPosition projects the obstacle t seconds ahead without
// mutating state. Used by the local planner for lookahead and by path
// validity checks.
func (o *Obstacle) PredictedPosition(t float64) geometry.Point {
	switch o.Motion {
	case MotionLinear:
		return o.position.Add(o.direction.Scale(o.speed * t))
	case MotionCircular:
		return o.orbitPosition(o.angle + o.angularSpeed*t)
	default:
		return o.position
	}
}

// Reset restores the initial pose recorded at construction.
func (o *Obstacle) Reset() {
	o.position = o.initialPosition
	o.direction = o.initialDirection
	o.angle = o.initialAngle
	if o.Motion == MotionCircular {
		o.angularSpeed = o.initialAngularSpeed
	}
}

// Intersects reports whether a circular agent at p overlaps the obstacle.
func (o *Obstacle) Intersects(p geometry.Point, agentRadius float64) bool {
	return o.position.DistanceTo(p) < o.radius+agentRadius
}

// BlocksCell reports whether the obstacle's collision circle covers the
// cell's lattice point.
func (o *Obstacle) BlocksCell(c geometry.Cell) bool {
	return o.position.DistanceTo(c.Point()) < o.radius
}

func (o *Obstacle) orbitPosition(angle float64) geometry.Point {
	return geometry.Point{
		X: o.center.X + o.orbitRadius*math.Cos(angle),
		Y: o.center.Y + o.orbitRadius*math.Sin(angle),
	}
}

// normalizeAngle wraps an angle into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
