package world

import (
	"github.com/google/uuid"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/pkg/sequence"
)

const (
	// DefaultWidth and DefaultHeight size a fresh environment.
	DefaultWidth  = 50
	DefaultHeight = 50

	// RemoveTolerance is the default pick radius for RemoveObstacle.
	RemoveTolerance = 0.5

	// GoalThreshold is the arrival distance for HasReachedGoal.
	GoalThreshold = 0.5
)

// Environment owns the grid bounds, the start/goal/current positions, the
// obstacle arena and the last computed global path. It is mutated only by
// the tick driver and by editor commands the host serializes between
// ticks; it performs no locking of its own.
//
// Editor commands that would produce an invalid state (out-of-bounds
// point, obstacle under the start marker) are silently rejected: an
// invalid click simply has no effect.
type Environment struct {
	width  int
	height int

	start   geometry.Point
	goal    geometry.Point
	current geometry.Point

	obstacles []*Obstacle
	path      []geometry.Point

	// planVersion increments on every mutation that invalidates the
	// current path. The simulation replans when its cached version is
	// stale instead of relying on implicit clearing.
	planVersion uint64
}

// NewEnvironment creates an empty environment with unset start and goal.
func NewEnvironment(width, height int) *Environment {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Environment{
		width:   width,
		height:  height,
		start:   geometry.Invalid(),
		goal:    geometry.Invalid(),
		current: geometry.Invalid(),
	}
}

// Width returns the grid width in cells.
func (e *Environment) Width() int { return e.width }

// Height returns the grid height in cells.
func (e *Environment) Height() int { return e.height }

// Start returns the configured start point (sentinel when unset).
func (e *Environment) Start() geometry.Point { return e.start }

// Goal returns the configured goal point (sentinel when unset).
func (e *Environment) Goal() geometry.Point { return e.goal }

// Current returns the agent's live position.
func (e *Environment) Current() geometry.Point { return e.current }

// SetCurrent moves the agent. Only the simulation integration step should
// call this while running.
func (e *Environment) SetCurrent(p geometry.Point) { e.current = p }

// PlanVersion returns the current plan invalidation counter.
func (e *Environment) PlanVersion() uint64 { return e.planVersion }

// InBounds reports whether the rounded cell of p lies inside the grid.
func (e *Environment) InBounds(p geometry.Point) bool {
	return e.CellInBounds(p.Cell())
}

// CellInBounds reports whether c lies inside [0,width)x[0,height).
func (e *Environment) CellInBounds(c geometry.Cell) bool {
	return c.X >= 0 && c.X < e.width && c.Y >= 0 && c.Y < e.height
}

// IsObstacle reports whether any obstacle's collision circle covers the
// cell's lattice point.
func (e *Environment) IsObstacle(c geometry.Cell) bool {
	for _, o := range e.obstacles {
		if o.BlocksCell(c) {
			return true
		}
	}
	return false
}

// CheckCollision reports whether a circular agent at p overlaps any
// obstacle.
func (e *Environment) CheckCollision(p geometry.Point, agentRadius float64) bool {
	for _, o := range e.obstacles {
		if o.Intersects(p, agentRadius) {
			return true
		}
	}
	return false
}

// SetStart places the start marker and resets the agent onto it. Rejected
// when p is out of bounds or covered by an obstacle.
func (e *Environment) SetStart(p geometry.Point) {
	if !e.InBounds(p) || e.IsObstacle(p.Cell()) {
		return
	}
	e.start = p
	e.current = p
	e.invalidatePath()
}

// SetGoal places the goal marker. Rejected when p is out of bounds or
// covered by an obstacle.
func (e *Environment) SetGoal(p geometry.Point) {
	if !e.InBounds(p) || e.IsObstacle(p.Cell()) {
		return
	}
	e.goal = p
	e.invalidatePath()
}

// ClearStart unsets the start marker.
func (e *Environment) ClearStart() {
	e.start = geometry.Invalid()
	e.invalidatePath()
}

// ClearGoal unsets the goal marker.
func (e *Environment) ClearGoal() {
	e.goal = geometry.Invalid()
	e.invalidatePath()
}

// AddStaticObstacle places a fixed obstacle. Rejected when the position is
// out of bounds, already occupied, or under the start/goal marker.
func (e *Environment) AddStaticObstacle(p geometry.Point, radius float64) *Obstacle {
	if !e.placeable(p) {
		return nil
	}
	o := NewStaticObstacle(p, radius)
	e.obstacles = append(e.obstacles, o)
	e.invalidatePath()
	return o
}

// AddLinearObstacle places an obstacle moving along direction at speed,
// reflecting off grid boundaries.
func (e *Environment) AddLinearObstacle(p geometry.Point, speed float64, direction geometry.Vec2) *Obstacle {
	if !e.placeable(p) {
		return nil
	}
	o := NewLinearObstacle(p, speed, direction, e.width, e.height)
	e.obstacles = append(e.obstacles, o)
	e.invalidatePath()
	return o
}

// AddCircularObstacle places an obstacle orbiting center.
func (e *Environment) AddCircularObstacle(p, center geometry.Point, orbitRadius, angularSpeed float64) *Obstacle {
	if !e.placeable(p) {
		return nil
	}
	o := NewCircularObstacle(p, center, orbitRadius, angularSpeed, e.width, e.height)
	e.obstacles = append(e.obstacles, o)
	e.invalidatePath()
	return o
}

func (e *Environment) placeable(p geometry.Point) bool {
	if !e.InBounds(p) || e.IsObstacle(p.Cell()) {
		return false
	}
	// never bury the start or goal marker under an obstacle
	if !e.start.IsInvalid() && p.DistanceTo(e.start) < RemoveTolerance {
		return false
	}
	if !e.goal.IsInvalid() && p.DistanceTo(e.goal) < RemoveTolerance {
		return false
	}
	return true
}

// RemoveObstacle deletes every obstacle whose center lies within tolerance
// of p. A tolerance <= 0 falls back to RemoveTolerance. Returns the number
// removed.
func (e *Environment) RemoveObstacle(p geometry.Point, tolerance float64) int {
	if tolerance <= 0 {
		tolerance = RemoveTolerance
	}
	kept := e.obstacles[:0]
	removed := 0
	for _, o := range e.obstacles {
		if o.Position().DistanceTo(p) <= tolerance {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	e.obstacles = kept
	if removed > 0 {
		e.invalidatePath()
	}
	return removed
}

// RemoveObstacleByID deletes the obstacle with the given handle.
func (e *Environment) RemoveObstacleByID(id uuid.UUID) bool {
	for i, o := range e.obstacles {
		if o.ID == id {
			e.obstacles = append(e.obstacles[:i], e.obstacles[i+1:]...)
			e.invalidatePath()
			return true
		}
	}
	return false
}

// ClearObstacles empties the arena.
func (e *Environment) ClearObstacles() {
	e.obstacles = nil
	e.invalidatePath()
}

// Obstacles returns the whole arena.
func (e *Environment) Obstacles() []*Obstacle {
	return e.obstacles
}

// StaticObstacles returns the non-moving obstacles, for drawing.
func (e *Environment) StaticObstacles() []*Obstacle {
	return sequence.From(e.obstacles).
		Filter(func(o *Obstacle) bool { return !o.IsDynamic() }).
		Collect()
}

// DynamicObstacles returns the moving obstacles, for drawing and
// prediction.
func (e *Environment) DynamicObstacles() []*Obstacle {
	return sequence.From(e.obstacles).
		Filter(func(o *Obstacle) bool { return o.IsDynamic() }).
		Collect()
}

// UpdateObstacles advances every dynamic obstacle by dt. If the motion
// blocks a cell of the current path the path is invalidated, which bumps
// the plan version the simulation watches.
func (e *Environment) UpdateObstacles(dt float64) {
	for _, o := range e.obstacles {
		o.Update(dt)
	}
	if len(e.path) > 0 && e.PathBlocked() {
		e.invalidatePath()
	}
}

// ResetObstacles restores every dynamic obstacle to its initial pose.
func (e *Environment) ResetObstacles() {
	for _, o := range e.obstacles {
		o.Reset()
	}
}

// Path returns the last computed global path, empty when none exists.
func (e *Environment) Path() []geometry.Point {
	return e.path
}

// SetPath stores a freshly planned path.
func (e *Environment) SetPath(path []geometry.Point) {
	e.path = path
}

// ClearPath discards the stored path without touching the plan version.
func (e *Environment) ClearPath() {
	e.path = nil
}

// HasPath reports whether a non-empty path is stored.
func (e *Environment) HasPath() bool {
	return len(e.path) > 0
}

// PathBlocked reports whether any cell of the stored path is currently
// covered by an obstacle.
func (e *Environment) PathBlocked() bool {
	for _, p := range e.path {
		if e.IsObstacle(p.Cell()) {
			return true
		}
	}
	return false
}

// HasReachedGoal reports whether the agent is within the arrival
// threshold of the goal.
func (e *Environment) HasReachedGoal() bool {
	if e.goal.IsInvalid() {
		return false
	}
	return e.current.DistanceTo(e.goal) < GoalThreshold
}

// Reset restores obstacle initial poses and moves the agent back to the
// start marker.
func (e *Environment) Reset() {
	e.ResetObstacles()
	e.current = e.start
	e.invalidatePath()
}

func (e *Environment) invalidatePath() {
	e.path = nil
	e.planVersion++
}
