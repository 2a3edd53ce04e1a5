package sim

import (
	"math/rand/v2"

	"github.com/pathglyph/pathglyph/internal/core/events/bus"
	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/observability/log"
	"github.com/pathglyph/pathglyph/internal/core/planning"
	"github.com/pathglyph/pathglyph/internal/core/world"
)

// State is the simulation lifecycle state.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event types published on the bus.
const (
	EventStarted     = "simulation.started"
	EventReset       = "simulation.reset"
	EventPathPlanned = "path.planned"
	EventUnreachable = "path.unreachable"
	EventGoalReached = "goal.reached"
)

const eventSource = "sim"

// Options tune the agent's motion envelope.
type Options struct {
	MaxSpeed         float64
	MaxRotationSpeed float64

	// TraceEpsilon is the minimum displacement before a new point is
	// appended to the traversed trace.
	TraceEpsilon float64

	// WaypointEpsilon is the snap distance to the final waypoint.
	WaypointEpsilon float64

	Local planning.LocalPlannerOptions
}

// DefaultOptions returns the stock agent tuning.
func DefaultOptions() Options {
	return Options{
		MaxSpeed:         5.0,
		MaxRotationSpeed: 2.0,
		TraceEpsilon:     0.01,
		WaypointEpsilon:  0.1,
		Local:            planning.DefaultLocalPlannerOptions(),
	}
}

// Simulation drives the agent along the global path using the local
// planner. It is tick-driven and single-threaded: the host calls
// Advance(dt) once per frame and serializes editor commands between
// ticks. All planning runs to completion inside the calling tick.
type Simulation struct {
	env    *world.Environment
	local  *planning.LocalPlanner
	logger log.Log
	events bus.EventBus
	opts   Options

	state    State
	velocity geometry.Vec2
	trace    []geometry.Point
	simTime  float64

	// plannedVersion is the environment plan version the stored path was
	// computed against; a stale version forces a replan.
	plannedVersion uint64

	// unreachableReported suppresses repeated no-path events until the
	// environment changes again.
	unreachableReported bool
}

// New creates a simulation over env. A nil rng leaves the local planner
// on a process-seeded generator; nil logger and bus fall back to no-op
// and a private bus.
func New(env *world.Environment, opts Options, logger log.Log, events bus.EventBus, rng *rand.Rand) *Simulation {
	if logger == nil {
		logger = log.NewNop()
	}
	if events == nil {
		events = bus.New()
	}
	return &Simulation{
		env:    env,
		local:  planning.NewLocalPlanner(opts.Local, rng),
		logger: logger.With(log.String("component", "sim")),
		events: events,
		opts:   opts,
	}
}

// Environment returns the simulated environment.
func (s *Simulation) Environment() *world.Environment { return s.env }

// State returns the current lifecycle state.
func (s *Simulation) State() State { return s.state }

// Time returns the accumulated simulation time in seconds.
func (s *Simulation) Time() float64 { return s.simTime }

// Velocity returns the agent's current velocity.
func (s *Simulation) Velocity() geometry.Vec2 { return s.velocity }

// Trace returns the traversed path recorded since Start.
func (s *Simulation) Trace() []geometry.Point { return s.trace }

// IsRunning reports whether the simulation is advancing the agent.
func (s *Simulation) IsRunning() bool { return s.state == StateRunning }

// Start transitions Idle -> Running. It is refused without error when the
// start or goal is unset or out of bounds, and is a no-op while already
// Running. Starting resets simulation time, the trace and every dynamic
// obstacle's pose, and places the agent on the start marker.
func (s *Simulation) Start() {
	start, goal := s.env.Start(), s.env.Goal()
	if start.IsInvalid() || goal.IsInvalid() || !s.env.InBounds(start) || !s.env.InBounds(goal) {
		s.logger.Warn("start refused: invalid start or goal",
			log.Any("start", start), log.Any("goal", goal))
		return
	}
	if s.state == StateRunning {
		return
	}

	s.simTime = 0
	s.trace = nil
	s.velocity = geometry.Vec2{}
	s.unreachableReported = false
	s.env.Reset()
	s.state = StateRunning

	s.logger.Info("simulation started",
		log.Any("start", start), log.Any("goal", goal))
	s.events.Publish(bus.NewEvent(EventStarted, eventSource, start))
}

// Reset returns to Idle from any state, clearing the trace and path and
// restoring obstacle initial poses. Calling it twice is the same as
// calling it once.
func (s *Simulation) Reset() {
	s.state = StateIdle
	s.simTime = 0
	s.trace = nil
	s.velocity = geometry.Vec2{}
	s.unreachableReported = false
	s.env.Reset()

	s.logger.Info("simulation reset")
	s.events.Publish(bus.NewEvent(EventReset, eventSource, nil))
}

// RequestReplan discards the current path and runs the global planner
// immediately. Usable from any state; the editor exposes it directly.
func (s *Simulation) RequestReplan() []geometry.Point {
	path := s.replan()
	return path
}

// Advance runs one simulation tick of dt seconds. Outside Running it does
// nothing.
func (s *Simulation) Advance(dt float64) {
	if s.state != StateRunning {
		return
	}
	s.simTime += dt

	// 1. obstacle kinematics; this invalidates the path if a cell on it
	// became blocked
	s.env.UpdateObstacles(dt)

	// 2. replan when no valid plan exists
	if !s.env.HasPath() || s.plannedVersion != s.env.PlanVersion() {
		s.replan()
	}

	// 3. no path: hold position, recoverable
	if !s.env.HasPath() {
		s.velocity = geometry.Vec2{}
		return
	}

	// 4. follow the path through the local planner
	s.followPath(dt)

	// 5. arrival check
	if s.env.HasReachedGoal() {
		s.state = StateFinished
		s.velocity = geometry.Vec2{}
		s.env.SetPath(s.trace)

		s.logger.Info("goal reached", log.Float64("time", s.simTime))
		s.events.Publish(bus.NewEvent(EventGoalReached, eventSource, s.simTime))
	}
}

func (s *Simulation) replan() []geometry.Point {
	path := planning.FindPath(s.env)
	s.plannedVersion = s.env.PlanVersion()

	if len(path) == 0 {
		if !s.unreachableReported {
			s.unreachableReported = true
			s.logger.Warn("no path to goal, agent holds position")
			s.events.Publish(bus.NewEvent(EventUnreachable, eventSource, nil))
		}
		return nil
	}

	s.unreachableReported = false
	s.logger.Debug("path planned",
		log.Int("waypoints", len(path)),
		log.Uint64("plan_version", s.plannedVersion))
	s.events.Publish(bus.NewEvent(EventPathPlanned, eventSource, path))
	return path
}

// followPath picks the next unreached waypoint, asks the local planner
// for a velocity biased toward it and integrates the agent position.
func (s *Simulation) followPath(dt float64) {
	path := s.env.Path()
	current := s.env.Current()

	// nearest point on path, then target the waypoint after it
	nearest := 0
	minDist := current.DistanceTo(path[0])
	for i := 1; i < len(path); i++ {
		if d := current.DistanceTo(path[i]); d < minDist {
			minDist = d
			nearest = i
		}
	}

	if nearest >= len(path)-1 && minDist < s.opts.WaypointEpsilon {
		// final waypoint underfoot: snap to the goal
		s.moveTo(s.env.Goal())
		s.velocity = geometry.Vec2{}
		return
	}

	next := nearest + 1
	if next >= len(path) {
		next = len(path) - 1
	}
	target := path[next]

	s.velocity = s.local.ChooseVelocity(s.env, current, s.velocity, target,
		s.opts.MaxSpeed, s.opts.MaxRotationSpeed)
	s.moveTo(current.Add(s.velocity.Scale(dt)))
}

func (s *Simulation) moveTo(p geometry.Point) {
	s.env.SetCurrent(p)
	if len(s.trace) == 0 || s.trace[len(s.trace)-1].DistanceTo(p) > s.opts.TraceEpsilon {
		s.trace = append(s.trace, p)
	}
}
