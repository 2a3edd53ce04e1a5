package server

import (
	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/sim"
	"github.com/pathglyph/pathglyph/internal/core/world"
)

// Command is an editor command received from a client. The host queues
// commands and applies them between ticks, so the core is never mutated
// concurrently with Advance.
type Command struct {
	Type string `json:"type"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// add_static
	Radius float64 `json:"radius,omitempty"`

	// add_dynamic
	MovementType string          `json:"movement_type,omitempty"`
	Speed        float64         `json:"speed,omitempty"`
	Direction    *geometry.Vec2  `json:"direction,omitempty"`
	Center       *geometry.Point `json:"center,omitempty"`
	AngularSpeed float64         `json:"angular_speed,omitempty"`

	// remove
	Tolerance float64 `json:"tolerance,omitempty"`
}

// Command types accepted over the wire.
const (
	CmdSetStart   = "set_start"
	CmdSetGoal    = "set_goal"
	CmdAddStatic  = "add_static"
	CmdAddDynamic = "add_dynamic"
	CmdRemove     = "remove"
	CmdReplan     = "replan"
	CmdStart      = "start"
	CmdReset      = "reset"
)

// ObstacleView is the drawable state of one obstacle.
type ObstacleView struct {
	Position geometry.Point `json:"position"`
	Radius   float64        `json:"radius"`
	Movement string         `json:"movement"`
}

// Snapshot is the per-tick state published to every client: everything
// the rendering layer needs to draw a frame.
type Snapshot struct {
	Type             string           `json:"type"`
	State            string           `json:"state"`
	Time             float64          `json:"time"`
	Agent            geometry.Point   `json:"agent"`
	Start            geometry.Point   `json:"start"`
	Goal             geometry.Point   `json:"goal"`
	Path             []geometry.Point `json:"path"`
	StaticObstacles  []ObstacleView   `json:"static_obstacles"`
	DynamicObstacles []ObstacleView   `json:"dynamic_obstacles"`
}

// EventMessage forwards a core event to clients.
type EventMessage struct {
	Type  string `json:"type"`
	Event string `json:"event"`
}

func makeSnapshot(s *sim.Simulation) Snapshot {
	env := s.Environment()
	return Snapshot{
		Type:             "snapshot",
		State:            s.State().String(),
		Time:             s.Time(),
		Agent:            env.Current(),
		Start:            env.Start(),
		Goal:             env.Goal(),
		Path:             env.Path(),
		StaticObstacles:  obstacleViews(env.StaticObstacles()),
		DynamicObstacles: obstacleViews(env.DynamicObstacles()),
	}
}

func obstacleViews(obstacles []*world.Obstacle) []ObstacleView {
	views := make([]ObstacleView, len(obstacles))
	for i, o := range obstacles {
		views[i] = ObstacleView{
			Position: o.Position(),
			Radius:   o.Radius(),
			Movement: o.Motion.String(),
		}
	}
	return views
}
