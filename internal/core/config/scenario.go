package config

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/sim"
	"github.com/pathglyph/pathglyph/internal/core/world"
)

// Scenario is a structured description of an environment and its agent
// tuning, loadable from JSON or YAML. Missing optional fields fall back
// to component defaults rather than failing the whole load; malformed
// values (NaN coordinates, negative radii, unknown movement types) fail
// validation before anything is applied.
type Scenario struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`

	Start *geometry.Point `json:"start,omitempty" yaml:"start,omitempty"`
	Goal  *geometry.Point `json:"goal,omitempty" yaml:"goal,omitempty"`

	// Seed pins the local planner's sampler; when zero a deterministic
	// seed is derived from the scenario name.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Agent AgentConfig `json:"agent,omitempty" yaml:"agent,omitempty"`

	StaticObstacles  []StaticObstacleConfig  `json:"static_obstacles,omitempty" yaml:"static_obstacles,omitempty"`
	DynamicObstacles []DynamicObstacleConfig `json:"dynamic_obstacles,omitempty" yaml:"dynamic_obstacles,omitempty"`
}

// AgentConfig tunes the simulated agent. Zero values fall back to the
// simulation defaults.
type AgentConfig struct {
	MaxSpeed         float64 `json:"max_speed,omitempty" yaml:"max_speed,omitempty"`
	MaxRotationSpeed float64 `json:"max_rotation_speed,omitempty" yaml:"max_rotation_speed,omitempty"`
	Radius           float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	SampleCount      int     `json:"sample_count,omitempty" yaml:"sample_count,omitempty"`
}

// StaticObstacleConfig places a fixed obstacle.
type StaticObstacleConfig struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Radius float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// DynamicObstacleConfig places a moving obstacle. MovementType selects
// the variant: "linear" uses Speed and Direction, "circular" uses Center,
// Radius (orbit) and AngularSpeed.
type DynamicObstacleConfig struct {
	X            float64         `json:"x" yaml:"x"`
	Y            float64         `json:"y" yaml:"y"`
	MovementType string          `json:"movement_type" yaml:"movement_type"`
	Speed        float64         `json:"speed,omitempty" yaml:"speed,omitempty"`
	Direction    *geometry.Vec2  `json:"direction,omitempty" yaml:"direction,omitempty"`
	Center       *geometry.Point `json:"center,omitempty" yaml:"center,omitempty"`
	Radius       float64         `json:"radius,omitempty" yaml:"radius,omitempty"`
	AngularSpeed float64         `json:"angular_speed,omitempty" yaml:"angular_speed,omitempty"`
}

// LoadJSON loads a scenario from a JSON reader.
func LoadJSON(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario json: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadYAML loads a scenario from a YAML reader.
func LoadYAML(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate fails fast on values that indicate a broken scenario file.
// Invariant violations must never survive past the configuration
// boundary; mid-simulation code assumes clean inputs.
func (s *Scenario) Validate() error {
	if s.Start != nil && (isBad(s.Start.X) || isBad(s.Start.Y)) {
		return fmt.Errorf("scenario %q: start has non-finite coordinates", s.Name)
	}
	if s.Goal != nil && (isBad(s.Goal.X) || isBad(s.Goal.Y)) {
		return fmt.Errorf("scenario %q: goal has non-finite coordinates", s.Name)
	}
	for i, o := range s.StaticObstacles {
		if isBad(o.X) || isBad(o.Y) {
			return fmt.Errorf("scenario %q: static obstacle %d has non-finite coordinates", s.Name, i)
		}
		if o.Radius < 0 {
			return fmt.Errorf("scenario %q: static obstacle %d has negative radius", s.Name, i)
		}
	}
	for i, o := range s.DynamicObstacles {
		if isBad(o.X) || isBad(o.Y) {
			return fmt.Errorf("scenario %q: dynamic obstacle %d has non-finite coordinates", s.Name, i)
		}
		if o.Radius < 0 {
			return fmt.Errorf("scenario %q: dynamic obstacle %d has negative radius", s.Name, i)
		}
		switch o.MovementType {
		case "linear":
			if o.Direction == nil || o.Direction.IsZero() {
				return fmt.Errorf("scenario %q: linear obstacle %d needs a non-zero direction", s.Name, i)
			}
		case "circular":
			if o.Center == nil {
				return fmt.Errorf("scenario %q: circular obstacle %d needs a center", s.Name, i)
			}
		default:
			return fmt.Errorf("scenario %q: dynamic obstacle %d has unknown movement type %q", s.Name, i, o.MovementType)
		}
	}
	if s.Agent.Radius < 0 {
		return fmt.Errorf("scenario %q: agent radius is negative", s.Name)
	}
	return nil
}

// Apply builds a fresh environment from the scenario. Start and goal
// default to the grid corners when unset, matching the editor's initial
// state.
func (s *Scenario) Apply() *world.Environment {
	env := world.NewEnvironment(s.Width, s.Height)

	start := geometry.Point{X: 0, Y: 0}
	if s.Start != nil {
		start = *s.Start
	}
	goal := geometry.Point{X: float64(env.Width() - 1), Y: float64(env.Height() - 1)}
	if s.Goal != nil {
		goal = *s.Goal
	}
	env.SetStart(start)
	env.SetGoal(goal)

	for _, o := range s.StaticObstacles {
		env.AddStaticObstacle(geometry.Point{X: o.X, Y: o.Y}, o.Radius)
	}
	for _, o := range s.DynamicObstacles {
		pos := geometry.Point{X: o.X, Y: o.Y}
		switch o.MovementType {
		case "linear":
			env.AddLinearObstacle(pos, o.Speed, *o.Direction)
		case "circular":
			env.AddCircularObstacle(pos, *o.Center, o.Radius, o.AngularSpeed)
		}
	}
	return env
}

// Options maps the agent tuning onto simulation options, leaving unset
// values on their defaults.
func (s *Scenario) Options() sim.Options {
	opts := sim.DefaultOptions()
	if s.Agent.MaxSpeed > 0 {
		opts.MaxSpeed = s.Agent.MaxSpeed
	}
	if s.Agent.MaxRotationSpeed > 0 {
		opts.MaxRotationSpeed = s.Agent.MaxRotationSpeed
	}
	if s.Agent.Radius > 0 {
		opts.Local.AgentRadius = s.Agent.Radius
	}
	if s.Agent.SampleCount > 0 {
		opts.Local.SampleCount = s.Agent.SampleCount
	}
	return opts
}

// SamplerSeed returns the seed for the local planner's generator: the
// explicit seed when set, otherwise a hash of the scenario name so the
// same file always replays the same sampling.
func (s *Scenario) SamplerSeed() uint64 {
	if s.Seed != 0 {
		return s.Seed
	}
	return xxhash.Sum64String(s.Name)
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
