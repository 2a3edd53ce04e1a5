package config

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
)

const scenarioYAML = `
name: crossing
width: 20
height: 15
start: {x: 1, y: 1}
goal: {x: 18, y: 13}
seed: 99
agent:
  max_speed: 3.5
  sample_count: 40
static_obstacles:
  - {x: 5, y: 5}
  - {x: 6, y: 5, radius: 0.8}
dynamic_obstacles:
  - {x: 10, y: 2, movement_type: linear, speed: 1.5, direction: {x: 0, y: 1}}
  - {x: 12, y: 7, movement_type: circular, center: {x: 10, y: 7}, radius: 2, angular_speed: 0.5}
`

func TestLoadYAML(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "crossing", s.Name)
	assert.Equal(t, 20, s.Width)
	assert.Equal(t, 15, s.Height)
	require.NotNil(t, s.Start)
	assert.True(t, s.Start.Equals(geometry.Point{X: 1, Y: 1}))
	assert.Equal(t, uint64(99), s.Seed)
	assert.Len(t, s.StaticObstacles, 2)
	assert.Len(t, s.DynamicObstacles, 2)
	assert.Equal(t, "circular", s.DynamicObstacles[1].MovementType)
}

func TestLoadJSON(t *testing.T) {
	in := `{
		"name": "slalom",
		"width": 10,
		"height": 10,
		"static_obstacles": [{"x": 4, "y": 4, "radius": 0.5}]
	}`
	s, err := LoadJSON(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "slalom", s.Name)
	assert.Len(t, s.StaticObstacles, 1)
	assert.Nil(t, s.Start, "unset start stays nil until Apply")
}

func TestLoadJSONMalformed(t *testing.T) {
	_, err := LoadJSON(strings.NewReader(`{"name": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode scenario json")
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{
			"nan start",
			func(s *Scenario) { s.Start = &geometry.Point{X: math.NaN(), Y: 1} },
			"non-finite",
		},
		{
			"negative static radius",
			func(s *Scenario) {
				s.StaticObstacles = []StaticObstacleConfig{{X: 1, Y: 1, Radius: -1}}
			},
			"negative radius",
		},
		{
			"linear without direction",
			func(s *Scenario) {
				s.DynamicObstacles = []DynamicObstacleConfig{{X: 1, Y: 1, MovementType: "linear", Speed: 1}}
			},
			"non-zero direction",
		},
		{
			"circular without center",
			func(s *Scenario) {
				s.DynamicObstacles = []DynamicObstacleConfig{{X: 1, Y: 1, MovementType: "circular", Radius: 2}}
			},
			"needs a center",
		},
		{
			"unknown movement type",
			func(s *Scenario) {
				s.DynamicObstacles = []DynamicObstacleConfig{{X: 1, Y: 1, MovementType: "zigzag"}}
			},
			"unknown movement type",
		},
		{
			"negative agent radius",
			func(s *Scenario) { s.Agent.Radius = -0.5 },
			"agent radius",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Scenario{Name: "broken", Width: 10, Height: 10}
			tc.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestApplyDefaultsCorners(t *testing.T) {
	s := &Scenario{Name: "bare", Width: 12, Height: 8}
	env := s.Apply()

	assert.Equal(t, 12, env.Width())
	assert.Equal(t, 8, env.Height())
	assert.True(t, env.Start().Equals(geometry.Point{X: 0, Y: 0}))
	assert.True(t, env.Goal().Equals(geometry.Point{X: 11, Y: 7}))
}

func TestApplyPlacesObstacles(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(scenarioYAML))
	require.NoError(t, err)

	env := s.Apply()
	assert.Len(t, env.StaticObstacles(), 2)
	assert.Len(t, env.DynamicObstacles(), 2)
	assert.True(t, env.Start().Equals(geometry.Point{X: 1, Y: 1}))
}

func TestOptionsFallBackToDefaults(t *testing.T) {
	s := &Scenario{Name: "tuned", Agent: AgentConfig{MaxSpeed: 3.5, SampleCount: 40}}
	opts := s.Options()

	assert.Equal(t, 3.5, opts.MaxSpeed)
	assert.Equal(t, 40, opts.Local.SampleCount)
	assert.Equal(t, 2.0, opts.MaxRotationSpeed, "unset fields keep the default")
	assert.Equal(t, 0.5, opts.Local.AgentRadius)
}

func TestSamplerSeed(t *testing.T) {
	explicit := &Scenario{Name: "a", Seed: 7}
	assert.Equal(t, uint64(7), explicit.SamplerSeed())

	derived := &Scenario{Name: "a"}
	assert.NotZero(t, derived.SamplerSeed())
	assert.Equal(t, derived.SamplerSeed(), (&Scenario{Name: "a"}).SamplerSeed(),
		"same name derives the same seed")
	assert.NotEqual(t, derived.SamplerSeed(), (&Scenario{Name: "b"}).SamplerSeed())
}
