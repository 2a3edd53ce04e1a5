package planning

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/world"
)

func seededPlanner(seed uint64) *LocalPlanner {
	return NewLocalPlanner(DefaultLocalPlannerOptions(), rand.New(rand.NewPCG(seed, seed)))
}

func TestChooseVelocityDeterministicWhenSeeded(t *testing.T) {
	env := world.NewEnvironment(20, 20)
	pos := geometry.Point{X: 5, Y: 5}
	target := geometry.Point{X: 15, Y: 15}

	a := seededPlanner(42).ChooseVelocity(env, pos, geometry.Vec2{}, target, 5, 2)
	b := seededPlanner(42).ChooseVelocity(env, pos, geometry.Vec2{}, target, 5, 2)
	assert.Equal(t, a, b)

	c := seededPlanner(43).ChooseVelocity(env, pos, geometry.Vec2{}, target, 5, 2)
	// different entropy almost certainly picks a different sample
	assert.NotEqual(t, a, c)
}

func TestChooseVelocityRespectsMaxSpeed(t *testing.T) {
	env := world.NewEnvironment(50, 50)
	pos := geometry.Point{X: 25, Y: 25}
	target := geometry.Point{X: 40, Y: 25}

	for seed := uint64(1); seed <= 10; seed++ {
		vel := seededPlanner(seed).ChooseVelocity(env, pos, geometry.Vec2{X: 1, Y: 0}, target, 3, 2)
		assert.LessOrEqual(t, vel.Length(), 3.0+1e-9, "seed %d", seed)
	}
}

func TestChooseVelocityMovesTowardTarget(t *testing.T) {
	env := world.NewEnvironment(50, 50)
	pos := geometry.Point{X: 25, Y: 25}
	target := geometry.Point{X: 35, Y: 25}

	vel := seededPlanner(7).ChooseVelocity(env, pos, geometry.Vec2{}, target, 3, 2)
	require.False(t, vel.IsZero())
	// the winning candidate points into the target half-plane
	assert.Positive(t, vel.X)
}

func TestChosenTrajectoryNeverCollides(t *testing.T) {
	opts := DefaultLocalPlannerOptions()
	env := world.NewEnvironment(20, 20)
	// a wall of obstacles directly between agent and target
	for y := 3.0; y <= 7.0; y++ {
		require.NotNil(t, env.AddStaticObstacle(geometry.Point{X: 7, Y: y}, 0))
	}

	pos := geometry.Point{X: 5, Y: 5}
	target := geometry.Point{X: 12, Y: 5}

	for seed := uint64(1); seed <= 20; seed++ {
		planner := NewLocalPlanner(opts, rand.New(rand.NewPCG(seed, seed)))
		vel := planner.ChooseVelocity(env, pos, geometry.Vec2{}, target, 3, 2)

		// replay the rollout: no point may collide or leave the grid
		for i := 0; i <= opts.RolloutSteps; i++ {
			tm := float64(i) / float64(opts.RolloutSteps) * opts.PredictionHorizon
			p := pos.Add(vel.Scale(tm))
			require.True(t, env.InBounds(p), "seed %d: rollout leaves grid at %+v", seed, p)
			require.False(t, env.CheckCollision(p, opts.AgentRadius),
				"seed %d: rollout collides at %+v", seed, p)
		}
	}
}

func TestChooseVelocityHoldsWhenTargetReached(t *testing.T) {
	env := world.NewEnvironment(10, 10)
	pos := geometry.Point{X: 5, Y: 5}
	target := geometry.Point{X: 5.05, Y: 5}

	vel := seededPlanner(1).ChooseVelocity(env, pos, geometry.Vec2{X: 1, Y: 0}, target, 5, 2)
	assert.True(t, vel.IsZero(), "within arrival epsilon the agent holds position")
}

func TestChooseVelocityBoxedInHolds(t *testing.T) {
	env := world.NewEnvironment(10, 10)
	// agent boxed in by obstacles on every side; every moving candidate
	// is rejected and only the hold-position baseline survives
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			env.AddStaticObstacle(geometry.Point{X: float64(5 + dx), Y: float64(5 + dy)}, 0)
		}
	}

	pos := geometry.Point{X: 5, Y: 5}
	vel := seededPlanner(3).ChooseVelocity(env, pos, geometry.Vec2{}, geometry.Point{X: 9, Y: 5}, 5, 2)
	assert.True(t, vel.IsZero(), "no safe trajectory exists, the agent must hold")
}

func TestDynamicObstaclePredictionRejectsFutureCollision(t *testing.T) {
	opts := DefaultLocalPlannerOptions()
	env := world.NewEnvironment(30, 30)
	// crosses the agent's straight line to the target about one second in
	env.AddLinearObstacle(geometry.Point{X: 10, Y: 12}, 2.0, geometry.Vec2{X: 0, Y: -1})

	pos := geometry.Point{X: 8, Y: 10}
	target := geometry.Point{X: 14, Y: 10}

	for seed := uint64(1); seed <= 10; seed++ {
		planner := NewLocalPlanner(opts, rand.New(rand.NewPCG(seed, seed)))
		vel := planner.ChooseVelocity(env, pos, geometry.Vec2{}, target, 3, 2)

		obstacle := env.DynamicObstacles()[0]
		for i := 0; i <= opts.RolloutSteps; i++ {
			tm := float64(i) / float64(opts.RolloutSteps) * opts.PredictionHorizon
			p := pos.Add(vel.Scale(tm))
			gap := p.DistanceTo(obstacle.PredictedPosition(tm)) - obstacle.Radius()
			require.GreaterOrEqual(t, gap, opts.AgentRadius-1e-9,
				"seed %d: trajectory meets the obstacle where it will be", seed)
		}
	}
}
