package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/world"
)

func newEnv(t *testing.T, width, height int, start, goal geometry.Point) *world.Environment {
	t.Helper()
	env := world.NewEnvironment(width, height)
	env.SetStart(start)
	env.SetGoal(goal)
	require.False(t, env.Start().IsInvalid())
	require.False(t, env.Goal().IsInvalid())
	return env
}

func TestFindPathDiagonal(t *testing.T) {
	env := newEnv(t, 10, 10, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 9, Y: 9})

	path := FindPath(env)
	require.Len(t, path, 10)
	for i, p := range path {
		assert.True(t, p.Equals(geometry.Point{X: float64(i), Y: float64(i)}),
			"waypoint %d should be (%d,%d), got %+v", i, i, i, p)
	}
	assert.Equal(t, path, env.Path(), "path is stored on the environment")
}

func TestFindPathChebyshevOptimalOnEmptyGrid(t *testing.T) {
	cases := []struct {
		start, goal geometry.Point
	}{
		{geometry.Point{X: 0, Y: 0}, geometry.Point{X: 9, Y: 9}},
		{geometry.Point{X: 0, Y: 0}, geometry.Point{X: 9, Y: 0}},
		{geometry.Point{X: 2, Y: 3}, geometry.Point{X: 7, Y: 5}},
		{geometry.Point{X: 8, Y: 1}, geometry.Point{X: 1, Y: 6}},
		{geometry.Point{X: 4, Y: 4}, geometry.Point{X: 4, Y: 4}},
	}
	for _, tc := range cases {
		env := newEnv(t, 10, 10, tc.start, tc.goal)
		path := FindPath(env)

		dx := abs(int(tc.goal.X) - int(tc.start.X))
		dy := abs(int(tc.goal.Y) - int(tc.start.Y))
		want := max(dx, dy) + 1
		assert.Len(t, path, want, "start %+v goal %+v", tc.start, tc.goal)
		assertKingMoves(t, path)
	}
}

func TestFindPathDetoursAroundObstacle(t *testing.T) {
	env := newEnv(t, 10, 10, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 9, Y: 9})
	env.AddStaticObstacle(geometry.Point{X: 5, Y: 5}, 0)

	path := FindPath(env)
	require.NotEmpty(t, path)
	assert.Greater(t, len(path), 10, "the straight diagonal is blocked, so the path detours")
	for _, p := range path {
		assert.NotEqual(t, geometry.Cell{X: 5, Y: 5}, p.Cell())
	}
	assertKingMoves(t, path)
}

func TestFindPathSoundness(t *testing.T) {
	env := newEnv(t, 20, 20, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 19, Y: 19})
	for _, p := range []geometry.Point{
		{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 5, Y: 3},
		{X: 10, Y: 10}, {X: 10, Y: 11}, {X: 11, Y: 10},
		{X: 15, Y: 2}, {X: 2, Y: 15},
	} {
		require.NotNil(t, env.AddStaticObstacle(p, 0))
	}

	path := FindPath(env)
	require.NotEmpty(t, path)
	for _, p := range path {
		assert.False(t, env.IsObstacle(p.Cell()), "path crosses blocked cell %+v", p.Cell())
	}
	assertKingMoves(t, path)
}

func TestFindPathEnclosedGoal(t *testing.T) {
	env := newEnv(t, 10, 10, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 5, Y: 5})
	// wall off the goal completely
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			require.NotNil(t, env.AddStaticObstacle(geometry.Point{X: float64(5 + dx), Y: float64(5 + dy)}, 0))
		}
	}

	path := FindPath(env)
	assert.Empty(t, path, "fully enclosed goal has no route")
	assert.False(t, env.HasPath())
}

func TestFindPathUnsetEndpoints(t *testing.T) {
	env := world.NewEnvironment(10, 10)
	assert.Empty(t, FindPath(env))

	env.SetStart(geometry.Point{X: 0, Y: 0})
	assert.Empty(t, FindPath(env), "goal still unset")
}

func TestFindPathIdempotent(t *testing.T) {
	env := newEnv(t, 10, 10, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 9, Y: 9})
	first := FindPath(env)
	second := FindPath(env)
	assert.Equal(t, first, second, "unchanged environment replans identically")
}

func TestFindPathStartsAtCurrentCell(t *testing.T) {
	env := newEnv(t, 10, 10, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 9, Y: 9})
	// the agent has wandered off the start marker
	env.SetCurrent(geometry.Point{X: 4.2, Y: 3.8})

	path := FindPath(env)
	require.NotEmpty(t, path)
	assert.Equal(t, geometry.Cell{X: 4, Y: 4}, path[0].Cell())
	assert.Equal(t, geometry.Cell{X: 9, Y: 9}, path[len(path)-1].Cell())
}

func assertKingMoves(t *testing.T, path []geometry.Point) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		assert.True(t, path[i-1].Cell().IsAdjacent(path[i].Cell()),
			"step %d: %+v -> %+v is not a king move", i, path[i-1], path[i])
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
