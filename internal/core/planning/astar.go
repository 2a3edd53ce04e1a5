package planning

import (
	"math"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/world"
	"github.com/pathglyph/pathglyph/pkg/sequence"
)

// neighborhood of a cell: the four axis moves followed by the four
// diagonals, each paired with its step cost.
var neighborMoves = [8]struct {
	dx, dy int
	cost   float64
}{
	{-1, 0, 1.0}, {1, 0, 1.0}, {0, -1, 1.0}, {0, 1, 1.0},
	{-1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {1, 1, math.Sqrt2},
}

type astarNode struct {
	cell   geometry.Cell
	g      float64
	parent *astarNode
}

// FindPath runs 8-connected A* from the agent's current cell to the goal
// cell and stores the result on the environment. An empty path means no
// route currently exists; that is a queryable condition, not an error.
//
// Cells are marked visited when they are generated, not when they are
// popped. A cheaper route to an already-generated cell discovered later is
// therefore ignored. This trades strict optimality for never expanding a
// cell twice; returned paths are still Chebyshev-optimal in cell count on
// obstacle-free grids.
//
// Any previously stored path is cleared before searching, so the call is
// idempotent on an unchanged environment.
func FindPath(env *world.Environment) []geometry.Point {
	env.ClearPath()

	if env.Current().IsInvalid() || env.Goal().IsInvalid() {
		return nil
	}
	start := env.Current().Cell()
	goal := env.Goal().Cell()
	if !env.CellInBounds(start) || !env.CellInBounds(goal) {
		return nil
	}

	visited := make([]bool, env.Width()*env.Height())
	index := func(c geometry.Cell) int { return c.Y*env.Width() + c.X }

	open := sequence.NewPriorityQueue[*astarNode]()
	startNode := &astarNode{cell: start}
	open.Enqueue(startNode, heuristic(start, goal))
	visited[index(start)] = true

	for {
		current, ok := open.Dequeue()
		if !ok {
			return nil // open set exhausted: goal unreachable
		}
		if current.cell == goal {
			path := reconstructPath(current)
			env.SetPath(path)
			return path
		}

		for _, m := range neighborMoves {
			next := geometry.Cell{X: current.cell.X + m.dx, Y: current.cell.Y + m.dy}
			if !env.CellInBounds(next) || env.IsObstacle(next) || visited[index(next)] {
				continue
			}
			neighbor := &astarNode{
				cell:   next,
				g:      current.g + m.cost,
				parent: current,
			}
			open.Enqueue(neighbor, neighbor.g+heuristic(next, goal))
			visited[index(next)] = true
		}
	}
}

// heuristic is the Euclidean distance between cells, admissible and
// consistent for the 1/√2 edge-cost model.
func heuristic(a, b geometry.Cell) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func reconstructPath(node *astarNode) []geometry.Point {
	var reversed []geometry.Point
	for n := node; n != nil; n = n.parent {
		reversed = append(reversed, n.cell.Point())
	}
	path := make([]geometry.Point, len(reversed))
	for i, p := range reversed {
		path[len(reversed)-1-i] = p
	}
	return path
}
