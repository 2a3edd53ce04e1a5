package planning

import (
	"math"
	"math/rand/v2"

	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/world"
)

// LocalPlannerOptions tune the dynamic-window velocity search. Weights are
// policy, not contract: they must sum to 1 and favor clearance most.
type LocalPlannerOptions struct {
	SampleCount       int     // velocity candidates per query
	PredictionHorizon float64 // rollout length in seconds
	RolloutSteps      int     // subdivisions of the horizon
	AgentRadius       float64 // collision footprint of the agent

	ClearanceWeight float64
	HeadingWeight   float64
	DistanceWeight  float64

	// ClearanceSaturation caps the clearance reward: any gap at least
	// this wide scores the same, so the planner stops trading goal
	// progress for open space it doesn't need.
	ClearanceSaturation float64

	// DistanceDecay is the k in exp(-distance/k) for the goal-distance
	// score.
	DistanceDecay float64

	// ArrivalEpsilon is the distance below which the target counts as
	// reached and the planner prefers holding position.
	ArrivalEpsilon float64

	// MinSampleSpeed keeps sampled candidates from degenerating into
	// near-zero crawl.
	MinSampleSpeed float64
}

// DefaultLocalPlannerOptions are the stock tuning: 20 samples over a 2 s
// horizon in 10 steps.
func DefaultLocalPlannerOptions() LocalPlannerOptions {
	return LocalPlannerOptions{
		SampleCount:         20,
		PredictionHorizon:   2.0,
		RolloutSteps:        10,
		AgentRadius:         0.5,
		ClearanceWeight:     0.4,
		HeadingWeight:       0.3,
		DistanceWeight:      0.3,
		ClearanceSaturation: 5.0,
		DistanceDecay:       10.0,
		ArrivalEpsilon:      0.1,
		MinSampleSpeed:      0.1,
	}
}

// LocalPlanner selects an instantaneous velocity by sampling the window
// around the current velocity, rolling each candidate forward at constant
// speed and heading, and scoring the trajectories. The entropy source is
// injected so tests can pin candidate generation.
type LocalPlanner struct {
	opts LocalPlannerOptions
	rng  *rand.Rand
}

// NewLocalPlanner creates a planner with the given options. A nil rng
// falls back to a process-seeded generator.
func NewLocalPlanner(opts LocalPlannerOptions, rng *rand.Rand) *LocalPlanner {
	if opts.SampleCount <= 0 {
		opts.SampleCount = DefaultLocalPlannerOptions().SampleCount
	}
	if opts.RolloutSteps <= 0 {
		opts.RolloutSteps = DefaultLocalPlannerOptions().RolloutSteps
	}
	if opts.PredictionHorizon <= 0 {
		opts.PredictionHorizon = DefaultLocalPlannerOptions().PredictionHorizon
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &LocalPlanner{opts: opts, rng: rng}
}

// ChooseVelocity returns the best-scoring candidate velocity for moving
// from currentPos toward targetPos. A target within ArrivalEpsilon yields
// the zero velocity. When every candidate is rejected the current
// velocity is kept, so a stationary agent holds and a moving one coasts
// until the next query.
func (lp *LocalPlanner) ChooseVelocity(env *world.Environment, currentPos geometry.Point, currentVel geometry.Vec2, targetPos geometry.Point, maxSpeed, maxRotSpeed float64) geometry.Vec2 {
	if currentPos.DistanceTo(targetPos) < lp.opts.ArrivalEpsilon {
		return geometry.Vec2{}
	}

	candidates := lp.sampleVelocities(currentVel, maxSpeed, maxRotSpeed)

	// when every trajectory is rejected the agent keeps its course; the
	// next tick resamples from wherever that leads
	best := candidates[0]
	bestScore := math.Inf(-1)
	for _, vel := range candidates {
		score, ok := lp.evaluate(env, vel, currentPos, targetPos)
		if !ok {
			continue
		}
		// strict comparison: the earlier candidate wins ties
		if score > bestScore {
			bestScore = score
			best = vel
		}
	}
	return best
}

// sampleVelocities draws speeds uniformly from (0, maxSpeed] and headings
// from the rotation window around the current heading. The unperturbed
// current velocity is always the first candidate, so a good steady course
// wins any tie against a sampled twin.
func (lp *LocalPlanner) sampleVelocities(currentVel geometry.Vec2, maxSpeed, maxRotSpeed float64) []geometry.Vec2 {
	samples := make([]geometry.Vec2, 0, lp.opts.SampleCount+1)
	samples = append(samples, currentVel)

	currentHeading := currentVel.Heading()

	for i := 0; i < lp.opts.SampleCount; i++ {
		speed := lp.rng.Float64() * maxSpeed
		speed = math.Max(speed, lp.opts.MinSampleSpeed)

		heading := currentHeading + (lp.rng.Float64()*2-1)*maxRotSpeed
		samples = append(samples, geometry.FromPolar(speed, heading))
	}
	return samples
}

// evaluate rolls the candidate forward over the horizon and combines the
// clearance, heading and goal-distance scores. ok is false when the
// trajectory leaves the grid or collides; such candidates are rejected
// outright rather than given a low score.
func (lp *LocalPlanner) evaluate(env *world.Environment, vel geometry.Vec2, currentPos, targetPos geometry.Point) (score float64, ok bool) {
	steps := lp.opts.RolloutSteps
	horizon := lp.opts.PredictionHorizon

	minClearance := math.Inf(1)
	var endPos geometry.Point

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps) * horizon
		p := currentPos.Add(vel.Scale(t))
		if !env.InBounds(p) {
			return 0, false
		}

		for _, o := range env.Obstacles() {
			// moving obstacles are checked where they will be, not
			// where they are
			obstaclePos := o.Position()
			if o.IsDynamic() {
				obstaclePos = o.PredictedPosition(t)
			}
			gap := p.DistanceTo(obstaclePos) - o.Radius()
			if gap < lp.opts.AgentRadius {
				return 0, false
			}
			if gap < minClearance {
				minClearance = gap
			}
		}
		endPos = p
	}

	clearanceScore := 1.0
	if !math.IsInf(minClearance, 1) {
		clearanceScore = math.Min(minClearance, lp.opts.ClearanceSaturation) / lp.opts.ClearanceSaturation
	}

	headingScore := lp.headingScore(vel, currentPos, targetPos)
	distanceScore := math.Exp(-endPos.DistanceTo(targetPos) / lp.opts.DistanceDecay)

	score = lp.opts.ClearanceWeight*clearanceScore +
		lp.opts.HeadingWeight*headingScore +
		lp.opts.DistanceWeight*distanceScore
	return score, true
}

// headingScore is the cosine similarity between the candidate direction
// and the straight line to the target, rescaled from [-1,1] to [0,1].
func (lp *LocalPlanner) headingScore(vel geometry.Vec2, currentPos, targetPos geometry.Point) float64 {
	toGoal := currentPos.VectorTo(targetPos)
	if toGoal.Length() < 1e-3 {
		return 1.0
	}
	if vel.IsZero() {
		return 0.5 // no direction, neutral score
	}
	dot := toGoal.Normalize().Dot(vel.Normalize())
	return (dot + 1) / 2
}
