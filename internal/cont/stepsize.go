package cont

import "math"

// controller adapts the arclength step and the constraint weighting from
// corrector outcomes.
type controller struct {
	set    Settings
	target int
}

func newController(set Settings, maxIter int) controller {
	target := maxIter / 2
	if target < 1 {
		target = 1
	}
	return controller{set: set, target: target}
}

// onFailure halves ds, clamped to dsmin. Stop is true only when ds was
// already at the floor; this is the one path that terminates a run for
// non-convergence.
func (c controller) onFailure(ds float64) (float64, bool) {
	mag := math.Abs(ds)
	if mag <= c.set.DsMin {
		return ds, true
	}
	mag /= 2
	if mag < c.set.DsMin {
		mag = c.set.DsMin
	}
	return math.Copysign(mag, ds), false
}

// onSuccess grows or shrinks ds toward the target Newton iteration count.
// An easy success (iters <= target) never shrinks the step.
func (c controller) onSuccess(ds float64, iters int) float64 {
	factor := math.Pow(c.set.Aggressiveness, float64(c.target-iters)/float64(c.target))
	mag := math.Abs(ds) * factor
	if mag < c.set.DsMin {
		mag = c.set.DsMin
	}
	if mag > c.set.DsMax {
		mag = c.set.DsMax
	}
	return math.Copysign(mag, ds)
}

// rescaleTheta rebalances theta so the state and parameter contributions
// to the arclength norm stay comparable. A tunable heuristic, not
// load-bearing for correctness.
func (c controller) rescaleTheta(st *State) {
	dx2 := st.Tangent.Dx.Dot(st.Tangent.Dx)
	dp2 := st.Tangent.Dp * st.Tangent.Dp
	if dx2 == 0 || dp2 < 1e-24 {
		return
	}
	n := float64(len(st.Tangent.Dx))
	theta := n * dp2 / (dx2 + n*dp2)
	if theta < 0.05 {
		theta = 0.05
	}
	if theta > 0.95 {
		theta = 0.95
	}
	st.Theta = theta
}
