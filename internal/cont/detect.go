package cont

import (
	"math"

	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/predictor"
	"github.com/san-kum/contin/internal/problem"
)

// imagThreshold separates numerically real eigenvalues from complex pairs.
const imagThreshold = 1e-6

// StabilityCounts returns the number of eigenvalues with positive real
// part and with non-negligible imaginary part.
func StabilityCounts(values []complex128) (unstable, imagCount int) {
	for _, v := range values {
		if real(v) > 0 {
			unstable++
		}
		if math.Abs(imag(v)) > imagThreshold {
			imagCount++
		}
	}
	return unstable, imagCount
}

func (r *Runner) updateEigen(st *State) {
	j := problem.Jacobian(r.sys, st.Current.X, st.Current.P)
	pairs, ok, _ := r.eigen.Compute(j, r.set.NEigen)
	if !ok {
		r.logger.Warn("eigen solve failed", "step", st.Step, "p", st.Current.P)
		return
	}
	st.EigenCache = pairs
	st.NUnstable, st.NImag = StabilityCounts(pairs.Values)
}

// detect inspects the step just accepted for folds, stability-index
// changes, and user event crossings, appending special points to branch.
func (r *Runner) detect(st *State, branch *Branch, prev numeric.Point, prevTangent predictor.Tangent) {
	pLo := math.Min(prev.P, st.Current.P)
	pHi := math.Max(prev.P, st.Current.P)

	// Folds need no eigenvalues: dp flips sign across a turning point.
	if r.set.DetectFold && prevTangent.Dp*st.Tangent.Dp < 0 {
		branch.Specials = append(branch.Specials, SpecialPoint{
			Kind:       KindFold,
			StepBefore: st.Step - 1,
			StepAfter:  st.Step,
			PLow:       pLo,
			PHigh:      pHi,
			X:          st.Current.X.Clone(),
			P:          st.Current.P,
			Status:     StatusGuess,
		})
		r.logger.Info("fold detected", "step", st.Step, "p_lo", pLo, "p_hi", pHi)
	}

	if r.set.DetectBifurcation >= DetectFlag &&
		st.PrevNUnstable != UnknownStability && st.NUnstable != st.PrevNUnstable {

		kind := KindBranchPoint
		if st.PrevNImag != UnknownStability && st.NImag > st.PrevNImag &&
			absInt(st.NUnstable-st.PrevNUnstable) >= 2 {
			kind = KindHopf
		}
		sp := SpecialPoint{
			Kind:       kind,
			StepBefore: st.Step - 1,
			StepAfter:  st.Step,
			PLow:       pLo,
			PHigh:      pHi,
			X:          st.Current.X.Clone(),
			P:          st.Current.P,
			Status:     StatusGuess,
		}
		if r.set.DetectBifurcation >= DetectBisect {
			loCount := st.PrevNUnstable
			r.bisect(&sp, prev, st.Current, func(pt numeric.Point) (bool, bool) {
				j := problem.Jacobian(r.sys, pt.X, pt.P)
				pairs, ok, _ := r.eigen.Compute(j, r.set.NEigen)
				if !ok {
					return false, false
				}
				u, _ := StabilityCounts(pairs.Values)
				return u != loCount, true
			})
		}
		branch.Specials = append(branch.Specials, sp)
		r.logger.Info("bifurcation detected", "kind", kind, "step", st.Step,
			"unstable", st.NUnstable, "prev_unstable", st.PrevNUnstable, "status", sp.Status)
	}

	off := 0
	for _, ev := range r.events {
		w := width(ev)
		if off+w <= len(st.PrevEventValues) && off+w <= len(st.EventValues) {
			pv := st.PrevEventValues[off : off+w]
			cv := st.EventValues[off : off+w]
			if ev.Crossed(pv, cv) {
				sp := SpecialPoint{
					Kind:       KindEvent,
					Event:      ev.Name(),
					StepBefore: st.Step - 1,
					StepAfter:  st.Step,
					PLow:       pLo,
					PHigh:      pHi,
					X:          st.Current.X.Clone(),
					P:          st.Current.P,
					Status:     StatusGuess,
				}
				r.bisect(&sp, prev, st.Current, func(pt numeric.Point) (bool, bool) {
					return ev.Crossed(pv, ev.Eval(pt.X, pt.P)), true
				})
				branch.Specials = append(branch.Specials, sp)
				r.logger.Info("event crossing", "event", ev.Name(), "step", st.Step, "status", sp.Status)
			}
		}
		off += w
	}
}

// bisect refines sp's bracketing interval: correct at the parameter
// midpoint, re-evaluate the crossing criterion against the low endpoint,
// halve. The criterion is re-verified after refinement because the
// midpoint corrections can shift the states enough to mask the original
// sign change; a masked crossing keeps status guess.
func (r *Runner) bisect(sp *SpecialPoint, lo, hi numeric.Point, changed func(numeric.Point) (bool, bool)) {
	if r.set.MaxBisect <= 0 {
		return
	}
	a, b := lo, hi
	converged := false

	for i := 0; i < r.set.MaxBisect; i++ {
		if math.Abs(b.P-a.P) < r.set.BisectTol {
			converged = true
			break
		}
		pm := 0.5 * (a.P + b.P)
		guess := a.X.Add(b.X).Scale(0.5)
		res, err := newton.Solve(r.sys, guess, pm, r.ncfg)
		if err != nil || !res.Converged {
			break
		}
		mid := numeric.Point{X: res.X, P: pm}
		cross, ok := changed(mid)
		if !ok {
			break
		}
		if cross {
			b = mid
		} else {
			a = mid
		}
	}

	if cross, ok := changed(b); !ok || !cross {
		converged = false
	}

	sp.PLow = math.Min(a.P, b.P)
	sp.PHigh = math.Max(a.P, b.P)
	sp.X = b.X.Clone()
	sp.P = b.P
	if converged {
		sp.Status = StatusConverged
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
