package cont

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/contin/internal/linsolve"
	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/predictor"
	"github.com/san-kum/contin/internal/problem"
)

// UnknownStability is the sentinel for uninitialized eigenvalue counts.
const UnknownStability = -1

// State is the mutable continuation state, exclusively owned by one
// running state machine. Predicted holds the predictor's guess during
// correction and is reused to park the previous accepted point afterwards.
type State struct {
	Current   numeric.Point
	Predicted numeric.Point
	Tangent   predictor.Tangent

	Ds    float64
	Theta float64
	Step  int

	Converged   bool
	NewtonIters int
	LinearIters int

	NUnstable     int
	NImag         int
	PrevNUnstable int
	PrevNImag     int

	EigenCache linsolve.Eigenpairs

	EventValues     []float64
	PrevEventValues []float64

	// Stop is sticky: once set the machine terminates after the current
	// step.
	Stop bool
}

// Runner drives one branch through predict, correct, update-tangent,
// update-eigen, detect, record.
type Runner struct {
	sys      problem.System
	pred     predictor.Predictor
	set      Settings
	ncfg     newton.Config
	bordered linsolve.BorderedSolver
	eigen    linsolve.EigenSolver
	ctrl     controller

	events     []Event
	projection func(numeric.Vec) float64
	finalize   func(*State, *Branch) bool
	saveHook   func(step int, pt numeric.Point)
	logger     *slog.Logger
}

func NewRunner(sys problem.System, pred predictor.Predictor, set Settings, ncfg newton.Config) (*Runner, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if err := ncfg.Validate(); err != nil {
		return nil, err
	}
	if pred == nil {
		pred = predictor.NewSecant()
	}
	bordered, ok := ncfg.Linear.(linsolve.BorderedSolver)
	if !ok {
		bordered = linsolve.NewDense()
	}
	eigen := ncfg.Eigen
	if eigen == nil {
		eigen = linsolve.NewDenseEigen()
	}
	return &Runner{
		sys:        sys,
		pred:       pred,
		set:        set,
		ncfg:       ncfg,
		bordered:   bordered,
		eigen:      eigen,
		ctrl:       newController(set, ncfg.MaxIter),
		projection: defaultProjection,
		logger:     slog.New(slog.DiscardHandler),
	}, nil
}

func (r *Runner) AddEvent(ev Event)                          { r.events = append(r.events, ev) }
func (r *Runner) SetLogger(l *slog.Logger)                   { r.logger = l }
func (r *Runner) SetProjection(fn func(numeric.Vec) float64) { r.projection = fn }

// OnFinalize installs a per-step hook; returning false stops the run.
func (r *Runner) OnFinalize(fn func(*State, *Branch) bool) { r.finalize = fn }

// OnSave installs the persistence hook invoked once per accepted step.
func (r *Runner) OnSave(fn func(step int, pt numeric.Point)) { r.saveHook = fn }

func defaultProjection(x numeric.Vec) float64 {
	if len(x) == 1 {
		return x[0]
	}
	return x.Norm()
}

// Run converges the initial guess, bootstraps the tangent from two nearby
// points, then steps along the branch until a terminal condition. The
// returned branch is valid even when an error is also returned.
func (r *Runner) Run(ctx context.Context, x0 numeric.Vec, p0 float64) (*Branch, error) {
	branch := &Branch{}

	if p0 < r.set.PMin || p0 > r.set.PMax {
		return branch, fmt.Errorf("initial p = %g: %w", p0, numeric.ErrParameterBounds)
	}

	st, err := r.bootstrap(x0, p0)
	if err != nil {
		return branch, err
	}

	if r.set.DetectBifurcation > DetectOff {
		r.updateEigen(st)
	}
	st.EventValues = r.evalEvents(st.Current)
	r.record(st, branch)

	for !st.Stop {
		select {
		case <-ctx.Done():
			return branch, ctx.Err()
		default:
		}
		if st.Step >= r.set.MaxSteps {
			break
		}

		// Predict.
		st.Predicted = numeric.Point{
			X: st.Current.X.Add(st.Tangent.Dx.Scale(st.Ds)),
			P: st.Current.P + st.Ds*st.Tangent.Dp,
		}

		// Correct onto the curve under the arclength constraint.
		sol, iters, liters, ok := r.correct(st)
		st.Converged = ok
		st.NewtonIters = iters
		st.LinearIters = liters

		if !ok {
			ds, stop := r.ctrl.onFailure(st.Ds)
			r.logger.Warn("step rejected", "step", st.Step, "ds", st.Ds, "next_ds", ds)
			st.Ds = ds
			if stop {
				st.Stop = true
				return branch, fmt.Errorf("step %d: %w", st.Step, numeric.ErrStepTooSmall)
			}
			continue
		}

		prev := st.Current
		prevTangent := st.Tangent
		st.Predicted = prev
		st.Current = sol
		st.Step++

		t, err := r.pred.Tangent(r.sys, st.Current, prev, prevTangent, st.Theta, st.Ds)
		if err != nil {
			r.logger.Warn("tangent update failed, falling back to secant", "step", st.Step, "err", err)
			t, _ = predictor.NewSecant().Tangent(r.sys, st.Current, prev, prevTangent, st.Theta, st.Ds)
		}
		st.Tangent = t

		if r.set.DetectBifurcation > DetectOff {
			st.PrevNUnstable, st.PrevNImag = st.NUnstable, st.NImag
			r.updateEigen(st)
		}
		st.PrevEventValues = st.EventValues
		st.EventValues = r.evalEvents(st.Current)

		r.detect(st, branch, prev, prevTangent)
		r.record(st, branch)

		if r.saveHook != nil {
			r.saveHook(st.Step, st.Current)
		}

		st.Ds = r.ctrl.onSuccess(st.Ds, iters)
		if r.set.ArcLengthScaling {
			r.ctrl.rescaleTheta(st)
		}

		if r.finalize != nil && !r.finalize(st, branch) {
			st.Stop = true
		}
		if st.Current.P < r.set.PMin || st.Current.P > r.set.PMax {
			r.logger.Info("parameter left bounds", "p", st.Current.P)
			break
		}
	}

	return branch, nil
}

// bootstrap converges the guess at p0 and at p0 + ds/eta and takes their
// secant as the first tangent. Failure here is fatal: continuation never
// begins.
func (r *Runner) bootstrap(x0 numeric.Vec, p0 float64) (*State, error) {
	res0, err := newton.Solve(r.sys, x0, p0, r.ncfg)
	if err != nil {
		return nil, fmt.Errorf("initial guess at p = %g: %w", p0, err)
	}
	if !res0.Converged {
		return nil, fmt.Errorf("initial guess at p = %g: %w", p0, numeric.ErrNoConvergence)
	}

	p1 := p0 + r.set.Ds/r.set.Eta
	res1, err := newton.Solve(r.sys, res0.X, p1, r.ncfg)
	if err != nil {
		return nil, fmt.Errorf("tangent bootstrap at p = %g: %w", p1, err)
	}
	if !res1.Converged {
		return nil, fmt.Errorf("tangent bootstrap at p = %g: %w", p1, numeric.ErrNoConvergence)
	}

	st := &State{
		Current:       numeric.Point{X: res1.X, P: p1},
		Predicted:     numeric.Point{X: res0.X, P: p0},
		Ds:            r.set.Ds,
		Theta:         r.set.Theta,
		Converged:     true,
		NewtonIters:   res1.Iterations,
		LinearIters:   res1.LinearIters,
		NUnstable:     UnknownStability,
		NImag:         UnknownStability,
		PrevNUnstable: UnknownStability,
		PrevNImag:     UnknownStability,
	}
	// Orient the tangent so that stepping Current + Ds·τ continues the
	// p0 → p1 direction; for Ds < 0 the raw secant must be flipped.
	sign := 1.0
	if r.set.Ds < 0 {
		sign = -1.0
	}
	st.Tangent = predictor.Tangent{
		Dx: res1.X.Sub(res0.X).Scale(sign),
		Dp: (p1 - p0) * sign,
	}.Normalize(st.Theta)
	return st, nil
}

// correct runs Newton on the extended system F(x,p) = 0,
// N(x,p) = θ/n·<x-x₀, ξx> + (1-θ)·(p-p₀)·ξp - ds = 0, anchored at the
// last accepted point with the current tangent.
func (r *Runner) correct(st *State) (numeric.Point, int, int, bool) {
	x := st.Predicted.X.Clone()
	p := st.Predicted.P
	n := float64(r.sys.Dim())
	iters, liters := 0, 0

	for it := 0; ; it++ {
		f := r.sys.Residual(x, p)
		cN := st.Theta/n*x.Sub(st.Current.X).Dot(st.Tangent.Dx) +
			(1-st.Theta)*(p-st.Current.P)*st.Tangent.Dp - st.Ds

		if math.Hypot(f.Norm(), cN) < r.ncfg.Tol {
			return numeric.Point{X: x, P: p}, iters, liters, true
		}
		if it >= r.ncfg.MaxIter {
			return numeric.Point{}, iters, liters, false
		}

		j := problem.Jacobian(r.sys, x, p)
		dfdp := problem.ParamDeriv(r.sys, x, p)
		dx, dp, ok, li := r.bordered.SolveBordered(j, dfdp, st.Tangent.Dx, st.Tangent.Dp, st.Theta, f, cN)
		liters += li
		if !ok {
			return numeric.Point{}, iters, liters, false
		}

		if r.ncfg.Callback != nil && !r.ncfg.Callback(x, f, it) {
			return numeric.Point{}, iters, liters, false
		}

		x = x.Sub(dx)
		p -= dp
		iters++
	}
}

func (r *Runner) record(st *State, branch *Branch) {
	branch.Summaries = append(branch.Summaries, Summary{
		Step:        st.Step,
		P:           st.Current.P,
		Amplitude:   r.projection(st.Current.X),
		Ds:          st.Ds,
		NewtonIters: st.NewtonIters,
		LinearIters: st.LinearIters,
		NUnstable:   st.NUnstable,
		NImag:       st.NImag,
		Stable:      st.NUnstable == 0,
	})
	if r.set.SaveSolEvery > 0 && st.Step%r.set.SaveSolEvery == 0 {
		branch.Solutions = append(branch.Solutions, st.Current.Clone())
	}
	if r.set.SaveEigEvery > 0 && st.Step%r.set.SaveEigEvery == 0 && len(st.EigenCache.Values) > 0 {
		vals := make([]complex128, len(st.EigenCache.Values))
		copy(vals, st.EigenCache.Values)
		branch.Eigen = append(branch.Eigen, EigenSnapshot{Step: st.Step, Values: vals})
	}
	r.logger.Debug("step accepted",
		"step", st.Step, "p", st.Current.P, "ds", st.Ds,
		"newton_iters", st.NewtonIters, "unstable", st.NUnstable)
}

func (r *Runner) evalEvents(pt numeric.Point) []float64 {
	var vals []float64
	for _, ev := range r.events {
		vals = append(vals, ev.Eval(pt.X, pt.P)...)
	}
	return vals
}
