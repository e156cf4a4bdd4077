package deflcont

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/san-kum/contin/internal/cont"
	"github.com/san-kum/contin/internal/linsolve"
	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// Config controls a deflated-continuation run. Settings supplies the
// parameter bounds, the fixed outer step ds, the outer step budget
// (MaxSteps), and the detection level.
type Config struct {
	Settings cont.Settings
	Newton   newton.Config

	// MaxBranches caps the tracked population; spawn scans stop once the
	// active count reaches it.
	MaxBranches int

	// SpawnTries is the number of deflated searches attempted per active
	// branch per outer iteration.
	SpawnTries int

	// Perturb is the amplitude of the random seed perturbation.
	Perturb float64

	// DuplicateTol is the minimum distance between distinct roots.
	DuplicateTol float64

	DeflationPower float64
	DeflationShift float64

	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Settings:       cont.DefaultSettings(),
		Newton:         newton.DefaultConfig(),
		MaxBranches:    10,
		SpawnTries:     3,
		Perturb:        0.1,
		DuplicateTol:   1e-5,
		DeflationPower: 2,
		DeflationShift: 1.0,
		Seed:           42,
	}
}

func (c Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.Newton.Validate(); err != nil {
		return err
	}
	if c.MaxBranches <= 0 {
		return fmt.Errorf("%w: max_branches must be positive, got %d", numeric.ErrInvalidSettings, c.MaxBranches)
	}
	if c.DuplicateTol <= 0 {
		return fmt.Errorf("%w: duplicate_tol must be positive, got %g", numeric.ErrInvalidSettings, c.DuplicateTol)
	}
	if c.DeflationPower <= 0 || c.DeflationShift < 0 {
		return fmt.Errorf("%w: deflation power %g / shift %g", numeric.ErrInvalidSettings, c.DeflationPower, c.DeflationShift)
	}
	return nil
}

// branchState couples embedded continuation bookkeeping with an activity
// flag. Once inactive the branch is frozen: its recorded data stays, but
// it is excluded from stepping and from the deflation root set.
type branchState struct {
	st     *cont.State
	branch *cont.Branch
	active bool
}

// Driver runs a population of branches in lockstep over a shared
// parameter value, discovering disconnected branches by deflated searches.
type Driver struct {
	sys    problem.System
	cfg    Config
	eigen  linsolve.EigenSolver
	logger *slog.Logger
	rng    *rand.Rand
}

func New(sys problem.System, cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eigen := cfg.Newton.Eigen
	if eigen == nil {
		eigen = linsolve.NewDenseEigen()
	}
	return &Driver{
		sys:    sys,
		cfg:    cfg,
		eigen:  eigen,
		logger: slog.New(slog.DiscardHandler),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (d *Driver) SetLogger(l *slog.Logger) { d.logger = l }

// Run starts from one converged root at p0 and advances the whole
// population by the fixed ds per outer iteration. All recorded branches
// are returned, frozen ones included.
func (d *Driver) Run(ctx context.Context, x0 numeric.Vec, p0 float64) ([]*cont.Branch, error) {
	set := d.cfg.Settings
	if p0 < set.PMin || p0 > set.PMax {
		return nil, fmt.Errorf("initial p = %g: %w", p0, numeric.ErrParameterBounds)
	}

	res, err := newton.Solve(d.sys, x0, p0, d.cfg.Newton)
	if err != nil {
		return nil, fmt.Errorf("initial guess: %w", err)
	}
	if !res.Converged {
		return nil, fmt.Errorf("initial guess at p = %g: %w", p0, numeric.ErrNoConvergence)
	}

	states := []*branchState{d.newBranch(res.X, p0, res.Iterations)}
	op := newton.NewDeflation(d.cfg.DeflationPower, d.cfg.DeflationShift)

	p := p0
	for outer := 0; outer < set.MaxSteps; outer++ {
		select {
		case <-ctx.Done():
			return branches(states), ctx.Err()
		default:
		}

		p += set.Ds
		if p < set.PMin || p > set.PMax {
			break
		}

		// Corrector phase over a snapshot of the root set. Each branch
		// deflates every other branch's root, never its own, and the
		// shared operator is not touched until all branches finished.
		d.stepBranches(states, p)

		// The deflation root set now holds exactly the roots accepted
		// this iteration.
		op.Clear(activeRoots(states)...)

		d.spawn(&states, op, p)

		if countActive(states) == 0 {
			d.logger.Info("all branches frozen", "outer_step", outer, "p", p)
			break
		}
	}

	return branches(states), nil
}

// stepBranches runs one deflated corrector step per active branch,
// fanning the branches out across goroutines. Detection and recording
// happen after the join so eigen bookkeeping stays ordered.
func (d *Driver) stepBranches(states []*branchState, p float64) {
	type outcome struct {
		res newton.Result
		err error
	}
	outcomes := make([]outcome, len(states))

	// Snapshot indexed like states; nil for frozen branches.
	snapshot := make([]numeric.Vec, len(states))
	for i, bs := range states {
		if bs.active {
			snapshot[i] = bs.st.Current.X.Clone()
		}
	}

	var wg sync.WaitGroup
	for i, bs := range states {
		if !bs.active {
			continue
		}
		wg.Add(1)
		go func(idx int, bs *branchState) {
			defer wg.Done()
			op := newton.NewDeflation(d.cfg.DeflationPower, d.cfg.DeflationShift)
			for j, root := range snapshot {
				if j == idx || root == nil {
					continue
				}
				op.Push(root)
			}
			res, err := newton.SolveDeflated(d.sys, op, bs.st.Current.X, p, d.cfg.Newton)
			outcomes[idx] = outcome{res: res, err: err}
		}(i, bs)
	}
	wg.Wait()

	for i, bs := range states {
		if !bs.active {
			continue
		}
		out := outcomes[i]
		if out.err != nil || !out.res.Converged {
			bs.active = false
			d.logger.Info("branch frozen", "branch", i, "p", p)
			continue
		}
		d.accept(bs, out.res, p)
	}
}

// accept folds a converged corrector result into the branch bookkeeping
// and runs stability detection.
func (d *Driver) accept(bs *branchState, res newton.Result, p float64) {
	st := bs.st
	st.Predicted = st.Current
	st.Current = numeric.Point{X: res.X, P: p}
	st.Step++
	st.Converged = true
	st.NewtonIters = res.Iterations
	st.LinearIters = res.LinearIters

	if d.cfg.Settings.DetectBifurcation > cont.DetectOff {
		st.PrevNUnstable, st.PrevNImag = st.NUnstable, st.NImag
		j := problem.Jacobian(d.sys, st.Current.X, st.Current.P)
		if pairs, ok, _ := d.eigen.Compute(j, d.cfg.Settings.NEigen); ok {
			st.EigenCache = pairs
			st.NUnstable, st.NImag = cont.StabilityCounts(pairs.Values)
		}
		if d.cfg.Settings.DetectBifurcation >= cont.DetectFlag &&
			st.PrevNUnstable != cont.UnknownStability && st.NUnstable != st.PrevNUnstable {
			bs.branch.Specials = append(bs.branch.Specials, cont.SpecialPoint{
				Kind:       cont.KindBranchPoint,
				StepBefore: st.Step - 1,
				StepAfter:  st.Step,
				PLow:       math.Min(st.Predicted.P, p),
				PHigh:      math.Max(st.Predicted.P, p),
				X:          st.Current.X.Clone(),
				P:          p,
				Status:     cont.StatusGuess,
			})
		}
	}

	d.record(bs)
}

// spawn scans for roots the tracked branches have not visited: a deflated
// search from a perturbation of each active branch's point, with the full
// root set deflated. Every distinct new root becomes a fresh branch at the
// shared parameter value.
func (d *Driver) spawn(states *[]*branchState, op *newton.DeflationOperator, p float64) {
	if countActive(*states) >= d.cfg.MaxBranches {
		return
	}
	for i := 0; i < len(*states); i++ {
		bs := (*states)[i]
		if !bs.active {
			continue
		}
		for try := 0; try < d.cfg.SpawnTries; try++ {
			if countActive(*states) >= d.cfg.MaxBranches {
				return
			}
			seed := bs.st.Current.X.Clone()
			for k := range seed {
				seed[k] += d.cfg.Perturb * d.rng.NormFloat64()
			}
			res, err := newton.SolveDeflated(d.sys, op, seed, p, d.cfg.Newton)
			if err != nil || !res.Converged {
				continue
			}
			if res.X.Sub(bs.st.Current.X).Norm() < d.cfg.DuplicateTol {
				// Deflation reconverged to this branch's own point:
				// the signal to stop searching from it this iteration.
				d.logger.Warn("duplicate solution", "branch", i, "p", p,
					"err", numeric.ErrDuplicateRoot)
				break
			}
			if nearKnown(res.X, op, d.cfg.DuplicateTol) {
				break
			}
			op.Push(res.X)
			nb := d.newBranch(res.X, p, res.Iterations)
			*states = append(*states, nb)
			d.logger.Info("branch spawned", "from", i, "p", p, "total", len(*states))
		}
	}
}

// newBranch builds a fresh continuation state at (x, p) with a natural
// tangent bootstrap and records its first point.
func (d *Driver) newBranch(x numeric.Vec, p float64, iters int) *branchState {
	set := d.cfg.Settings
	dp := 1.0
	if set.Ds < 0 {
		dp = -1
	}
	st := &cont.State{
		Current:       numeric.Point{X: x.Clone(), P: p},
		Predicted:     numeric.Point{X: x.Clone(), P: p},
		Ds:            set.Ds,
		Theta:         set.Theta,
		Converged:     true,
		NewtonIters:   iters,
		NUnstable:     cont.UnknownStability,
		NImag:         cont.UnknownStability,
		PrevNUnstable: cont.UnknownStability,
		PrevNImag:     cont.UnknownStability,
	}
	st.Tangent.Dx = numeric.Zeros(len(x))
	st.Tangent.Dp = dp / math.Sqrt(1-set.Theta)

	bs := &branchState{st: st, branch: &cont.Branch{}, active: true}
	d.record(bs)
	return bs
}

func (d *Driver) record(bs *branchState) {
	st := bs.st
	amp := st.Current.X.Norm()
	if len(st.Current.X) == 1 {
		amp = st.Current.X[0]
	}
	bs.branch.Summaries = append(bs.branch.Summaries, cont.Summary{
		Step:        st.Step,
		P:           st.Current.P,
		Amplitude:   amp,
		Ds:          st.Ds,
		NewtonIters: st.NewtonIters,
		LinearIters: st.LinearIters,
		NUnstable:   st.NUnstable,
		NImag:       st.NImag,
		Stable:      st.NUnstable == 0,
	})
}

func activeRoots(states []*branchState) []numeric.Vec {
	roots := make([]numeric.Vec, 0, len(states))
	for _, bs := range states {
		if bs.active {
			roots = append(roots, bs.st.Current.X.Clone())
		}
	}
	return roots
}

func countActive(states []*branchState) int {
	n := 0
	for _, bs := range states {
		if bs.active {
			n++
		}
	}
	return n
}

func nearKnown(x numeric.Vec, op *newton.DeflationOperator, tol float64) bool {
	for _, r := range op.Roots() {
		if x.Sub(r).Norm() < tol {
			return true
		}
	}
	return false
}

func branches(states []*branchState) []*cont.Branch {
	out := make([]*cont.Branch, len(states))
	for i, bs := range states {
		out[i] = bs.branch
	}
	return out
}
