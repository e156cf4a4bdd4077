package newton

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/contin/internal/linsolve"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// SolveDeflated drives x toward a root of the deflated functional
// G(x, p) = M(x)·F(x, p), which suppresses convergence to the roots stored
// in op. With an empty operator it reduces to Solve.
func SolveDeflated(sys problem.System, op *DeflationOperator, x0 numeric.Vec, p float64, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if op == nil {
		return Result{}, fmt.Errorf("%w: nil deflation operator", numeric.ErrInvalidSettings)
	}
	if op.Len() == 0 {
		return Solve(sys, x0, p, cfg)
	}
	log := cfg.logger()

	x := x0.Clone()
	res := Result{X: x, Residuals: make([]float64, 0, cfg.MaxIter+1)}

	for it := 0; ; it++ {
		f := sys.Residual(x, p)
		m := op.Value(x)
		nrm := m * f.Norm()
		res.Residuals = append(res.Residuals, nrm)
		log.Debug("deflated newton iteration", "iter", it, "residual", nrm, "factor", m)

		if nrm < cfg.Tol {
			res.Converged = true
			break
		}
		if it >= cfg.MaxIter {
			break
		}

		j := problem.Jacobian(sys, x, p)
		du, ok, li := deflatedUpdate(cfg.Linear, j, f, x, m, op)
		res.LinearIters += li
		if !ok {
			return res, fmt.Errorf("deflated newton: %w at iteration %d", numeric.ErrSingular, it)
		}

		if cfg.Callback != nil && !cfg.Callback(x, f, it) {
			break
		}

		x = x.Sub(du)
		res.Iterations++
		res.X = x
	}

	return res, nil
}

// deflatedUpdate solves the deflated Newton system
//
//	(M·J + F·dMᵀ)·du = M·F
//
// exactly, without ever assembling the rank-one term: the base Jacobian is
// solved against two right-hand sides (the residual and the true
// right-hand side) and the solutions are combined by the Sherman-Morrison
// formula
//
//	du = (1/M)·[ h2 - h1·(dMᵀh2)/(M + dMᵀh1) ]
//
// with J·h1 = F and J·h2 = M·F.
func deflatedUpdate(lin linsolve.Solver, j mat.Matrix, f, x numeric.Vec, m float64, op *DeflationOperator) (numeric.Vec, bool, int) {
	rhs := f.Scale(m)

	var h1, h2 numeric.Vec
	var ok bool
	var its int
	if two, can := lin.(linsolve.TwoRHS); can {
		h1, h2, ok, its = two.SolveTwo(j, f, rhs)
	} else {
		var i1, i2 int
		h1, ok, i1 = lin.Solve(j, f)
		its += i1
		if ok {
			h2, ok, i2 = lin.Solve(j, rhs)
			its += i2
		}
	}
	if !ok {
		return nil, false, its
	}

	gm1 := op.dirDeriv(x, h1)
	gm2 := op.dirDeriv(x, h2)
	denom := m + gm1
	if denom == 0 {
		return nil, false, its
	}

	du := h2.Sub(h1.Scale(gm2 / denom)).Scale(1 / m)
	return du, true, its
}
