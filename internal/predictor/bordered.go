package predictor

import (
	"fmt"

	"github.com/san-kum/contin/internal/linsolve"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// Bordered solves the tangent system
//
//	[ J               dF/dp     ] [dx1]   [0]
//	[ θ/n·dx0ᵀ        (1-θ)·dp0 ] [dp1] = [1]
//
// with the previous tangent (dx0, dp0) in the constraint row.
type Bordered struct {
	Solver linsolve.BorderedSolver
}

func NewBordered(solver linsolve.BorderedSolver) *Bordered {
	if solver == nil {
		solver = linsolve.NewDense()
	}
	return &Bordered{Solver: solver}
}

func (b *Bordered) Tangent(sys problem.System, cur, prev numeric.Point, old Tangent, theta, ds float64) (Tangent, error) {
	j := problem.Jacobian(sys, cur.X, cur.P)
	dfdp := problem.ParamDeriv(sys, cur.X, cur.P)

	dx, dp, ok, _ := b.Solver.SolveBordered(j, dfdp, old.Dx, old.Dp, theta,
		numeric.Zeros(sys.Dim()), 1)
	if !ok {
		return Tangent{}, fmt.Errorf("bordered tangent: %w", numeric.ErrSingular)
	}
	return Tangent{Dx: dx, Dp: dp}.Normalize(theta).orient(old, theta), nil
}
