package linsolve

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/contin/internal/numeric"
)

// Solver solves J·x = rhs. The returned count is the number of solver
// iterations (1 for a direct factorization).
type Solver interface {
	Solve(j mat.Matrix, rhs numeric.Vec) (numeric.Vec, bool, int)
}

// TwoRHS solves one factorization against two right-hand sides. Used by
// the deflated corrector, which needs both solutions from the same
// Jacobian.
type TwoRHS interface {
	SolveTwo(j mat.Matrix, b1, b2 numeric.Vec) (numeric.Vec, numeric.Vec, bool, int)
}

// BorderedSolver solves the pseudo-arclength bordered system
//
//	[ J              dF/dp      ] [dx]   [rhsX]
//	[ θ/n·ξxᵀ        (1-θ)·ξp   ] [dp] = [rhsP]
//
// where (ξx, ξp) is the tangent entering the arclength constraint row.
type BorderedSolver interface {
	SolveBordered(j mat.Matrix, dfdp, xiX numeric.Vec, xiP, theta float64,
		rhsX numeric.Vec, rhsP float64) (numeric.Vec, float64, bool, int)
}

// Dense is a direct LU solver for explicitly assembled Jacobians.
type Dense struct{}

func NewDense() *Dense { return &Dense{} }

func (d *Dense) Solve(j mat.Matrix, rhs numeric.Vec) (numeric.Vec, bool, int) {
	var lu mat.LU
	lu.Factorize(j)
	out := mat.NewVecDense(len(rhs), nil)
	if err := lu.SolveVecTo(out, false, mat.NewVecDense(len(rhs), rhs)); err != nil {
		return nil, false, 1
	}
	return numeric.Vec(out.RawVector().Data), true, 1
}

func (d *Dense) SolveTwo(j mat.Matrix, b1, b2 numeric.Vec) (numeric.Vec, numeric.Vec, bool, int) {
	var lu mat.LU
	lu.Factorize(j)
	n := len(b1)
	rhs := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		rhs.Set(i, 0, b1[i])
		rhs.Set(i, 1, b2[i])
	}
	out := mat.NewDense(n, 2, nil)
	if err := lu.SolveTo(out, false, rhs); err != nil {
		return nil, nil, false, 2
	}
	x1 := make(numeric.Vec, n)
	x2 := make(numeric.Vec, n)
	for i := 0; i < n; i++ {
		x1[i] = out.At(i, 0)
		x2[i] = out.At(i, 1)
	}
	return x1, x2, true, 2
}

// SolveBordered assembles the full (n+1) system and factorizes it
// directly. At a fold J itself is singular while the bordered matrix is
// not, so block elimination through J is deliberately avoided.
func (d *Dense) SolveBordered(j mat.Matrix, dfdp, xiX numeric.Vec, xiP, theta float64,
	rhsX numeric.Vec, rhsP float64) (numeric.Vec, float64, bool, int) {

	n := len(rhsX)
	big := mat.NewDense(n+1, n+1, nil)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			big.Set(r, c, j.At(r, c))
		}
		big.Set(r, n, dfdp[r])
	}
	w := theta / float64(n)
	for c := 0; c < n; c++ {
		big.Set(n, c, w*xiX[c])
	}
	big.Set(n, n, (1-theta)*xiP)

	rhs := make(numeric.Vec, n+1)
	copy(rhs, rhsX)
	rhs[n] = rhsP

	sol, ok, its := d.Solve(big, rhs)
	if !ok {
		return nil, 0, false, its
	}
	return numeric.Vec(sol[:n]).Clone(), sol[n], true, its
}
