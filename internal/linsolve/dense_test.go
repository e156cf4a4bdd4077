package linsolve

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/contin/internal/numeric"
)

func TestDenseSolve(t *testing.T) {
	d := NewDense()
	j := mat.NewDense(2, 2, []float64{2, 0, 0, 4})

	x, ok, iters := d.Solve(j, numeric.Vec{2, 8})
	if !ok {
		t.Fatal("solve failed on well-conditioned system")
	}
	if iters != 1 {
		t.Errorf("iters = %d, want 1", iters)
	}
	if math.Abs(x[0]-1) > 1e-12 || math.Abs(x[1]-2) > 1e-12 {
		t.Errorf("x = %v, want [1 2]", x)
	}
}

func TestDenseSolveSingular(t *testing.T) {
	d := NewDense()
	j := mat.NewDense(2, 2, []float64{1, 1, 1, 1})

	if _, ok, _ := d.Solve(j, numeric.Vec{1, 2}); ok {
		t.Error("expected failure on singular matrix")
	}
}

func TestDenseSolveTwo(t *testing.T) {
	d := NewDense()
	j := mat.NewDense(2, 2, []float64{3, 1, 0, 2})

	x1, x2, ok, _ := d.SolveTwo(j, numeric.Vec{3, 0}, numeric.Vec{4, 2})
	if !ok {
		t.Fatal("two-RHS solve failed")
	}
	// Verify by substitution.
	for i, x := range []numeric.Vec{x1, x2} {
		var got mat.VecDense
		got.MulVec(j, mat.NewVecDense(2, x))
		want := [][]float64{{3, 0}, {4, 2}}[i]
		if math.Abs(got.AtVec(0)-want[0]) > 1e-12 || math.Abs(got.AtVec(1)-want[1]) > 1e-12 {
			t.Errorf("rhs %d: J*x = [%g %g], want %v", i, got.AtVec(0), got.AtVec(1), want)
		}
	}
}

// The bordered system must stay solvable when J itself is singular,
// which is exactly the situation at a fold.
func TestSolveBorderedSingularJ(t *testing.T) {
	d := NewDense()
	j := mat.NewDense(1, 1, []float64{0}) // dF/dx at the fold of p - x^2
	dfdp := numeric.Vec{1}
	xiX := numeric.Vec{1}

	dx, dp, ok, _ := d.SolveBordered(j, dfdp, xiX, 0.0, 0.5, numeric.Zeros(1), 1)
	if !ok {
		t.Fatal("bordered solve failed with singular J")
	}
	// Row 1: 0*dx + 1*dp = 0 so dp = 0; row 2: theta*dx = 1.
	if math.Abs(dp) > 1e-10 {
		t.Errorf("dp = %g, want 0", dp)
	}
	if math.Abs(dx[0]-2) > 1e-10 {
		t.Errorf("dx = %g, want 2", dx[0])
	}
}

func TestSolveBorderedWellPosed(t *testing.T) {
	d := NewDense()
	j := mat.NewDense(1, 1, []float64{2})
	dfdp := numeric.Vec{-1}
	xiX := numeric.Vec{0.5}

	dx, dp, ok, _ := d.SolveBordered(j, dfdp, xiX, 0.5, 0.5, numeric.Vec{1}, 2)
	if !ok {
		t.Fatal("bordered solve failed")
	}
	// Check both equations by substitution.
	if got := 2*dx[0] - dp; math.Abs(got-1) > 1e-10 {
		t.Errorf("first row: got %g, want 1", got)
	}
	if got := 0.5*0.5*dx[0] + 0.5*0.5*dp; math.Abs(got-2) > 1e-10 {
		t.Errorf("border row: got %g, want 2", got)
	}
}
