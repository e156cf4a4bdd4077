package problem

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/contin/internal/numeric"
)

// System is a parametrized root problem F(x, p) = 0.
//
// Residual must be a pure function of (x, p): it may not mutate x.
type System interface {
	Dim() int
	Residual(x numeric.Vec, p float64) numeric.Vec
}

// MatrixSystem exposes an explicit dense Jacobian dF/dx.
type MatrixSystem interface {
	Jacobian(x numeric.Vec, p float64) *mat.Dense
}

// Applier exposes a matrix-free Jacobian-vector product.
type Applier interface {
	ApplyJacobian(x numeric.Vec, p float64, dx numeric.Vec) numeric.Vec
}

// ParamDifferentiable exposes an analytic dF/dp.
type ParamDifferentiable interface {
	ParamDeriv(x numeric.Vec, p float64) numeric.Vec
}

const fdStep = 1e-8

// ApplyJacobian computes dF/dx · dx, preferring a matrix-free product, then
// an explicit matrix, then a one-sided finite difference.
func ApplyJacobian(sys System, x numeric.Vec, p float64, dx numeric.Vec) numeric.Vec {
	if a, ok := sys.(Applier); ok {
		return a.ApplyJacobian(x, p, dx)
	}
	if m, ok := sys.(MatrixSystem); ok {
		j := m.Jacobian(x, p)
		out := mat.NewVecDense(sys.Dim(), nil)
		out.MulVec(j, mat.NewVecDense(len(dx), dx))
		return numeric.Vec(out.RawVector().Data)
	}
	h := fdStep * (1 + x.Norm())
	xh := x.Clone()
	xh.Axpy(h, dx)
	return sys.Residual(xh, p).Sub(sys.Residual(x, p)).Scale(1 / h)
}

// Jacobian returns a dense dF/dx, built column by column with finite
// differences when the system does not provide one.
func Jacobian(sys System, x numeric.Vec, p float64) *mat.Dense {
	if m, ok := sys.(MatrixSystem); ok {
		return m.Jacobian(x, p)
	}
	n := sys.Dim()
	j := mat.NewDense(n, n, nil)
	f0 := sys.Residual(x, p)
	h := fdStep * (1 + x.Norm())
	for c := 0; c < n; c++ {
		xh := x.Clone()
		xh[c] += h
		fc := sys.Residual(xh, p)
		for r := 0; r < n; r++ {
			j.Set(r, c, (fc[r]-f0[r])/h)
		}
	}
	return j
}

// ParamDeriv returns dF/dp, analytic when available.
func ParamDeriv(sys System, x numeric.Vec, p float64) numeric.Vec {
	if d, ok := sys.(ParamDifferentiable); ok {
		return d.ParamDeriv(x, p)
	}
	h := fdStep * (1 + abs(p))
	return sys.Residual(x, p+h).Sub(sys.Residual(x, p)).Scale(1 / h)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
