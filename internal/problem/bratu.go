package problem

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/contin/internal/numeric"
)

// Bratu is the 1-D Gelfand-Bratu problem u'' + p*exp(u) = 0 on (0,1)
// with homogeneous Dirichlet boundaries, discretized by second-order
// finite differences on N interior nodes. The solution branch folds at
// p ≈ 3.51.
type Bratu struct {
	N int
	h float64
}

func NewBratu(n int) *Bratu {
	if n < 2 {
		n = 2
	}
	return &Bratu{N: n, h: 1.0 / float64(n+1)}
}

func (b *Bratu) Dim() int { return b.N }

func (b *Bratu) Residual(u numeric.Vec, p float64) numeric.Vec {
	f := make(numeric.Vec, b.N)
	h2 := b.h * b.h
	for i := 0; i < b.N; i++ {
		left, right := 0.0, 0.0
		if i > 0 {
			left = u[i-1]
		}
		if i < b.N-1 {
			right = u[i+1]
		}
		f[i] = (left-2*u[i]+right)/h2 + p*math.Exp(u[i])
	}
	return f
}

func (b *Bratu) Jacobian(u numeric.Vec, p float64) *mat.Dense {
	j := mat.NewDense(b.N, b.N, nil)
	h2 := b.h * b.h
	for i := 0; i < b.N; i++ {
		if i > 0 {
			j.Set(i, i-1, 1/h2)
		}
		j.Set(i, i, -2/h2+p*math.Exp(u[i]))
		if i < b.N-1 {
			j.Set(i, i+1, 1/h2)
		}
	}
	return j
}

func (b *Bratu) ParamDeriv(u numeric.Vec, p float64) numeric.Vec {
	d := make(numeric.Vec, b.N)
	for i := range d {
		d[i] = math.Exp(u[i])
	}
	return d
}
