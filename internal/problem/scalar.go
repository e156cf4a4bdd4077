package problem

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/contin/internal/numeric"
)

// Quadratic is F(x, p) = x^2 - p, with roots x = ±sqrt(p) for p > 0.
type Quadratic struct{}

func NewQuadratic() *Quadratic { return &Quadratic{} }

func (q *Quadratic) Dim() int { return 1 }

func (q *Quadratic) Residual(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{x[0]*x[0] - p}
}

func (q *Quadratic) Jacobian(x numeric.Vec, p float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{2 * x[0]})
}

func (q *Quadratic) ParamDeriv(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{-1}
}

// Pitchfork is F(x, p) = x^3 - p*x. The trivial branch x = 0 loses
// stability at p = 0 where the x = ±sqrt(p) branches appear.
type Pitchfork struct{}

func NewPitchfork() *Pitchfork { return &Pitchfork{} }

func (f *Pitchfork) Dim() int { return 1 }

func (f *Pitchfork) Residual(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{x[0]*x[0]*x[0] - p*x[0]}
}

func (f *Pitchfork) Jacobian(x numeric.Vec, p float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{3*x[0]*x[0] - p})
}

func (f *Pitchfork) ParamDeriv(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{-x[0]}
}

// Fold is F(x, p) = p - x^2: a single branch p = x^2 with a turning
// point at x = 0. Natural continuation in p cannot pass it.
type Fold struct{}

func NewFold() *Fold { return &Fold{} }

func (f *Fold) Dim() int { return 1 }

func (f *Fold) Residual(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{p - x[0]*x[0]}
}

func (f *Fold) Jacobian(x numeric.Vec, p float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{-2 * x[0]})
}

func (f *Fold) ParamDeriv(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{1}
}

// Transcritical is F(x, p) = p*x - x^2: two branches x = 0 and x = p
// exchanging stability at the origin.
type Transcritical struct{}

func NewTranscritical() *Transcritical { return &Transcritical{} }

func (t *Transcritical) Dim() int { return 1 }

func (t *Transcritical) Residual(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{p*x[0] - x[0]*x[0]}
}

func (t *Transcritical) Jacobian(x numeric.Vec, p float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{p - 2*x[0]})
}

func (t *Transcritical) ParamDeriv(x numeric.Vec, p float64) numeric.Vec {
	return numeric.Vec{x[0]}
}
