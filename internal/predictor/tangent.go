package predictor

import (
	"math"

	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// Tangent is a direction (dx, dp) along the solution curve.
type Tangent struct {
	Dx numeric.Vec
	Dp float64
}

// Dot is the θ-weighted pseudo-arclength inner product
// θ/n·<dx,dx'> + (1-θ)·dp·dp'.
func (t Tangent) Dot(o Tangent, theta float64) float64 {
	n := float64(len(t.Dx))
	return theta/n*t.Dx.Dot(o.Dx) + (1-theta)*t.Dp*o.Dp
}

func (t Tangent) Norm(theta float64) float64 {
	return math.Sqrt(t.Dot(t, theta))
}

// Normalize scales t to unit pseudo-arclength norm.
func (t Tangent) Normalize(theta float64) Tangent {
	nrm := t.Norm(theta)
	if nrm == 0 {
		return Tangent{Dx: t.Dx.Clone(), Dp: t.Dp}
	}
	return Tangent{Dx: t.Dx.Scale(1 / nrm), Dp: t.Dp / nrm}
}

func (t Tangent) flip() Tangent {
	return Tangent{Dx: t.Dx.Scale(-1), Dp: -t.Dp}
}

// orient flips t so its inner product with the previous tangent stays
// positive. Orientation continuity is what keeps a branch traced in one
// direction; an arbitrary sign here breaks the trace.
func (t Tangent) orient(old Tangent, theta float64) Tangent {
	if len(old.Dx) == len(t.Dx) && t.Dot(old, theta) < 0 {
		return t.flip()
	}
	return t
}

// Predictor computes the direction along the curve at the current point.
type Predictor interface {
	Tangent(sys problem.System, cur, prev numeric.Point, old Tangent, theta, ds float64) (Tangent, error)
}

// secantBetween is the normalized, oriented secant from prev to cur.
func secantBetween(cur, prev numeric.Point, old Tangent, theta float64) Tangent {
	t := Tangent{Dx: cur.X.Sub(prev.X), Dp: cur.P - prev.P}
	return t.Normalize(theta).orient(old, theta)
}
