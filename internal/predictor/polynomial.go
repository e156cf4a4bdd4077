package predictor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// Polynomial extrapolates from a window of past accepted points by a
// least-squares quadratic fit in arclength. With fewer than three stored
// points it reduces exactly to the secant strategy.
type Polynomial struct {
	Window int
	points []numeric.Point
}

func NewPolynomial(window int) *Polynomial {
	if window < 3 {
		window = 4
	}
	return &Polynomial{Window: window}
}

func (pl *Polynomial) Tangent(sys problem.System, cur, prev numeric.Point, old Tangent, theta, ds float64) (Tangent, error) {
	pl.record(prev)
	pl.record(cur)

	if len(pl.points) < 3 {
		return secantBetween(cur, prev, old, theta), nil
	}

	// Arclength parameters for the stored points.
	k := len(pl.points)
	s := make([]float64, k)
	for i := 1; i < k; i++ {
		step := Tangent{
			Dx: pl.points[i].X.Sub(pl.points[i-1].X),
			Dp: pl.points[i].P - pl.points[i-1].P,
		}
		s[i] = s[i-1] + step.Norm(theta)
	}

	a := mat.NewDense(k, 3, nil)
	for i := 0; i < k; i++ {
		a.Set(i, 0, 1)
		a.Set(i, 1, s[i])
		a.Set(i, 2, s[i]*s[i])
	}
	var qr mat.QR
	qr.Factorize(a)

	send := s[k-1]
	n := len(cur.X)
	t := Tangent{Dx: numeric.Zeros(n)}
	y := mat.NewVecDense(k, nil)
	c := mat.NewVecDense(3, nil)

	deriv := func() (float64, bool) {
		if err := qr.SolveVecTo(c, false, y); err != nil {
			return 0, false
		}
		return c.AtVec(1) + 2*c.AtVec(2)*send, true
	}

	for col := 0; col < n; col++ {
		for i := 0; i < k; i++ {
			y.SetVec(i, pl.points[i].X[col])
		}
		d, ok := deriv()
		if !ok {
			return secantBetween(cur, prev, old, theta), nil
		}
		t.Dx[col] = d
	}
	for i := 0; i < k; i++ {
		y.SetVec(i, pl.points[i].P)
	}
	d, ok := deriv()
	if !ok {
		return secantBetween(cur, prev, old, theta), nil
	}
	t.Dp = d

	return t.Normalize(theta).orient(old, theta), nil
}

func (pl *Polynomial) record(pt numeric.Point) {
	if k := len(pl.points); k > 0 {
		last := pl.points[k-1]
		if last.P == pt.P && last.X.Sub(pt.X).Norm() == 0 {
			return
		}
	}
	pl.points = append(pl.points, pt.Clone())
	if len(pl.points) > pl.Window {
		pl.points = pl.points[1:]
	}
}
