package predictor

import (
	"math"

	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// Natural advances the parameter only: dx = 0 and dp fixed positive, so
// the signed step ds·τ travels in the direction of sign(ds). It cannot
// pass turning points; that is a documented limitation of the strategy,
// not a defect.
type Natural struct{}

func NewNatural() *Natural { return &Natural{} }

func (n *Natural) Tangent(sys problem.System, cur, prev numeric.Point, old Tangent, theta, ds float64) (Tangent, error) {
	t := Tangent{Dx: numeric.Zeros(len(cur.X)), Dp: 1 / math.Sqrt(1-theta)}
	return t, nil
}
