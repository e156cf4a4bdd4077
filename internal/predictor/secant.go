package predictor

import (
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// Secant takes the difference of the last two accepted points, normalized
// and oriented along the previous tangent.
type Secant struct{}

func NewSecant() *Secant { return &Secant{} }

func (s *Secant) Tangent(sys problem.System, cur, prev numeric.Point, old Tangent, theta, ds float64) (Tangent, error) {
	return secantBetween(cur, prev, old, theta), nil
}
