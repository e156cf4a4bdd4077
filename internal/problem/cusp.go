package problem

import "github.com/san-kum/contin/internal/numeric"

// Cusp is the two-parameter normal form F(x) = q + p*x - x^3. Both
// parameters live in the model itself; the residual ignores the p
// argument, so continuation must reach a parameter through [BindParam].
type Cusp struct {
	P float64
	Q float64
}

func NewCusp() *Cusp {
	return &Cusp{P: 1.0, Q: 0.0}
}

func (c *Cusp) Dim() int { return 1 }

func (c *Cusp) Residual(x numeric.Vec, _ float64) numeric.Vec {
	return numeric.Vec{c.Q + c.P*x[0] - x[0]*x[0]*x[0]}
}

func (c *Cusp) SetParam(name string, value float64) {
	switch name {
	case "p":
		c.P = value
	case "q":
		c.Q = value
	}
}

func (c *Cusp) Param(name string) float64 {
	switch name {
	case "p":
		return c.P
	case "q":
		return c.Q
	}
	return 0
}
