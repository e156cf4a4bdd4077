package problem

import "github.com/san-kum/contin/internal/numeric"

// Configurable exposes named tunable parameters on a model.
type Configurable interface {
	SetParam(name string, value float64)
	Param(name string) float64
}

// Lens isolates one scalar coordinate inside a larger parameter set.
type Lens struct {
	Get func() float64
	Set func(float64)
}

// ParamLens builds a lens over one named parameter of a Configurable.
func ParamLens(c Configurable, name string) Lens {
	return Lens{
		Get: func() float64 { return c.Param(name) },
		Set: func(v float64) { c.SetParam(name, v) },
	}
}

// bound projects a named parameter of a Configurable model as the
// continuation parameter of a System whose residual otherwise ignores p.
type bound struct {
	sys  System
	lens Lens
}

// BindParam continues sys in the named parameter of cfg. The returned
// system writes p through the lens before every evaluation.
func BindParam(sys System, cfg Configurable, name string) System {
	return &bound{sys: sys, lens: ParamLens(cfg, name)}
}

func (b *bound) Dim() int { return b.sys.Dim() }

func (b *bound) Residual(x numeric.Vec, p float64) numeric.Vec {
	b.lens.Set(p)
	return b.sys.Residual(x, p)
}
