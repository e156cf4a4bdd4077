package newton

import (
	"fmt"
	"math"

	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// fdEps is the fixed step for directional derivatives of the deflation
// factor.
const fdEps = 1e-8

// DeflationOperator penalizes a list of known roots through the scalar
// factor
//
//	M(x) = Π_i ( <x-r_i, x-r_i>^(-power) + shift )
//
// M is finite whenever x differs from every stored root, and bounded below
// by shift^len(roots). The bilinear form must be symmetric with positive
// diagonal for the factor to stay positive.
type DeflationOperator struct {
	roots []numeric.Vec
	power float64
	shift float64
	dot   func(a, b numeric.Vec) float64
}

func NewDeflation(power, shift float64, roots ...numeric.Vec) *DeflationOperator {
	d := &DeflationOperator{
		power: power,
		shift: shift,
		dot:   func(a, b numeric.Vec) float64 { return a.Dot(b) },
	}
	for _, r := range roots {
		d.Push(r)
	}
	return d
}

// SetDot replaces the Euclidean bilinear form.
func (d *DeflationOperator) SetDot(dot func(a, b numeric.Vec) float64) { d.dot = dot }

func (d *DeflationOperator) Push(r numeric.Vec) { d.roots = append(d.roots, r.Clone()) }

func (d *DeflationOperator) Pop() numeric.Vec {
	if len(d.roots) == 0 {
		return nil
	}
	r := d.roots[len(d.roots)-1]
	d.roots = d.roots[:len(d.roots)-1]
	return r
}

func (d *DeflationOperator) Remove(i int) {
	if i < 0 || i >= len(d.roots) {
		return
	}
	d.roots = append(d.roots[:i], d.roots[i+1:]...)
}

// Clear drops all roots and installs the given replacement set.
func (d *DeflationOperator) Clear(roots ...numeric.Vec) {
	d.roots = d.roots[:0]
	for _, r := range roots {
		d.Push(r)
	}
}

func (d *DeflationOperator) Len() int { return len(d.roots) }

func (d *DeflationOperator) Roots() []numeric.Vec {
	out := make([]numeric.Vec, len(d.roots))
	for i, r := range d.roots {
		out[i] = r.Clone()
	}
	return out
}

// Value evaluates M(x). With no stored roots M is identically 1.
func (d *DeflationOperator) Value(x numeric.Vec) float64 {
	m := 1.0
	for _, r := range d.roots {
		diff := x.Sub(r)
		m *= math.Pow(d.dot(diff, diff), -d.power) + d.shift
	}
	return m
}

// dirDeriv estimates the directional derivative dM(x)·h by a one-sided
// finite difference.
func (d *DeflationOperator) dirDeriv(x, h numeric.Vec) float64 {
	if len(d.roots) == 0 {
		return 0
	}
	xh := x.Clone()
	xh.Axpy(fdEps, h)
	return (d.Value(xh) - d.Value(x)) / fdEps
}

// DeflatedSystem wraps a system with a deflation factor:
// G(x, p) = M(x)·F(x, p).
type DeflatedSystem struct {
	Sys problem.System
	Op  *DeflationOperator
}

func NewDeflatedSystem(sys problem.System, op *DeflationOperator) (*DeflatedSystem, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: nil deflation operator", numeric.ErrInvalidSettings)
	}
	return &DeflatedSystem{Sys: sys, Op: op}, nil
}

func (d *DeflatedSystem) Dim() int { return d.Sys.Dim() }

func (d *DeflatedSystem) Residual(x numeric.Vec, p float64) numeric.Vec {
	return d.Sys.Residual(x, p).Scale(d.Op.Value(x))
}

// ApplyJacobian computes dG·du = M(x)·dF·du + (dM·du)·F(x).
func (d *DeflatedSystem) ApplyJacobian(x numeric.Vec, p float64, du numeric.Vec) numeric.Vec {
	if d.Op.Len() == 0 {
		return problem.ApplyJacobian(d.Sys, x, p, du)
	}
	out := problem.ApplyJacobian(d.Sys, x, p, du).Scale(d.Op.Value(x))
	out.Axpy(d.Op.dirDeriv(x, du), d.Sys.Residual(x, p))
	return out
}
