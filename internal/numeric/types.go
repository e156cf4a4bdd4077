package numeric

import "math"

// Vec is a dense state vector.
type Vec []float64

func (v Vec) Clone() Vec {
	c := make(Vec, len(v))
	copy(c, v)
	return c
}

func (v Vec) Dot(w Vec) float64 {
	s := 0.0
	for i := range v {
		s += v[i] * w[i]
	}
	return s
}

func (v Vec) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vec) Add(w Vec) Vec {
	out := make(Vec, len(v))
	for i := range v {
		out[i] = v[i] + w[i]
	}
	return out
}

func (v Vec) Sub(w Vec) Vec {
	out := make(Vec, len(v))
	for i := range v {
		out[i] = v[i] - w[i]
	}
	return out
}

func (v Vec) Scale(a float64) Vec {
	out := make(Vec, len(v))
	for i := range v {
		out[i] = a * v[i]
	}
	return out
}

// Axpy adds a*w to v in place.
func (v Vec) Axpy(a float64, w Vec) {
	for i := range v {
		v[i] += a * w[i]
	}
}

func (v Vec) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func Zeros(n int) Vec { return make(Vec, n) }

// Point is a point on a solution curve: a state vector paired with the
// continuation parameter value.
type Point struct {
	X Vec
	P float64
}

func (p Point) Clone() Point {
	return Point{X: p.X.Clone(), P: p.P}
}
