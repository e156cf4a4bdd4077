package problem

import (
	"fmt"
	"sort"

	"github.com/san-kum/contin/internal/numeric"
)

// Setup bundles a system with a starting guess for continuation.
type Setup struct {
	System System
	X0     numeric.Vec
	P0     float64
}

type Registry struct {
	problems map[string]func() Setup
}

func NewRegistry() *Registry {
	r := &Registry{problems: make(map[string]func() Setup)}

	r.problems["quadratic"] = func() Setup {
		return Setup{System: NewQuadratic(), X0: numeric.Vec{1.0}, P0: 1.0}
	}
	r.problems["pitchfork"] = func() Setup {
		return Setup{System: NewPitchfork(), X0: numeric.Vec{0.001}, P0: -1.0}
	}
	r.problems["fold"] = func() Setup {
		return Setup{System: NewFold(), X0: numeric.Vec{-1.0}, P0: 1.0}
	}
	r.problems["transcritical"] = func() Setup {
		return Setup{System: NewTranscritical(), X0: numeric.Vec{-1.0}, P0: -1.0}
	}
	r.problems["cusp"] = func() Setup {
		// Continue in the secondary parameter q; the S-shaped response
		// curve has two folds for p > 0.
		c := NewCusp()
		return Setup{System: BindParam(c, c, "q"), X0: numeric.Vec{1.2}, P0: 0.528}
	}
	r.problems["bratu"] = func() Setup {
		return Setup{System: NewBratu(20), X0: numeric.Zeros(20), P0: 0.1}
	}

	return r
}

func (r *Registry) Get(name string) (Setup, error) {
	fn, ok := r.problems[name]
	if !ok {
		return Setup{}, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
