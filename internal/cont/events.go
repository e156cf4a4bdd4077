package cont

import (
	"math"

	"github.com/san-kum/contin/internal/numeric"
)

// Event is a user-supplied scalar indicator monitored along the branch. A
// crossing between two consecutive accepted steps flags a special point.
type Event interface {
	Name() string
	Eval(x numeric.Vec, p float64) []float64
	Crossed(prev, cur []float64) bool
}

// ContinuousEvent fires on a sign change of a smooth indicator.
type ContinuousEvent struct {
	EvName string
	Fn     func(x numeric.Vec, p float64) float64
}

func (e ContinuousEvent) Name() string { return e.EvName }

func (e ContinuousEvent) Eval(x numeric.Vec, p float64) []float64 {
	return []float64{e.Fn(x, p)}
}

func (e ContinuousEvent) Crossed(prev, cur []float64) bool {
	return len(prev) == 1 && len(cur) == 1 && prev[0]*cur[0] < 0
}

// DiscreteEvent fires on any change of an integer-valued indicator.
type DiscreteEvent struct {
	EvName string
	Fn     func(x numeric.Vec, p float64) float64
}

func (e DiscreteEvent) Name() string { return e.EvName }

func (e DiscreteEvent) Eval(x numeric.Vec, p float64) []float64 {
	return []float64{math.Round(e.Fn(x, p))}
}

func (e DiscreteEvent) Crossed(prev, cur []float64) bool {
	return len(prev) == 1 && len(cur) == 1 && prev[0] != cur[0]
}

// CompositeMode selects how sub-event crossings aggregate.
type CompositeMode int

const (
	ModeAny   CompositeMode = iota // OR: any sub-event crossing fires
	ModeAll                        // AND: every sub-event must cross
	ModeFirst                      // only the first sub-event is decisive
)

// CompositeEvent aggregates sub-events under Mode.
type CompositeEvent struct {
	EvName string
	Mode   CompositeMode
	Subs   []Event
}

func (e CompositeEvent) Name() string { return e.EvName }

func (e CompositeEvent) Eval(x numeric.Vec, p float64) []float64 {
	var vals []float64
	for _, sub := range e.Subs {
		vals = append(vals, sub.Eval(x, p)...)
	}
	return vals
}

func (e CompositeEvent) Crossed(prev, cur []float64) bool {
	off := 0
	all := true
	for i, sub := range e.Subs {
		w := width(sub)
		if off+w > len(prev) || off+w > len(cur) {
			return false
		}
		crossed := sub.Crossed(prev[off:off+w], cur[off:off+w])
		off += w

		switch e.Mode {
		case ModeAny:
			if crossed {
				return true
			}
		case ModeFirst:
			if i == 0 {
				return crossed
			}
		case ModeAll:
			all = all && crossed
		}
	}
	return e.Mode == ModeAll && all && len(e.Subs) > 0
}

// width is the number of indicator slots a sub-event occupies.
func width(ev Event) int {
	if c, ok := ev.(CompositeEvent); ok {
		w := 0
		for _, s := range c.Subs {
			w += width(s)
		}
		return w
	}
	return 1
}
