package cont

import "github.com/san-kum/contin/internal/numeric"

// SpecialKind tags a recorded qualitative change along a branch.
type SpecialKind string

const (
	KindNone        SpecialKind = "none"
	KindFold        SpecialKind = "fold"
	KindHopf        SpecialKind = "hopf"
	KindBranchPoint SpecialKind = "branch-point"
	KindEvent       SpecialKind = "event"
)

// Localization status of a special point.
const (
	StatusGuess     = "guess"     // located by sign change only
	StatusConverged = "converged" // refined by bisection
)

// SpecialPoint records a detected bifurcation or user event, bracketed by
// the parameter interval [PLow, PHigh].
type SpecialPoint struct {
	Kind       SpecialKind `json:"kind"`
	StepBefore int         `json:"step_before"`
	StepAfter  int         `json:"step_after"`
	PLow       float64     `json:"p_low"`
	PHigh      float64     `json:"p_high"`
	X          numeric.Vec `json:"x"`
	P          float64     `json:"p"`
	Status     string      `json:"status"`
	Event      string      `json:"event,omitempty"`
}

// Summary is the per-step record appended for every accepted point.
type Summary struct {
	Step        int     `json:"step"`
	P           float64 `json:"p"`
	Amplitude   float64 `json:"amplitude"`
	Ds          float64 `json:"ds"`
	NewtonIters int     `json:"newton_iters"`
	LinearIters int     `json:"linear_iters"`
	NUnstable   int     `json:"n_unstable"`
	NImag       int     `json:"n_imag"`
	Stable      bool    `json:"stable"`
}

// EigenSnapshot is a sampled set of eigenvalues at one step.
type EigenSnapshot struct {
	Step   int          `json:"step"`
	Values []complex128 `json:"-"`
}

// Branch accumulates the accepted points of one solution curve. The
// summary sequence grows by exactly one entry per accepted step; special
// points reference step indices present in the summaries. The branch stays
// valid and inspectable after any failure.
type Branch struct {
	Summaries []Summary
	Specials  []SpecialPoint
	Solutions []numeric.Point
	Eigen     []EigenSnapshot
}

func (b *Branch) Len() int { return len(b.Summaries) }

func (b *Branch) Last() Summary {
	if len(b.Summaries) == 0 {
		return Summary{}
	}
	return b.Summaries[len(b.Summaries)-1]
}

// Folds counts recorded fold points.
func (b *Branch) Folds() int {
	n := 0
	for _, sp := range b.Specials {
		if sp.Kind == KindFold {
			n++
		}
	}
	return n
}
