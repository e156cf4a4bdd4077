package cont

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

func TestNewRunnerRejectsBadSettings(t *testing.T) {
	set := DefaultSettings()
	set.Theta = 0
	if _, err := NewRunner(problem.NewQuadratic(), nil, set, newton.DefaultConfig()); !errors.Is(err, numeric.ErrInvalidSettings) {
		t.Errorf("err = %v, want ErrInvalidSettings", err)
	}

	ncfg := newton.DefaultConfig()
	ncfg.Tol = 0
	if _, err := NewRunner(problem.NewQuadratic(), nil, DefaultSettings(), ncfg); !errors.Is(err, numeric.ErrInvalidSettings) {
		t.Errorf("err = %v, want ErrInvalidSettings", err)
	}
}

func TestRunRejectsOutOfBoundsStart(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = 0, 1

	r, err := NewRunner(problem.NewQuadratic(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	branch, err := r.Run(context.Background(), numeric.Vec{1}, 2)
	if !errors.Is(err, numeric.ErrParameterBounds) {
		t.Errorf("err = %v, want ErrParameterBounds", err)
	}
	if branch == nil || branch.Len() != 0 {
		t.Error("branch should be returned empty")
	}
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = 0.5, 10
	set.Ds = 0.01
	set.DsMax = 0.02
	set.MaxSteps = 5

	r, err := NewRunner(problem.NewQuadratic(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	branch, err := r.Run(context.Background(), numeric.Vec{1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	// One record per accepted step plus the bootstrap point.
	if branch.Len() != set.MaxSteps+1 {
		t.Errorf("branch has %d points, want %d", branch.Len(), set.MaxSteps+1)
	}
	if branch.Last().P <= branch.Summaries[0].P {
		t.Error("parameter did not advance along the branch")
	}
}

func TestRunTracksFoldAroundTurningPoint(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = -0.5, 2
	set.Ds = -0.01
	set.DsMax = 0.05
	set.MaxSteps = 400
	set.DetectFold = true

	r, err := NewRunner(problem.NewFold(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	// Start on the lower half of p = x^2 and walk through the turning
	// point at the origin.
	branch, err := r.Run(context.Background(), numeric.Vec{-1}, 1)
	if err != nil {
		t.Fatal(err)
	}

	if branch.Folds() < 1 {
		t.Fatal("no fold recorded")
	}
	var fold SpecialPoint
	for _, sp := range branch.Specials {
		if sp.Kind == KindFold {
			fold = sp
			break
		}
	}
	if fold.PLow > 0.05 {
		t.Errorf("fold bracketed at p >= %g, want near 0", fold.PLow)
	}
	if fold.PHigh < fold.PLow {
		t.Errorf("inverted bracket [%g, %g]", fold.PLow, fold.PHigh)
	}

	// Continuation must come back up the other half of the parabola.
	if last := branch.Last(); last.Amplitude <= 0 {
		t.Errorf("final amplitude = %g, want positive after rounding the fold", last.Amplitude)
	}
}

func TestRunBisectsBranchPoint(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = -1, 1
	set.MaxSteps = 400
	set.DetectBifurcation = DetectBisect

	r, err := NewRunner(problem.NewPitchfork(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	// Along the trivial branch x = 0 the Jacobian is -p: one unstable
	// eigenvalue for p < 0, none after the pitchfork at p = 0.
	branch, err := r.Run(context.Background(), numeric.Zeros(1), -1)
	if err != nil {
		t.Fatal(err)
	}

	var bp *SpecialPoint
	for i := range branch.Specials {
		if branch.Specials[i].Kind == KindBranchPoint {
			bp = &branch.Specials[i]
			break
		}
	}
	if bp == nil {
		t.Fatal("no branch point recorded")
	}
	if bp.Status != StatusConverged {
		t.Errorf("status = %q, want %q after bisection", bp.Status, StatusConverged)
	}
	if bp.PLow > 0 || bp.PHigh < 0 {
		t.Errorf("bracket [%g, %g] does not contain the pitchfork at 0", bp.PLow, bp.PHigh)
	}
	if bp.PHigh-bp.PLow > 1e-6 {
		t.Errorf("bracket width %g, want refined below 1e-6", bp.PHigh-bp.PLow)
	}
	if branch.Folds() != 0 {
		t.Errorf("recorded %d folds on the trivial branch", branch.Folds())
	}
}

func TestRunLocatesEventCrossing(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = 0.5, 3
	set.MaxSteps = 300

	r, err := NewRunner(problem.NewTranscritical(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r.AddEvent(ContinuousEvent{
		EvName: "threshold",
		Fn:     func(x numeric.Vec, p float64) float64 { return x[0] - 1.5 },
	})

	// Follow x = p upward; the event fires when the state passes 1.5.
	branch, err := r.Run(context.Background(), numeric.Vec{1}, 1)
	if err != nil {
		t.Fatal(err)
	}

	var ev *SpecialPoint
	for i := range branch.Specials {
		if branch.Specials[i].Kind == KindEvent {
			ev = &branch.Specials[i]
			break
		}
	}
	if ev == nil {
		t.Fatal("event crossing not recorded")
	}
	if ev.Event != "threshold" {
		t.Errorf("event name = %q", ev.Event)
	}
	if math.Abs(ev.P-1.5) > 0.05 {
		t.Errorf("event located at p = %g, want near 1.5", ev.P)
	}
}

func TestRunFinalizeHookStops(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = 0.5, 10

	r, err := NewRunner(problem.NewQuadratic(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r.OnFinalize(func(st *State, b *Branch) bool { return st.Step < 3 })

	branch, err := r.Run(context.Background(), numeric.Vec{1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := branch.Last().Step; got != 3 {
		t.Errorf("stopped at step %d, want 3", got)
	}
}

func TestRunHonorsContextCancel(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = 0.5, 10

	r, err := NewRunner(problem.NewQuadratic(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, numeric.Vec{1}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunSaveHook(t *testing.T) {
	set := DefaultSettings()
	set.PMin, set.PMax = 0.5, 10
	set.MaxSteps = 4

	r, err := NewRunner(problem.NewQuadratic(), nil, set, newton.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var saved []float64
	r.OnSave(func(step int, pt numeric.Point) { saved = append(saved, pt.P) })

	if _, err := r.Run(context.Background(), numeric.Vec{1}, 1); err != nil {
		t.Fatal(err)
	}
	if len(saved) != set.MaxSteps {
		t.Errorf("save hook fired %d times, want %d", len(saved), set.MaxSteps)
	}
}
