package deflcont_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/contin/internal/cont"
	"github.com/san-kum/contin/internal/deflcont"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

func pitchforkConfig() deflcont.Config {
	cfg := deflcont.DefaultConfig()
	cfg.Settings.PMin = -0.5
	cfg.Settings.PMax = 1
	cfg.Settings.Ds = 0.02
	cfg.Settings.MaxSteps = 100
	cfg.MaxBranches = 6
	cfg.SpawnTries = 5
	cfg.Perturb = 0.5
	cfg.DuplicateTol = 1e-3
	return cfg
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*deflcont.Config)
	}{
		{"no branch budget", func(c *deflcont.Config) { c.MaxBranches = 0 }},
		{"zero duplicate tol", func(c *deflcont.Config) { c.DuplicateTol = 0 }},
		{"zero deflation power", func(c *deflcont.Config) { c.DeflationPower = 0 }},
		{"negative shift", func(c *deflcont.Config) { c.DeflationShift = -1 }},
		{"bad settings", func(c *deflcont.Config) { c.Settings.Theta = 2 }},
		{"bad newton", func(c *deflcont.Config) { c.Newton.Tol = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := deflcont.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, numeric.ErrInvalidSettings) {
				t.Errorf("err = %v, want ErrInvalidSettings", err)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := deflcont.DefaultConfig()
	cfg.MaxBranches = -1
	if _, err := deflcont.New(problem.NewPitchfork(), cfg); err == nil {
		t.Error("expected construction to fail")
	}
}

func TestRunRejectsOutOfBoundsStart(t *testing.T) {
	d, err := deflcont.New(problem.NewPitchfork(), pitchforkConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Run(context.Background(), numeric.Zeros(1), 5); !errors.Is(err, numeric.ErrParameterBounds) {
		t.Errorf("err = %v, want ErrParameterBounds", err)
	}
}

func TestRunDiscoversPitchforkBranches(t *testing.T) {
	d, err := deflcont.New(problem.NewPitchfork(), pitchforkConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Start on the trivial branch x = 0 below the pitchfork; the
	// nontrivial branches x = ±sqrt(p) only exist for p > 0 and must be
	// found by deflated spawning.
	branches, err := d.Run(context.Background(), numeric.Zeros(1), -0.5)
	if err != nil {
		t.Fatal(err)
	}

	if len(branches) < 2 {
		t.Fatalf("got %d branches, want the trivial branch plus spawned ones", len(branches))
	}
	for i, b := range branches {
		if b.Len() == 0 {
			t.Errorf("branch %d recorded no points", i)
		}
	}

	// The trivial branch tracks x = 0 across the whole window.
	if amp := math.Abs(branches[0].Last().Amplitude); amp > 1e-6 {
		t.Errorf("trivial branch drifted to amplitude %g", amp)
	}

	// At least one spawned branch settled on a nontrivial root.
	found := false
	for _, b := range branches[1:] {
		last := b.Last()
		if math.Abs(last.Amplitude) > 0.3 {
			// On x^3 = p*x the nontrivial roots satisfy x^2 = p.
			if math.Abs(last.Amplitude*last.Amplitude-last.P) > 1e-6 {
				t.Errorf("branch point (%g, %g) not on x^2 = p", last.Amplitude, last.P)
			}
			found = true
		}
	}
	if !found {
		t.Error("no nontrivial branch discovered")
	}
}

func TestRunFlagsStabilityChangeOnTrivialBranch(t *testing.T) {
	cfg := pitchforkConfig()
	cfg.Settings.DetectBifurcation = cont.DetectFlag

	d, err := deflcont.New(problem.NewPitchfork(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	branches, err := d.Run(context.Background(), numeric.Zeros(1), -0.5)
	if err != nil {
		t.Fatal(err)
	}

	// The x = 0 branch loses an unstable eigenvalue at p = 0.
	var bp *cont.SpecialPoint
	for i := range branches[0].Specials {
		if branches[0].Specials[i].Kind == cont.KindBranchPoint {
			bp = &branches[0].Specials[i]
			break
		}
	}
	if bp == nil {
		t.Fatal("no branch point flagged on the trivial branch")
	}
	if bp.PLow > 0 || bp.PHigh < 0 {
		t.Errorf("bracket [%g, %g] does not contain 0", bp.PLow, bp.PHigh)
	}
	if bp.Status != cont.StatusGuess {
		t.Errorf("status = %q, want %q without bisection", bp.Status, cont.StatusGuess)
	}
}

func TestRunBranchCapRespected(t *testing.T) {
	cfg := pitchforkConfig()
	cfg.MaxBranches = 1

	d, err := deflcont.New(problem.NewPitchfork(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	branches, err := d.Run(context.Background(), numeric.Zeros(1), -0.5)
	if err != nil {
		t.Fatal(err)
	}
	// With the population capped at one, spawn scans never run and the
	// trivial branch is all there is.
	if len(branches) != 1 {
		t.Errorf("got %d branches with a cap of 1", len(branches))
	}
}

func TestRunHonorsContextCancel(t *testing.T) {
	d, err := deflcont.New(problem.NewPitchfork(), pitchforkConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Run(ctx, numeric.Zeros(1), -0.5); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
