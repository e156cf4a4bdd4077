package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/contin/internal/cont"
	"github.com/san-kum/contin/internal/numeric"
)

func testBranch() *cont.Branch {
	return &cont.Branch{
		Summaries: []cont.Summary{
			{Step: 0, P: -1.0, Amplitude: 0.0, Ds: 0.01, NewtonIters: 2, NUnstable: 0, Stable: true},
			{Step: 1, P: -0.99, Amplitude: 0.01, Ds: 0.01, NewtonIters: 3, NUnstable: 1},
		},
		Specials: []cont.SpecialPoint{
			{Kind: cont.KindFold, StepBefore: 0, StepAfter: 1, PLow: -1.0, PHigh: -0.99,
				X: numeric.Vec{0.01}, P: -0.99, Status: cont.StatusGuess},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("fold", "secant", cont.DefaultSettings(), 42, []*cont.Branch{testBranch()})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Problem != "fold" {
		t.Errorf("expected problem 'fold', got '%s'", meta.Problem)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Branches != 1 || meta.Specials != 1 {
		t.Errorf("expected 1 branch / 1 special, got %d / %d", meta.Branches, meta.Specials)
	}

	sums, err := st.LoadBranch(runID, 0)
	if err != nil {
		t.Fatalf("load branch failed: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sums))
	}
	if sums[1].P != -0.99 || sums[1].NewtonIters != 3 {
		t.Errorf("summary mismatch: %+v", sums[1])
	}
	if !sums[0].Stable || sums[1].Stable {
		t.Error("stability flags not round-tripped")
	}

	specials, err := st.LoadSpecials(runID)
	if err != nil {
		t.Fatalf("load specials failed: %v", err)
	}
	if len(specials) != 1 || specials[0].Kind != cont.KindFold {
		t.Errorf("specials mismatch: %+v", specials)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save("fold", "secant", cont.DefaultSettings(), 42, []*cont.Branch{testBranch()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("fold", "secant", cont.DefaultSettings(), 42, []*cont.Branch{testBranch()})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "branch_0.csv", "special_points.json"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}
