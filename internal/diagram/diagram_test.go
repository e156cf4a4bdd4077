package diagram

import (
	"strings"
	"testing"

	"github.com/san-kum/contin/internal/cont"
	"github.com/san-kum/contin/internal/numeric"
)

func TestRenderEmpty(t *testing.T) {
	if out := Render(nil, 40, 10); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
	if out := Render([]*cont.Branch{{}}, 40, 10); out != "" {
		t.Errorf("expected empty output for branch without points, got %q", out)
	}
}

func TestRenderMarksStability(t *testing.T) {
	br := &cont.Branch{
		Summaries: []cont.Summary{
			{P: 0, Amplitude: 0, Stable: true},
			{P: 1, Amplitude: 1, Stable: false},
		},
	}
	out := Render([]*cont.Branch{br}, 20, 8)
	if !strings.ContainsRune(out, '•') {
		t.Error("stable marker missing")
	}
	if !strings.ContainsRune(out, '·') {
		t.Error("unstable marker missing")
	}
	if !strings.Contains(out, "p: [0, 1]") {
		t.Errorf("axis legend missing: %q", out)
	}
}

func TestRenderSpecialOnTop(t *testing.T) {
	br := &cont.Branch{
		Summaries: []cont.Summary{
			{P: 0, Amplitude: 0, Stable: true},
			{P: 1, Amplitude: 1, Stable: true},
		},
		Specials: []cont.SpecialPoint{
			{Kind: cont.KindFold, X: numeric.Vec{1}, P: 1},
		},
	}
	out := Render([]*cont.Branch{br}, 20, 8)
	if !strings.ContainsRune(out, 'F') {
		t.Error("fold marker missing")
	}
}
