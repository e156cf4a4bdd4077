// Package diagram renders solution branches as ASCII art: amplitude
// against parameter, all branches on one canvas, special points marked.
package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/contin/internal/cont"
)

// Marker characters by special point kind.
var kindMarks = map[cont.SpecialKind]rune{
	cont.KindFold:        'F',
	cont.KindHopf:        'H',
	cont.KindBranchPoint: 'B',
	cont.KindEvent:       'E',
}

// Render draws every branch onto a width x height canvas. Stable
// segments use a full dot, unstable ones a faint dot, and detected
// special points overwrite the curve with a kind letter.
func Render(branches []*cont.Branch, width, height int) string {
	if len(branches) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	pMin, pMax, aMin, aMax, any := bounds(branches)
	if !any {
		return ""
	}
	if pMax == pMin {
		pMax = pMin + 1
	}
	if aMax == aMin {
		aMax = aMin + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	plot := func(p, a float64, c rune) {
		col := int((p - pMin) / (pMax - pMin) * float64(width-1))
		row := height - 1 - int((a-aMin)/(aMax-aMin)*float64(height-1))
		if col >= 0 && col < width && row >= 0 && row < height {
			canvas[row][col] = c
		}
	}

	for _, br := range branches {
		for _, sum := range br.Summaries {
			c := '·'
			if sum.Stable {
				c = '•'
			}
			plot(sum.P, sum.Amplitude, c)
		}
	}

	// Specials go last so they stay visible on top of the curves.
	for _, br := range branches {
		for _, sp := range br.Specials {
			mark, ok := kindMarks[sp.Kind]
			if !ok {
				mark = '?'
			}
			amp := sp.X.Norm()
			if len(sp.X) == 1 {
				amp = sp.X[0]
			}
			plot(sp.P, amp, mark)
		}
	}

	var b strings.Builder
	for _, row := range canvas {
		b.WriteString(string(row) + "\n")
	}
	b.WriteString(strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("p: [%.3g, %.3g]  amplitude: [%.3g, %.3g]  (• stable, · unstable)\n",
		pMin, pMax, aMin, aMax))
	return b.String()
}

func bounds(branches []*cont.Branch) (pMin, pMax, aMin, aMax float64, any bool) {
	pMin, aMin = math.Inf(1), math.Inf(1)
	pMax, aMax = math.Inf(-1), math.Inf(-1)
	for _, br := range branches {
		for _, sum := range br.Summaries {
			pMin = math.Min(pMin, sum.P)
			pMax = math.Max(pMax, sum.P)
			aMin = math.Min(aMin, sum.Amplitude)
			aMax = math.Max(aMax, sum.Amplitude)
			any = true
		}
	}
	return
}
