// Package export renders solution branches to SVG.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/contin/internal/cont"
)

var branchColors = []string{"#00ff88", "#00ccff", "#ff00ff", "#ffcc00", "#ff4444", "#ffffff"}

// BranchesToSVG draws every branch as a polyline of (p, amplitude)
// points, special points overlaid as circles.
func BranchesToSVG(branches []*cont.Branch, width, height int) string {
	minP, maxP, minA, maxA, any := svgBounds(branches)
	if !any {
		return ""
	}

	// Padding keeps curves off the frame.
	rangeP := maxP - minP
	rangeA := maxA - minA
	if rangeP == 0 {
		rangeP = 1
	}
	if rangeA == 0 {
		rangeA = 1
	}
	minP -= rangeP * 0.1
	maxP += rangeP * 0.1
	minA -= rangeA * 0.1
	maxA += rangeA * 0.1
	rangeP = maxP - minP
	rangeA = maxA - minA

	toX := func(p float64) float64 { return (p - minP) / rangeP * float64(width) }
	toY := func(a float64) float64 { return float64(height) - (a-minA)/rangeA*float64(height) }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, br := range branches {
		if len(br.Summaries) < 2 {
			continue
		}
		color := branchColors[i%len(branchColors)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for j, sum := range br.Summaries {
			x := toX(sum.P)
			y := toY(sum.Amplitude)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	for _, br := range branches {
		for _, sp := range br.Specials {
			amp := sp.X.Norm()
			if len(sp.X) == 1 {
				amp = sp.X[0]
			}
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4" fill="none" stroke="#ffffff" stroke-width="1.5"/>
`, toX(sp.P), toY(amp)))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// WriteSVG renders the branches and writes the result to path.
func WriteSVG(path string, branches []*cont.Branch, width, height int) error {
	svg := BranchesToSVG(branches, width, height)
	if svg == "" {
		return fmt.Errorf("export: no branch data to render")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}

func svgBounds(branches []*cont.Branch) (minP, maxP, minA, maxA float64, any bool) {
	for _, br := range branches {
		for _, sum := range br.Summaries {
			if !any {
				minP, maxP = sum.P, sum.P
				minA, maxA = sum.Amplitude, sum.Amplitude
				any = true
				continue
			}
			if sum.P < minP {
				minP = sum.P
			}
			if sum.P > maxP {
				maxP = sum.P
			}
			if sum.Amplitude < minA {
				minA = sum.Amplitude
			}
			if sum.Amplitude > maxA {
				maxA = sum.Amplitude
			}
		}
	}
	return
}
