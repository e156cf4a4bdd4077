package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/contin/internal/cont"
)

// ExportData is the JSON shape for a whole run: per-branch summary
// curves plus the special points of all branches.
type ExportData struct {
	Problem   string              `json:"problem"`
	Predictor string              `json:"predictor"`
	Ds        float64             `json:"ds"`
	PMin      float64             `json:"p_min"`
	PMax      float64             `json:"p_max"`
	Branches  [][]cont.Summary    `json:"branches"`
	Specials  []cont.SpecialPoint `json:"special_points"`
}

func buildExport(problem, predictor string, set cont.Settings, branches []*cont.Branch) ExportData {
	data := ExportData{
		Problem:   problem,
		Predictor: predictor,
		Ds:        set.Ds,
		PMin:      set.PMin,
		PMax:      set.PMax,
		Branches:  make([][]cont.Summary, len(branches)),
		Specials:  make([]cont.SpecialPoint, 0),
	}
	for i, br := range branches {
		data.Branches[i] = br.Summaries
		data.Specials = append(data.Specials, br.Specials...)
	}
	return data
}

func ExportJSON(path, problem, predictor string, set cont.Settings, branches []*cont.Branch) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, problem, predictor, set, branches)
}

func ExportJSONStdout(problem, predictor string, set cont.Settings, branches []*cont.Branch) error {
	return writeJSON(os.Stdout, problem, predictor, set, branches)
}

func writeJSON(w io.Writer, problem, predictor string, set cont.Settings, branches []*cont.Branch) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(problem, predictor, set, branches))
}

// ExportCSV writes all branches into one flat CSV with a branch index
// column, the shape plotting tools expect.
func ExportCSV(w io.Writer, branches []*cont.Branch) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"branch", "step", "p", "amplitude", "n_unstable", "stable"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, br := range branches {
		for _, sum := range br.Summaries {
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(sum.Step),
				strconv.FormatFloat(sum.P, 'g', -1, 64),
				strconv.FormatFloat(sum.Amplitude, 'g', -1, 64),
				strconv.Itoa(sum.NUnstable),
				strconv.FormatBool(sum.Stable),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func ExportCSVFile(path string, branches []*cont.Branch) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportCSV(file, branches)
}
