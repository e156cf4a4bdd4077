package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/contin/internal/cont"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Problem   string    `json:"problem"`
	Timestamp time.Time `json:"timestamp"`
	Seed      int64     `json:"seed"`
	Predictor string    `json:"predictor"`
	Ds        float64   `json:"ds"`
	PMin      float64   `json:"p_min"`
	PMax      float64   `json:"p_max"`
	Branches  int       `json:"branches"`
	Specials  int       `json:"special_points"`
}

// Save writes one run directory: metadata.json, one branch_N.csv per
// branch, and special_points.json collecting the detected points of all
// branches.
func (s *Store) Save(problem, predictor string, set cont.Settings, seed int64, branches []*cont.Branch) (string, error) {
	runID := fmt.Sprintf("%s_%d", problem, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	specials := make([]cont.SpecialPoint, 0)
	for _, br := range branches {
		specials = append(specials, br.Specials...)
	}

	meta := RunMetadata{
		ID:        runID,
		Problem:   problem,
		Timestamp: time.Now(),
		Seed:      seed,
		Predictor: predictor,
		Ds:        set.Ds,
		PMin:      set.PMin,
		PMax:      set.PMax,
		Branches:  len(branches),
		Specials:  len(specials),
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	for i, br := range branches {
		if err := s.saveBranch(runDir, i, br); err != nil {
			return "", err
		}
	}

	spFile, err := os.Create(filepath.Join(runDir, "special_points.json"))
	if err != nil {
		return "", err
	}
	defer spFile.Close()

	enc = json.NewEncoder(spFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(specials); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) saveBranch(runDir string, idx int, br *cont.Branch) error {
	f, err := os.Create(filepath.Join(runDir, fmt.Sprintf("branch_%d.csv", idx)))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"step", "p", "amplitude", "ds", "newton_iters", "linear_iters", "n_unstable", "stable"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, sum := range br.Summaries {
		row := []string{
			strconv.Itoa(sum.Step),
			strconv.FormatFloat(sum.P, 'g', -1, 64),
			strconv.FormatFloat(sum.Amplitude, 'g', -1, 64),
			strconv.FormatFloat(sum.Ds, 'g', -1, 64),
			strconv.Itoa(sum.NewtonIters),
			strconv.Itoa(sum.LinearIters),
			strconv.Itoa(sum.NUnstable),
			strconv.FormatBool(sum.Stable),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadBranch reads back the summaries of one saved branch.
func (s *Store) LoadBranch(runID string, idx int) ([]cont.Summary, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, fmt.Sprintf("branch_%d.csv", idx)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []cont.Summary{}, nil
	}

	sums := make([]cont.Summary, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 8 {
			continue
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		p, _ := strconv.ParseFloat(rec[1], 64)
		amp, _ := strconv.ParseFloat(rec[2], 64)
		ds, _ := strconv.ParseFloat(rec[3], 64)
		ni, _ := strconv.Atoi(rec[4])
		li, _ := strconv.Atoi(rec[5])
		nu, _ := strconv.Atoi(rec[6])
		stable, _ := strconv.ParseBool(rec[7])
		sums = append(sums, cont.Summary{
			Step:        step,
			P:           p,
			Amplitude:   amp,
			Ds:          ds,
			NewtonIters: ni,
			LinearIters: li,
			NUnstable:   nu,
			Stable:      stable,
		})
	}
	return sums, nil
}

// LoadSpecials reads back the special points of a saved run.
func (s *Store) LoadSpecials(runID string) ([]cont.SpecialPoint, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "special_points.json"))
	if err != nil {
		return nil, err
	}
	var specials []cont.SpecialPoint
	if err := json.Unmarshal(data, &specials); err != nil {
		return nil, err
	}
	return specials, nil
}
