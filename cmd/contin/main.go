package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/contin/internal/config"
	"github.com/san-kum/contin/internal/cont"
	"github.com/san-kum/contin/internal/deflcont"
	"github.com/san-kum/contin/internal/diagram"
	"github.com/san-kum/contin/internal/export"
	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/predictor"
	"github.com/san-kum/contin/internal/problem"
	"github.com/san-kum/contin/internal/storage"
	"github.com/san-kum/contin/internal/store"
	"github.com/san-kum/contin/internal/tui"
)

var (
	dataDir       string
	verbose       bool
	ds            float64
	dsMin         float64
	dsMax         float64
	pMin          float64
	pMax          float64
	p0Flag        float64
	maxSteps      int
	theta         float64
	predictorName string
	detectFold    bool
	detectLevel   int
	nEigen        int
	tol           float64
	maxIter       int
	seed          int64
	x0Flag        string
	configFile    string
	preset        string
	// deflated continuation
	maxBranches int
	spawnTries  int
	perturb     float64
	// plot / diagram
	branchIdx  int
	plotWidth  int
	plotHeight int
	outPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "contin",
		Short: "numerical continuation and bifurcation analysis",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".contin", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "continue one solution branch",
		Args:  cobra.ExactArgs(1),
		RunE:  runContinuation,
	}
	addContinuationFlags(runCmd)

	deflatedCmd := &cobra.Command{
		Use:   "deflated [problem]",
		Short: "deflated continuation over all discoverable branches",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeflated,
	}
	addContinuationFlags(deflatedCmd)
	deflatedCmd.Flags().IntVar(&maxBranches, "max-branches", 10, "branch population cap")
	deflatedCmd.Flags().IntVar(&spawnTries, "spawn-tries", 3, "deflated searches per branch per step")
	deflatedCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "spawn seed perturbation amplitude")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one branch of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&branchIdx, "branch", 0, "branch index")

	diagramCmd := &cobra.Command{
		Use:   "diagram [run_id]",
		Short: "ASCII solution diagram of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  diagramRun,
	}
	diagramCmd.Flags().IntVar(&plotWidth, "width", 80, "diagram width")
	diagramCmd.Flags().IntVar(&plotHeight, "height", 24, "diagram height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSVRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the solution diagram to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVGRun,
	}
	exportSVGCmd.Flags().StringVar(&outPath, "out", "diagram.svg", "output path")
	exportSVGCmd.Flags().IntVar(&plotWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&plotHeight, "height", 600, "image height")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list registered problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := problem.NewRegistry()
			for _, name := range reg.List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "continue a branch with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addContinuationFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [problem]",
		Short: "time continuation at several step sizes",
		Args:  cobra.ExactArgs(1),
		RunE:  benchProblem,
	}

	rootCmd.AddCommand(runCmd, deflatedCmd, listCmd, plotCmd, diagramCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, problemsCmd, presetsCmd, liveCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addContinuationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&ds, "ds", cont.DefaultDs, "initial step size")
	cmd.Flags().Float64Var(&dsMin, "ds-min", cont.DefaultDsMin, "minimum step size")
	cmd.Flags().Float64Var(&dsMax, "ds-max", cont.DefaultDsMax, "maximum step size")
	cmd.Flags().Float64Var(&pMin, "p-min", -1, "lower parameter bound")
	cmd.Flags().Float64Var(&pMax, "p-max", 1, "upper parameter bound")
	cmd.Flags().Float64Var(&p0Flag, "p0", 0, "initial parameter (default: problem setup)")
	cmd.Flags().IntVar(&maxSteps, "steps", 100, "maximum continuation steps")
	cmd.Flags().Float64Var(&theta, "theta", cont.DefaultTheta, "arclength weighting")
	cmd.Flags().StringVar(&predictorName, "predictor", "secant", "predictor: natural, secant, bordered, polynomial")
	cmd.Flags().BoolVar(&detectFold, "detect-fold", true, "detect folds")
	cmd.Flags().IntVar(&detectLevel, "detect", cont.DetectFlag, "bifurcation detection level 0-3")
	cmd.Flags().IntVar(&nEigen, "nev", 0, "eigenvalues per step (0: all)")
	cmd.Flags().Float64Var(&tol, "tol", config.DefaultTol, "newton tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIter, "newton iteration cap")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&x0Flag, "x0", "", "initial state, comma-separated")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// resolveConfig layers preset, config file, and flags into one Config.
// Flags the user set explicitly win over the file; the file wins over
// the preset.
func resolveConfig(cmd *cobra.Command, problemName string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		pc := config.GetPreset(problemName, preset)
		if pc == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(problemName))
		}
		cfg = pc
	}

	if configFile != "" {
		fc, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fc
	}

	cfg.Problem = problemName

	set := &cfg.Continuation
	flagFloat := func(name string, dst *float64, v float64) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	flagFloat("ds", &set.Ds, ds)
	flagFloat("ds-min", &set.DsMin, dsMin)
	flagFloat("ds-max", &set.DsMax, dsMax)
	flagFloat("p-min", &set.PMin, pMin)
	flagFloat("p-max", &set.PMax, pMax)
	flagFloat("theta", &set.Theta, theta)
	flagFloat("tol", &cfg.Newton.Tol, tol)
	if cmd.Flags().Changed("steps") {
		set.MaxSteps = maxSteps
	}
	if cmd.Flags().Changed("detect-fold") {
		set.DetectFold = detectFold
	}
	if cmd.Flags().Changed("detect") {
		set.DetectBifurcation = detectLevel
	}
	if cmd.Flags().Changed("nev") {
		set.NEigen = nEigen
	}
	if cmd.Flags().Changed("max-iter") {
		cfg.Newton.MaxIter = maxIter
	}
	if cmd.Flags().Changed("predictor") {
		cfg.Predictor = predictorName
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("x0") {
		x0, err := parseVec(x0Flag)
		if err != nil {
			return nil, err
		}
		cfg.InitState = x0
	}
	if cmd.Flags().Changed("p0") {
		p := p0Flag
		cfg.InitParam = &p
	}

	return cfg, nil
}

func parseVec(s string) (numeric.Vec, error) {
	parts := strings.Split(s, ",")
	v := make(numeric.Vec, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad x0 component %q: %w", part, err)
		}
		v = append(v, f)
	}
	return v, nil
}

func buildPredictor(name string) (predictor.Predictor, error) {
	switch name {
	case "natural":
		return predictor.NewNatural(), nil
	case "secant", "":
		return predictor.NewSecant(), nil
	case "bordered":
		return predictor.NewBordered(nil), nil
	case "polynomial":
		return predictor.NewPolynomial(4), nil
	default:
		return nil, fmt.Errorf("unknown predictor: %s", name)
	}
}

// resolveStart picks the starting point: config overrides, then the
// registered problem setup.
func resolveStart(cfg *config.Config, setup problem.Setup) (numeric.Vec, float64) {
	x0 := setup.X0
	if len(cfg.InitState) > 0 {
		x0 = numeric.Vec(cfg.InitState)
	}
	p0 := setup.P0
	if cfg.InitParam != nil {
		p0 = *cfg.InitParam
	}
	return x0, p0
}

func runContinuation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	setup, err := problem.NewRegistry().Get(cfg.Problem)
	if err != nil {
		return err
	}
	pred, err := buildPredictor(cfg.Predictor)
	if err != nil {
		return err
	}

	runner, err := cont.NewRunner(setup.System, pred, cfg.Continuation, cfg.NewtonSettings())
	if err != nil {
		return err
	}
	logger := newLogger()
	runner.SetLogger(logger)

	x0, p0 := resolveStart(cfg, setup)

	fmt.Printf("continuing %s from p = %g...\n", cfg.Problem, p0)
	start := time.Now()
	branch, err := runner.Run(context.Background(), x0, p0)
	elapsed := time.Since(start)
	if err != nil {
		if branch == nil || branch.Len() == 0 {
			return err
		}
		logger.Warn("continuation stopped early", "err", err)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg.Problem, cfg.Predictor, cfg.Continuation, cfg.Seed, []*cont.Branch{branch})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", branch.Len())
	printSpecials(branch.Specials)
	return nil
}

func runDeflated(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-branches") {
		cfg.Deflation.MaxBranches = maxBranches
	}
	if cmd.Flags().Changed("spawn-tries") {
		cfg.Deflation.SpawnTries = spawnTries
	}
	if cmd.Flags().Changed("perturb") {
		cfg.Deflation.Perturb = perturb
	}

	setup, err := problem.NewRegistry().Get(cfg.Problem)
	if err != nil {
		return err
	}

	driver, err := deflcont.New(setup.System, cfg.DeflatedSettings())
	if err != nil {
		return err
	}
	driver.SetLogger(newLogger())

	x0, p0 := resolveStart(cfg, setup)

	fmt.Printf("deflated continuation of %s from p = %g...\n", cfg.Problem, p0)
	start := time.Now()
	branches, err := driver.Run(context.Background(), x0, p0)
	elapsed := time.Since(start)
	if err != nil && len(branches) == 0 {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg.Problem, cfg.Predictor, cfg.Continuation, cfg.Seed, branches)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("branches: %d\n", len(branches))
	for i, br := range branches {
		fmt.Printf("  branch %d: %d steps, %d special points\n", i, br.Len(), len(br.Specials))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	setup, err := problem.NewRegistry().Get(cfg.Problem)
	if err != nil {
		return err
	}
	pred, err := buildPredictor(cfg.Predictor)
	if err != nil {
		return err
	}

	runner, err := cont.NewRunner(setup.System, pred, cfg.Continuation, cfg.NewtonSettings())
	if err != nil {
		return err
	}

	x0, p0 := resolveStart(cfg, setup)

	branch, err := tui.Run(context.Background(), runner, cfg.Problem, cfg.Continuation, x0, p0)
	if err != nil {
		return err
	}
	if branch != nil {
		printSpecials(branch.Specials)
	}
	return nil
}

func printSpecials(specials []cont.SpecialPoint) {
	if len(specials) == 0 {
		return
	}
	fmt.Println("\nspecial points:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  KIND\tP\tINTERVAL\tSTATUS")
	for _, sp := range specials {
		fmt.Fprintf(w, "  %s\t%.6f\t[%.6f, %.6f]\t%s\n",
			sp.Kind, sp.P, sp.PLow, sp.PHigh, sp.Status)
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tDS\tWINDOW\tBRANCHES\tSPECIALS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t[%.2f, %.2f]\t%d\t%d\n",
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ds,
			run.PMin, run.PMax,
			run.Branches,
			run.Specials,
		)
	}
	return w.Flush()
}

// loadRun reads a saved run back into branch records. Special points are
// attached to the first branch; per-branch attribution is not persisted.
func loadRun(runID string) (*storage.RunMetadata, []*cont.Branch, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	branches := make([]*cont.Branch, 0, meta.Branches)
	for i := 0; i < meta.Branches; i++ {
		sums, err := st.LoadBranch(runID, i)
		if err != nil {
			return nil, nil, err
		}
		branches = append(branches, &cont.Branch{Summaries: sums})
	}
	specials, err := st.LoadSpecials(runID)
	if err == nil && len(branches) > 0 {
		branches[0].Specials = specials
	}
	return meta, branches, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, branches, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if branchIdx < 0 || branchIdx >= len(branches) {
		return fmt.Errorf("branch %d out of range (run has %d)", branchIdx, len(branches))
	}
	br := branches[branchIdx]
	if br.Len() < 2 {
		return fmt.Errorf("not enough data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("branch %d: %d points\n\n", branchIdx, br.Len())

	amps := make([]float64, br.Len())
	dsHist := make([]float64, br.Len())
	for i, sum := range br.Summaries {
		amps[i] = sum.Amplitude
		dsHist[i] = sum.Ds
	}

	fmt.Println(asciigraph.Plot(amps,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("amplitude vs step"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(dsHist,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("step size"),
	))
	return nil
}

func diagramRun(cmd *cobra.Command, args []string) error {
	meta, branches, err := loadRun(args[0])
	if err != nil {
		return err
	}
	out := diagram.Render(branches, plotWidth, plotHeight)
	if out == "" {
		return fmt.Errorf("no data to plot")
	}
	fmt.Printf("solution diagram: %s (%s)\n\n", meta.ID, meta.Problem)
	fmt.Print(out)
	return nil
}

func exportCSVRun(cmd *cobra.Command, args []string) error {
	_, branches, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return store.ExportCSV(os.Stdout, branches)
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	meta, branches, err := loadRun(args[0])
	if err != nil {
		return err
	}
	set := cont.DefaultSettings()
	set.Ds = meta.Ds
	set.PMin = meta.PMin
	set.PMax = meta.PMax
	return store.ExportJSONStdout(meta.Problem, meta.Predictor, set, branches)
}

func exportSVGRun(cmd *cobra.Command, args []string) error {
	_, branches, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := export.WriteSVG(outPath, branches, plotWidth, plotHeight); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func benchProblem(cmd *cobra.Command, args []string) error {
	setup, err := problem.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s\n\n", args[0])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DS\tSTEPS\tTIME\tSTEPS/SEC")

	for _, d := range []float64{0.001, 0.01, 0.05} {
		set := cont.DefaultSettings()
		set.Ds = d
		set.DsMax = d * 10
		set.MaxSteps = 200
		set.DetectBifurcation = cont.DetectOff

		runner, err := cont.NewRunner(setup.System, predictor.NewSecant(), set, newton.DefaultConfig())
		if err != nil {
			return err
		}

		start := time.Now()
		branch, err := runner.Run(context.Background(), setup.X0, setup.P0)
		elapsed := time.Since(start)
		if err != nil && (branch == nil || branch.Len() == 0) {
			fmt.Fprintf(w, "%.4f\terror: %v\n", d, err)
			continue
		}

		steps := branch.Len()
		fmt.Fprintf(w, "%.4f\t%d\t%v\t%.0f\n", d, steps, elapsed, float64(steps)/elapsed.Seconds())
	}
	return w.Flush()
}
