package newton

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/contin/internal/linsolve"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

// Config controls the Newton corrector.
type Config struct {
	Tol     float64
	MaxIter int
	Linear  linsolve.Solver
	Eigen   linsolve.EigenSolver

	// Callback runs once per iteration before the update is applied;
	// returning false vetoes further iteration.
	Callback func(x, f numeric.Vec, iter int) bool

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Tol:     1e-10,
		MaxIter: 25,
		Linear:  linsolve.NewDense(),
		Eigen:   linsolve.NewDenseEigen(),
	}
}

func (c Config) Validate() error {
	if c.Tol <= 0 {
		return fmt.Errorf("%w: tol must be positive, got %g", numeric.ErrInvalidSettings, c.Tol)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("%w: maxIter must be positive, got %d", numeric.ErrInvalidSettings, c.MaxIter)
	}
	if c.Linear == nil {
		return fmt.Errorf("%w: linear solver is required", numeric.ErrInvalidSettings)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Result is the outcome of one corrector call. On budget exhaustion
// Converged is false and the full residual history is still returned; the
// caller decides whether that is fatal.
type Result struct {
	X           numeric.Vec
	Residuals   []float64
	Converged   bool
	Iterations  int
	LinearIters int
}

// Solve drives x toward a root of F(·, p) for fixed p.
func Solve(sys problem.System, x0 numeric.Vec, p float64, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(x0) != sys.Dim() {
		return Result{}, fmt.Errorf("%w: guess has %d entries, system has %d",
			numeric.ErrDimensionMismatch, len(x0), sys.Dim())
	}
	log := cfg.logger()

	x := x0.Clone()
	res := Result{X: x, Residuals: make([]float64, 0, cfg.MaxIter+1)}

	for it := 0; ; it++ {
		f := sys.Residual(x, p)
		nrm := f.Norm()
		res.Residuals = append(res.Residuals, nrm)
		log.Debug("newton iteration", "iter", it, "residual", nrm)

		if nrm < cfg.Tol {
			res.Converged = true
			break
		}
		if it >= cfg.MaxIter {
			break
		}

		j := problem.Jacobian(sys, x, p)
		du, ok, li := cfg.Linear.Solve(j, f)
		res.LinearIters += li
		if !ok {
			return res, fmt.Errorf("newton: %w at iteration %d", numeric.ErrSingular, it)
		}

		if cfg.Callback != nil && !cfg.Callback(x, f, it) {
			break
		}

		x = x.Sub(du)
		res.Iterations++
		res.X = x
	}

	return res, nil
}
