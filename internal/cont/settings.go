package cont

import (
	"fmt"
	"math"

	"github.com/san-kum/contin/internal/numeric"
)

// Detection levels for detectBifurcation.
const (
	DetectOff     = 0 // no eigenvalue computation
	DetectMonitor = 1 // update stability counts only
	DetectFlag    = 2 // record sign changes as guesses
	DetectBisect  = 3 // refine sign changes by bisection
)

const (
	DefaultDs             = 0.01
	DefaultDsMin          = 1e-5
	DefaultDsMax          = 0.1
	DefaultTheta          = 0.5
	DefaultEta            = 50.0
	DefaultAggressiveness = 1.5
	DefaultMaxBisect      = 30
	DefaultBisectTol      = 1e-8
)

// Settings is the fully specified continuation configuration. Partial or
// inconsistent settings are rejected at construction, not patched at call
// sites.
type Settings struct {
	Ds    float64 `yaml:"ds"`
	DsMin float64 `yaml:"dsmin"`
	DsMax float64 `yaml:"dsmax"`

	PMin     float64 `yaml:"pmin"`
	PMax     float64 `yaml:"pmax"`
	MaxSteps int     `yaml:"max_steps"`

	// Theta weights the state part of the arclength constraint; Eta fixes
	// the parameter offset ds/eta used to bootstrap the first tangent.
	Theta float64 `yaml:"theta"`
	Eta   float64 `yaml:"eta"`

	// Aggressiveness controls how fast ds adapts toward the target
	// corrector iteration count. Must be >= 1.
	Aggressiveness float64 `yaml:"aggressiveness"`

	DetectFold        bool `yaml:"detect_fold"`
	DetectBifurcation int  `yaml:"detect_bifurcation"`
	NEigen            int  `yaml:"nev"`

	MaxBisect int     `yaml:"max_bisect"`
	BisectTol float64 `yaml:"bisect_tol"`

	SaveSolEvery int `yaml:"save_sol_every"`
	SaveEigEvery int `yaml:"save_eig_every"`

	// ArcLengthScaling rebalances theta each step so the state and
	// parameter contributions to the arclength norm stay comparable.
	ArcLengthScaling bool `yaml:"arclength_scaling"`
}

func DefaultSettings() Settings {
	return Settings{
		Ds:             DefaultDs,
		DsMin:          DefaultDsMin,
		DsMax:          DefaultDsMax,
		PMin:           -1,
		PMax:           1,
		MaxSteps:       100,
		Theta:          DefaultTheta,
		Eta:            DefaultEta,
		Aggressiveness: DefaultAggressiveness,
		MaxBisect:      DefaultMaxBisect,
		BisectTol:      DefaultBisectTol,
	}
}

func (s Settings) Validate() error {
	if s.DsMin <= 0 {
		return fmt.Errorf("%w: dsmin must be positive, got %g", numeric.ErrInvalidSettings, s.DsMin)
	}
	if s.DsMax < s.DsMin {
		return fmt.Errorf("%w: dsmax %g below dsmin %g", numeric.ErrInvalidSettings, s.DsMax, s.DsMin)
	}
	if ds := math.Abs(s.Ds); ds < s.DsMin || ds > s.DsMax {
		return fmt.Errorf("%w: |ds| = %g outside [%g, %g]", numeric.ErrInvalidSettings, ds, s.DsMin, s.DsMax)
	}
	if s.PMin >= s.PMax {
		return fmt.Errorf("%w: pmin %g not below pmax %g", numeric.ErrInvalidSettings, s.PMin, s.PMax)
	}
	if s.MaxSteps <= 0 {
		return fmt.Errorf("%w: max_steps must be positive, got %d", numeric.ErrInvalidSettings, s.MaxSteps)
	}
	if s.Theta <= 0 || s.Theta >= 1 {
		return fmt.Errorf("%w: theta %g outside (0, 1)", numeric.ErrInvalidSettings, s.Theta)
	}
	if s.Eta <= 0 {
		return fmt.Errorf("%w: eta must be positive, got %g", numeric.ErrInvalidSettings, s.Eta)
	}
	if s.Aggressiveness < 1 {
		return fmt.Errorf("%w: aggressiveness %g below 1", numeric.ErrInvalidSettings, s.Aggressiveness)
	}
	if s.DetectBifurcation < DetectOff || s.DetectBifurcation > DetectBisect {
		return fmt.Errorf("%w: detect_bifurcation %d outside 0..3", numeric.ErrInvalidSettings, s.DetectBifurcation)
	}
	return nil
}
