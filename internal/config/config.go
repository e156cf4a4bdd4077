package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/contin/internal/cont"
	"github.com/san-kum/contin/internal/deflcont"
	"github.com/san-kum/contin/internal/newton"
)

const (
	DefaultTol     = 1e-10
	DefaultMaxIter = 25
	DefaultSeed    = 42
)

// Config is a full continuation run configuration as loaded from YAML.
type Config struct {
	Problem   string `yaml:"problem"`
	Predictor string `yaml:"predictor"`

	Continuation cont.Settings   `yaml:"continuation"`
	Newton       NewtonConfig    `yaml:"newton"`
	Deflation    DeflationConfig `yaml:"deflation"`

	InitState []float64 `yaml:"init_state"`
	InitParam *float64  `yaml:"init_param"`

	Seed int64 `yaml:"seed"`
}

type NewtonConfig struct {
	Tol     float64 `yaml:"tol"`
	MaxIter int     `yaml:"max_iter"`
}

type DeflationConfig struct {
	MaxBranches  int     `yaml:"max_branches"`
	SpawnTries   int     `yaml:"spawn_tries"`
	Perturb      float64 `yaml:"perturb"`
	DuplicateTol float64 `yaml:"duplicate_tol"`
	Power        float64 `yaml:"power"`
	Shift        float64 `yaml:"shift"`
}

func DefaultConfig() *Config {
	dc := deflcont.DefaultConfig()
	return &Config{
		Problem:      "pitchfork",
		Predictor:    "secant",
		Continuation: cont.DefaultSettings(),
		Newton: NewtonConfig{
			Tol:     DefaultTol,
			MaxIter: DefaultMaxIter,
		},
		Deflation: DeflationConfig{
			MaxBranches:  dc.MaxBranches,
			SpawnTries:   dc.SpawnTries,
			Perturb:      dc.Perturb,
			DuplicateTol: dc.DuplicateTol,
			Power:        dc.DeflationPower,
			Shift:        dc.DeflationShift,
		},
		Seed: DefaultSeed,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NewtonSettings builds the corrector configuration with the default
// dense solvers.
func (c *Config) NewtonSettings() newton.Config {
	ncfg := newton.DefaultConfig()
	ncfg.Tol = c.Newton.Tol
	ncfg.MaxIter = c.Newton.MaxIter
	return ncfg
}

// DeflatedSettings builds the deflated-continuation driver configuration.
func (c *Config) DeflatedSettings() deflcont.Config {
	return deflcont.Config{
		Settings:       c.Continuation,
		Newton:         c.NewtonSettings(),
		MaxBranches:    c.Deflation.MaxBranches,
		SpawnTries:     c.Deflation.SpawnTries,
		Perturb:        c.Deflation.Perturb,
		DuplicateTol:   c.Deflation.DuplicateTol,
		DeflationPower: c.Deflation.Power,
		DeflationShift: c.Deflation.Shift,
		Seed:           c.Seed,
	}
}
