package config

import "github.com/san-kum/contin/internal/cont"

// Presets are named, problem-specific configurations layered over the
// defaults.
var Presets = map[string]map[string]func(*Config){
	"pitchfork": {
		"sweep": func(cfg *Config) {
			cfg.Problem = "pitchfork"
			cfg.Continuation.PMin = -1
			cfg.Continuation.PMax = 1
			cfg.Continuation.MaxSteps = 400
			cfg.Continuation.DetectBifurcation = cont.DetectBisect
		},
	},
	"fold": {
		"turning-point": func(cfg *Config) {
			cfg.Problem = "fold"
			cfg.Continuation.PMin = -0.5
			cfg.Continuation.PMax = 2
			cfg.Continuation.Ds = -0.01
			cfg.Continuation.DetectFold = true
		},
	},
	"bratu": {
		"upper-fold": func(cfg *Config) {
			cfg.Problem = "bratu"
			cfg.Continuation.PMin = 0
			cfg.Continuation.PMax = 4
			cfg.Continuation.MaxSteps = 600
			cfg.Continuation.DsMax = 0.05
			cfg.Continuation.DetectFold = true
		},
	},
	"cusp": {
		"hysteresis": func(cfg *Config) {
			cfg.Problem = "cusp"
			cfg.Continuation.PMin = -2
			cfg.Continuation.PMax = 2
			cfg.Continuation.MaxSteps = 500
			cfg.Continuation.DetectFold = true
		},
	},
}

// GetPreset returns the named preset for a problem, nil if unknown.
func GetPreset(problem, name string) *Config {
	group, ok := Presets[problem]
	if !ok {
		return nil
	}
	apply, ok := group[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// ListPresets returns the preset names available for a problem.
func ListPresets(problem string) []string {
	group, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	return names
}
