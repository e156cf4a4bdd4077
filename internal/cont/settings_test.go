package cont

import (
	"errors"
	"testing"

	"github.com/san-kum/contin/internal/numeric"
)

func TestDefaultSettingsValid(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero dsmin", func(s *Settings) { s.DsMin = 0 }},
		{"dsmax below dsmin", func(s *Settings) { s.DsMax = 1e-6 }},
		{"ds below dsmin", func(s *Settings) { s.Ds = 1e-7 }},
		{"ds above dsmax", func(s *Settings) { s.Ds = 1 }},
		{"inverted window", func(s *Settings) { s.PMin = 2 }},
		{"no steps", func(s *Settings) { s.MaxSteps = 0 }},
		{"theta zero", func(s *Settings) { s.Theta = 0 }},
		{"theta one", func(s *Settings) { s.Theta = 1 }},
		{"eta zero", func(s *Settings) { s.Eta = 0 }},
		{"aggressiveness below one", func(s *Settings) { s.Aggressiveness = 0.5 }},
		{"detection level out of range", func(s *Settings) { s.DetectBifurcation = 4 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, numeric.ErrInvalidSettings) {
				t.Errorf("error not wrapping ErrInvalidSettings: %v", err)
			}
		})
	}
}

func TestNegativeDsValid(t *testing.T) {
	s := DefaultSettings()
	s.Ds = -0.01
	if err := s.Validate(); err != nil {
		t.Errorf("negative ds should be valid: %v", err)
	}
}
