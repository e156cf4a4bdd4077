package newton_test

import (
	"testing"

	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

func BenchmarkSolveQuadratic(b *testing.B) {
	sys := problem.NewQuadratic()
	cfg := newton.DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = newton.Solve(sys, numeric.Vec{1}, 2, cfg)
	}
}

func BenchmarkSolveBratu20(b *testing.B) {
	sys := problem.NewBratu(20)
	cfg := newton.DefaultConfig()
	x0 := numeric.Zeros(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = newton.Solve(sys, x0, 0.5, cfg)
	}
}

func BenchmarkSolveDeflated(b *testing.B) {
	sys := problem.NewPitchfork()
	cfg := newton.DefaultConfig()
	op := newton.NewDeflation(2, 1, numeric.Vec{1})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = newton.SolveDeflated(sys, op, numeric.Vec{0.9}, 1, cfg)
	}
}
