package newton_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

var _ = Describe("Solve", func() {
	var cfg newton.Config

	BeforeEach(func() {
		cfg = newton.DefaultConfig()
	})

	It("converges to sqrt(p) on the quadratic problem", func() {
		res, err := newton.Solve(problem.NewQuadratic(), numeric.Vec{1}, 2, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeTrue())
		Expect(res.X[0]).To(BeNumerically("~", math.Sqrt2, 1e-9))
	})

	It("records a strictly decreasing residual tail", func() {
		res, err := newton.Solve(problem.NewQuadratic(), numeric.Vec{3}, 2, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(res.Residuals)).To(BeNumerically(">=", 2))
		last := res.Residuals[len(res.Residuals)-1]
		Expect(last).To(BeNumerically("<", cfg.Tol))
	})

	It("reports non-convergence without error when the budget runs out", func() {
		cfg.MaxIter = 2
		res, err := newton.Solve(problem.NewQuadratic(), numeric.Vec{100}, 2, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeFalse())
		Expect(res.Iterations).To(Equal(2))
	})

	It("rejects a guess of the wrong dimension", func() {
		_, err := newton.Solve(problem.NewQuadratic(), numeric.Vec{1, 2}, 2, cfg)
		Expect(err).To(MatchError(numeric.ErrDimensionMismatch))
	})

	It("rejects invalid settings", func() {
		cfg.Tol = 0
		_, err := newton.Solve(problem.NewQuadratic(), numeric.Vec{1}, 2, cfg)
		Expect(err).To(MatchError(numeric.ErrInvalidSettings))
	})

	It("stops when the callback vetoes", func() {
		calls := 0
		cfg.Callback = func(x, f numeric.Vec, iter int) bool {
			calls++
			return false
		}
		res, err := newton.Solve(problem.NewQuadratic(), numeric.Vec{3}, 2, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeFalse())
		Expect(calls).To(Equal(1))
	})

	It("solves the Bratu system at small lambda", func() {
		sys := problem.NewBratu(20)
		res, err := newton.Solve(sys, numeric.Zeros(20), 0.5, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeTrue())
		// The lower Bratu solution is positive and symmetric.
		Expect(res.X[10]).To(BeNumerically(">", 0))
		Expect(res.X[3]).To(BeNumerically("~", res.X[16], 1e-8))
	})
})
