package newton_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/contin/internal/newton"
	"github.com/san-kum/contin/internal/numeric"
	"github.com/san-kum/contin/internal/problem"
)

var _ = Describe("DeflationOperator", func() {
	It("is the identity factor when empty", func() {
		op := newton.NewDeflation(2, 1)
		Expect(op.Value(numeric.Vec{0.3})).To(Equal(1.0))
		Expect(op.Len()).To(Equal(0))
	})

	It("grows without bound near a deflated root", func() {
		op := newton.NewDeflation(2, 1, numeric.Vec{1})
		far := op.Value(numeric.Vec{10})
		near := op.Value(numeric.Vec{1.001})
		Expect(near).To(BeNumerically(">", far))
		Expect(near).To(BeNumerically(">", 1e5))
	})

	It("keeps the shift as the floor far from all roots", func() {
		op := newton.NewDeflation(2, 1, numeric.Vec{0})
		Expect(op.Value(numeric.Vec{1e6})).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("manages its root set", func() {
		op := newton.NewDeflation(2, 1)
		op.Push(numeric.Vec{1})
		op.Push(numeric.Vec{2})
		Expect(op.Len()).To(Equal(2))

		popped := op.Pop()
		Expect(popped[0]).To(Equal(2.0))
		Expect(op.Len()).To(Equal(1))

		op.Clear(numeric.Vec{5}, numeric.Vec{6})
		Expect(op.Len()).To(Equal(2))
		Expect(op.Roots()[0][0]).To(Equal(5.0))
	})

	It("copies pushed roots", func() {
		op := newton.NewDeflation(2, 1)
		r := numeric.Vec{1}
		op.Push(r)
		r[0] = 99
		Expect(op.Roots()[0][0]).To(Equal(1.0))
	})
})

var _ = Describe("SolveDeflated", func() {
	var cfg newton.Config

	BeforeEach(func() {
		cfg = newton.DefaultConfig()
	})

	It("behaves like plain Newton with an empty operator", func() {
		op := newton.NewDeflation(2, 1)
		res, err := newton.SolveDeflated(problem.NewQuadratic(), op, numeric.Vec{1}, 2, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeTrue())
		Expect(res.X[0]).To(BeNumerically("~", math.Sqrt2, 1e-9))
	})

	It("finds a different root once the first is deflated", func() {
		sys := problem.NewPitchfork() // roots 0, ±1 at p = 1
		op := newton.NewDeflation(2, 1)

		first, err := newton.SolveDeflated(sys, op, numeric.Vec{0.9}, 1, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Converged).To(BeTrue())
		Expect(first.X[0]).To(BeNumerically("~", 1.0, 1e-8))

		op.Push(first.X)
		second, err := newton.SolveDeflated(sys, op, numeric.Vec{0.9}, 1, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Converged).To(BeTrue())
		Expect(math.Abs(second.X[0] - 1.0)).To(BeNumerically(">", 0.5))

		// The new root still solves the undeflated system.
		r := sys.Residual(second.X, 1)
		Expect(r.Norm()).To(BeNumerically("<", 1e-8))
	})

	It("rejects a nil operator in the deflated system constructor", func() {
		_, err := newton.NewDeflatedSystem(problem.NewQuadratic(), nil)
		Expect(err).To(MatchError(numeric.ErrInvalidSettings))
	})
})
