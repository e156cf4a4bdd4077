package linsolve

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Eigenpairs holds eigenvalues with their right eigenvectors, already
// ordered by the solver's criterion.
type Eigenpairs struct {
	Values  []complex128
	Vectors [][]complex128
}

// EigenSolver returns the leading nev eigenpairs of a linear operator.
// The last return is the number of operator applications (matrix
// evaluations for a dense decomposition).
type EigenSolver interface {
	Compute(j mat.Matrix, nev int) (Eigenpairs, bool, int)
}

// ByRealPartDesc orders eigenvalues by descending real part, the usual
// criterion for stability analysis.
func ByRealPartDesc(a, b complex128) bool { return real(a) > real(b) }

// DenseEigen computes the full dense eigendecomposition and keeps the
// leading nev pairs under Order (ByRealPartDesc when nil).
type DenseEigen struct {
	Order func(a, b complex128) bool
}

func NewDenseEigen() *DenseEigen { return &DenseEigen{} }

func (d *DenseEigen) Compute(j mat.Matrix, nev int) (Eigenpairs, bool, int) {
	n, _ := j.Dims()
	dense := mat.DenseCopyOf(j)

	var eig mat.Eigen
	if ok := eig.Factorize(dense, mat.EigenRight); !ok {
		return Eigenpairs{}, false, 1
	}

	values := eig.Values(nil)
	vectors := mat.NewCDense(n, n, nil)
	eig.VectorsTo(vectors)

	order := d.Order
	if order == nil {
		order = ByRealPartDesc
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return order(values[idx[a]], values[idx[b]]) })

	if nev <= 0 || nev > n {
		nev = n
	}
	out := Eigenpairs{
		Values:  make([]complex128, nev),
		Vectors: make([][]complex128, nev),
	}
	for k := 0; k < nev; k++ {
		i := idx[k]
		out.Values[k] = values[i]
		vec := make([]complex128, n)
		for r := 0; r < n; r++ {
			vec[r] = vectors.At(r, i)
		}
		out.Vectors[k] = vec
	}
	return out, true, 1
}
