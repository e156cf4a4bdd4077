// Package problem defines the residual/Jacobian contracts consumed by the
// continuation machinery, plus a registry of built-in test problems.
//
// A problem implements [System]; Jacobian information can be supplied in
// three equivalent forms: an explicit dense matrix ([MatrixSystem]), a
// matrix-free product ([Applier]), or nothing at all, in which case the
// helpers fall back to one-sided finite differences.
//
// Multi-parameter models implement [Configurable]; [BindParam] projects one
// named parameter as the continuation parameter through a [Lens].
package problem
