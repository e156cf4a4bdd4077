// Package linsolve defines the linear-solver and eigen-solver contracts the
// continuation core depends on, together with dense gonum-backed
// implementations. Matrix-free or iterative solvers can be plugged in
// through the same interfaces.
package linsolve
