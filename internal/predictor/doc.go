// Package predictor provides the interchangeable tangent strategies used
// to extrapolate along a solution branch: natural, secant, bordered, and
// polynomial extrapolation.
package predictor
