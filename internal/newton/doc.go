// Package newton implements the corrector used by continuation: a plain
// Newton iteration with pluggable linear solver, and a deflated variant
// whose penalization factor keeps the iteration away from already-known
// roots.
package newton
