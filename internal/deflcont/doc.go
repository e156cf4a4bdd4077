// Package deflcont implements deflated continuation: a population of
// branches advanced in lockstep over a shared parameter value, with
// deflated Newton searches discovering disconnected branches as the
// parameter sweeps.
package deflcont
