// Package cont implements pseudo-arclength continuation: the stepping
// state machine, the adaptive step-size controller, the branch recorder,
// and bifurcation/event detection with bisection localization.
package cont
