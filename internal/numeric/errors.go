package numeric

import "errors"

// Domain errors for continuation runs.
var (
	// ErrNoConvergence indicates the corrector exhausted its iteration budget.
	ErrNoConvergence = errors.New("contin: corrector failed to converge")

	// ErrStepTooSmall indicates the arclength step shrank below its floor.
	ErrStepTooSmall = errors.New("contin: step size below dsmin")

	// ErrParameterBounds indicates a parameter value outside [pmin, pmax].
	ErrParameterBounds = errors.New("contin: parameter out of bounds")

	// ErrDimensionMismatch indicates mismatched vector/system dimensions.
	ErrDimensionMismatch = errors.New("contin: dimension mismatch")

	// ErrDuplicateRoot indicates a deflated search reconverged to a known root.
	ErrDuplicateRoot = errors.New("contin: deflated search found a known root")

	// ErrInvalidSettings indicates a rejected configuration.
	ErrInvalidSettings = errors.New("contin: invalid settings")

	// ErrSingular indicates a linear solve on a singular system.
	ErrSingular = errors.New("contin: singular linear system")
)
