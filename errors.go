package selections

import "errors"

var (
	// ErrNoOpTrigger signals an event that carries no actionable change.
	// Callers skip the update and emit nothing.
	ErrNoOpTrigger = errors.New("selections: no-op trigger")

	ErrUnknownSelector       = errors.New("selections: unknown selector")
	ErrUnknownPolicy         = errors.New("selections: unknown policy")
	ErrInconsistentPartition = errors.New("selections: inconsistent region partition")
	ErrNoVolumeResponse      = errors.New("selections: no volume response available")
	ErrNoEvaluator           = errors.New("selections: evaluator not configured")
	ErrInvalidRange          = errors.New("selections: invalid realization range")
	ErrNoModel               = errors.New("selections: volume model is required")
)

// ErrInvalidPolicy reports a malformed policy table.
var ErrInvalidPolicy = errors.New("selections: invalid policy table")
