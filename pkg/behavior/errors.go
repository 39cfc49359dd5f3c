package behavior

import "errors"

var (
	// ErrZeroDirection is returned when an agent is built with a zero-length heading.
	ErrZeroDirection = errors.New("direction vector cannot be zero")
	// ErrOverrideMismatch is returned when override arrays disagree in length.
	ErrOverrideMismatch = errors.New("override arrays have inconsistent lengths")
	// ErrIndexOutOfRange is returned when an agent index does not exist in the current epoch.
	ErrIndexOutOfRange = errors.New("agent index out of range")
	// ErrUnknownModel is returned by ModelByName for names without a registered model.
	ErrUnknownModel = errors.New("unknown movement model")
	// ErrNonFiniteState is returned by Step when an update produced NaN or Inf values.
	ErrNonFiniteState = errors.New("agent state is not finite")
)
