package history

import "errors"

// Sentinel kinds for history errors.
var (
	ErrUnknownDirection = errors.New("unknown swipe direction")
)
