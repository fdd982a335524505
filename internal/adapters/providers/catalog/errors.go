package catalog

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrTrackNotFound  = errors.New("track not found")
	ErrArtistNotFound = errors.New("artist not found")
)
