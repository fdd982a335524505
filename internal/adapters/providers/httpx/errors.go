package httpx

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrBadStatus           = errors.New("unexpected provider status")
	ErrDecode              = errors.New("provider response decode failed")
)
