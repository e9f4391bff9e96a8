package pitch

import "errors"

// Sentinel kinds for template lookups.
var (
	ErrUnknownSport    = errors.New("unknown sport")
	ErrInvalidTemplate = errors.New("invalid pitch template")
)
