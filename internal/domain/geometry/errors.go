package geometry

import "errors"

// Sentinel kinds for normalization failures.
var (
	ErrNonFinite     = errors.New("coordinate is not finite")
	ErrInvalidCanvas = errors.New("canvas size must be positive")
	ErrUnknownSpace  = errors.New("unknown coordinate space")
)
