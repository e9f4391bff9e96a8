package tagging

import "errors"

// Sentinel kinds for engine operations.
var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrIndexOutOfRange = errors.New("tag index out of range")
)
