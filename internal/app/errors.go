package service

import "errors"

// Sentinel kinds for service operations.
var (
	ErrNotStarted = errors.New("service not started")
	ErrEmptyPatch = errors.New("patch changes nothing")
)
