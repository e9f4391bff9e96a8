package actions

import "errors"

// Sentinel kinds for vocabulary edits.
var (
	ErrInvalidDefinition = errors.New("invalid action definition")
)
