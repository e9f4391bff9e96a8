package model

import "errors"

// Sentinel kinds for tag validation.
var (
	ErrMalformedTag        = errors.New("malformed tag")
	ErrInteractionMismatch = errors.New("interaction type mismatch")
)
