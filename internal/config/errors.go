package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidConfig marks a value rejected by Validate.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file or env source that could not be read.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidTemplate marks a configured pitch template that failed
	// validation. It is always joined with ErrInvalidConfig.
	ErrInvalidTemplate = errors.New("invalid template")
)
