package publisher

import "errors"

var (
	// ErrPublish wraps failures writing a record downstream.
	ErrPublish = errors.New("publish failed")
	// ErrRedisURL is returned when the configured Redis URL cannot be used.
	ErrRedisURL = errors.New("invalid redis url")
)
