package feed

import "errors"

// ErrHubStopped is returned when registering with a hub that is no longer running.
var ErrHubStopped = errors.New("feed hub stopped")
