package pipeline

import "errors"

// Failure classes surfaced to the HTTP layer. Every pipeline error
// wraps exactly one of these, so callers can map with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTranscode    = errors.New("transcode failed")
	ErrPublish      = errors.New("publish failed")
	ErrPersist      = errors.New("persist failed")
)
