package usecase

import "errors"

var (
	// ErrInvalidRequest is returned for requests that fail input validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when a scored transaction does not exist.
	ErrNotFound = errors.New("scored transaction not found")

	// ErrStreamStopped is returned by ScoreStream.Submit once the stream is
	// not running.
	ErrStreamStopped = errors.New("score stream is not running")
)
