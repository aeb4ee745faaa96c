package model

import "errors"

var (
	// ErrDataUnavailable means the feed returned no usable bars. The ticker is skipped.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory means a series is shorter than a required window.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrInvalidConfiguration aborts startup, or the single calculation that hit it.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrNotificationFailure wraps delivery errors from a signal sink. Never fatal.
	ErrNotificationFailure = errors.New("notification failure")
)
