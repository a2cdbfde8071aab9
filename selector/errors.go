package selector

import "errors"

var (
	// ErrScorerRequired is returned when no scorer is provided.
	ErrScorerRequired = errors.New("scorer required")

	// ErrInvalidThreshold is returned when a threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid threshold")
)
