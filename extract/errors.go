package extract

import "errors"

var (
	// ErrTaxonomyRequired is returned when a nil taxonomy is configured.
	ErrTaxonomyRequired = errors.New("taxonomy required")

	// ErrInvalidParameter is returned when an option value is out of range.
	ErrInvalidParameter = errors.New("invalid extraction parameter")
)
