package profile

import "errors"

// Sentinel kinds for profile errors.
var (
	ErrEmptyPopulation = errors.New("population must contain at least one player")
)
