package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrInvalidSubmission = errors.New("invalid submission")
)
