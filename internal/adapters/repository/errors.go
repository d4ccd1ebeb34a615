package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidRecord = errors.New("invalid player record")
)
