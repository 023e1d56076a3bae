package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("no score records for user")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrDuplicateID  = errors.New("score record id already exists")
	// ErrSubmission marks a collaborator failure while persisting a record.
	// Callers may retry.
	ErrSubmission = errors.New("score submission failed")
	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown store driver")
)
