package service

import "errors"

// Sentinel errors returned by Service. Submission failures also wrap
// repository.ErrSubmission.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrSessionNotFound  = errors.New("game session not found")
	ErrForbidden        = errors.New("game session belongs to another player")
	ErrNotFinished      = errors.New("game session is not finished")
	ErrUnauthenticated  = errors.New("sign in to save your score")
	ErrBackpressure     = errors.New("score submissions are backed up, try again shortly")
	ErrAlreadySubmitted = errors.New("score already submitted for this session")
)
