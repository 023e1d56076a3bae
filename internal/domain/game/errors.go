package game

import "errors"

// Guard errors. None of them leave a session partially updated.
var (
	ErrEmptyCatalogue     = errors.New("catalogue is empty")
	ErrInvalidLetter      = errors.New("guess must be a single letter A-Z")
	ErrRoundOver          = errors.New("round is not in play")
	ErrNotAwaitingAdvance = errors.New("session is not awaiting advance")
	ErrUnknownEvent       = errors.New("unknown event")
)
