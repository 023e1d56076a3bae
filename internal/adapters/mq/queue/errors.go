package queue

import "errors"

// Sentinel kinds for enqueue failures. Both mean the caller should back off.
var (
	ErrFull   = errors.New("submission queue full")
	ErrClosed = errors.New("submission queue closed")
)
