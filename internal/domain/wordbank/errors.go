package wordbank

import "errors"

var (
	// ErrInvalidEntry is returned when a catalogue entry cannot be played.
	ErrInvalidEntry = errors.New("invalid catalogue entry")
	// ErrLoadCatalogue is returned when a catalogue source cannot be read or parsed.
	ErrLoadCatalogue = errors.New("load catalogue failed")
)
