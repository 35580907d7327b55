package theory

import "errors"

// Resolution errors. All are fatal at the point of detection; callers match
// them with errors.Is and never substitute defaults for a failed lookup.
var (
	// ErrMalformedToken indicates a Roman numeral token that does not follow
	// the grammar: optional accidental, 1-3 degree letters of uniform case,
	// optional extension, at most one secondary target.
	ErrMalformedToken = errors.New("malformed roman numeral token")

	// ErrUnknownMode indicates a mode name absent from the mode table.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrUnknownExtension indicates a degree/extension pair absent from the
	// quality lookup tables.
	ErrUnknownExtension = errors.New("unknown chord extension")

	// ErrUnknownQuality indicates a quality code or interval pattern absent
	// from the quality table.
	ErrUnknownQuality = errors.New("unknown chord quality")

	// ErrInvalidNote indicates an unparseable note name.
	ErrInvalidNote = errors.New("invalid note name")
)
