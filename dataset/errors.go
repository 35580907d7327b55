package dataset

import "errors"

// Encoding errors. Both are fatal for the entity being processed; a batch
// driver may skip the entity and continue, but the encoder never substitutes
// a default for a value it cannot place.
var (
	// ErrInvalidRecord indicates a record that violates the canonical shape:
	// missing or non-contiguous key/tempo/meter timelines, chord spans out of
	// bounds or overlapping, or field values outside their documented ranges.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnknownLabelValue indicates a resolved value that falls outside the
	// closed vocabulary of its task. Silent mislabeling is worse than
	// failure, so the value is never clipped or defaulted.
	ErrUnknownLabelValue = errors.New("label value outside task vocabulary")
)
