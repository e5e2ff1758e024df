package learner

import "errors"

var (
	// ErrUnknownConcept is returned when a caller names a concept id that
	// is not in the catalog. Never silently ignored.
	ErrUnknownConcept = errors.New("unknown concept")

	// ErrInvalidScore is returned for scores outside [0,1].
	ErrInvalidScore = errors.New("score out of range")

	// ErrNotFound is returned by a Store when no ledger exists for the
	// learner id.
	ErrNotFound = errors.New("ledger not found")
)
