package verdict

import "errors"

// Parser errors.
var (
	ErrNoJSONFound   = errors.New("no json object found in classifier output")
	ErrMalformedJSON = errors.New("malformed json in classifier output")
)

// Validation errors.
var (
	// ErrNotAViolation is handled as a discard by the review session, not
	// surfaced as a failure.
	ErrNotAViolation   = errors.New("record is not a violation")
	ErrMissingPlate    = errors.New("license plate is empty")
	ErrConfidenceRange = errors.New("confidence outside [0,1]")
)

// Store errors.
var (
	ErrDuplicateID  = errors.New("record id already exists")
	ErrNotFound     = errors.New("record not found")
	ErrWriteFailure = errors.New("store write failed")
)

// ParseError wraps a parser failure together with the raw classifier text,
// so callers can still show the reply for manual inspection.
type ParseError struct {
	Raw string
	err error
}

func (e *ParseError) Error() string { return e.err.Error() }

func (e *ParseError) Unwrap() error { return e.err }
