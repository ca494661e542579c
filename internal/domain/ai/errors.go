package ai

import "errors"

var (
	// ErrMissingCredential indicates no API key was supplied. Checked before
	// any network attempt.
	ErrMissingCredential = errors.New("classifier credential is missing")

	// ErrTransport indicates a network failure, non-2xx response, or an
	// empty completion from the upstream service.
	ErrTransport = errors.New("classifier transport failure")

	// ErrTimeout indicates the classifier call exceeded its deadline.
	ErrTimeout = errors.New("classifier call timed out")
)
