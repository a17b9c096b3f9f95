package codecanvas

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or configuration failed validation.
	// The HTTP layer maps it to 400.
	ErrValidation = errors.New("validation error")

	// ErrGeneration indicates the upstream provider failed to produce a
	// result: network, auth, quota, blocked or malformed responses.
	ErrGeneration = errors.New("generation failed")

	// ErrStreamNotReady indicates Response() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)
