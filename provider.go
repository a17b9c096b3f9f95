package codecanvas

import "context"

// Provider is a strategy pattern interface for upstream model providers.
// Each call is exactly one upstream invocation; providers never retry.
// Failures wrap ErrGeneration.
//
// Request is passed by value; providers must not retain it after the call
// returns.
type Provider interface {
	// Stream starts a streaming generation. Cancellation flows through ctx
	// for the whole lifetime of the returned Stream.
	Stream(ctx context.Context, req Request) (Stream, error)

	// Generate runs a buffered generation and returns the complete text.
	Generate(ctx context.Context, req Request) (Response, error)
}
