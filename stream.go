package codecanvas

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Response is the assembled result of a generation.
type Response struct {
	Text          string
	StopReason    StopReason
	RawStopReason string
	Usage         Usage
}

// Stream is a lazy, finite, forward-only sequence of fragments. It uses a
// pull-based iterator pattern and is not restartable: once a terminal
// state is reached every Next() returns the same terminal result.
//
// Response() returns the text assembled so far. Behavior by stream state:
//   - StreamStateComplete: complete response, nil error.
//   - StreamStateError: partial response, nil error. StopReason is
//     StopError for transport/protocol failures, StopAborted for context
//     cancellation.
//   - StreamStateStreaming: partial response, nil error.
//   - StreamStateNew: zero-value response, ErrStreamNotReady.
//   - StreamStateClosed: partial response with StopReason = StopAborted.
//     Subsequent Next() calls return ErrStreamClosed.
//
// Close is idempotent.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Response() (Response, error)
	Close() error
}
