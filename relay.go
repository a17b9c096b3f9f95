package codecanvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultStreamErrorText is written in-band when the upstream fails after
// the response has been committed.
const DefaultStreamErrorText = "Error generating explanation. Please try again."

// RelayState is the lifecycle of a Relay.
type RelayState int

const (
	RelayIdle    RelayState = iota // Before Open(); nothing committed to the client.
	RelayWriting                   // Producer is pushing fragments.
	RelayClosed                    // Sequence exhausted, cancelled, or consumer gone.
	RelayFailed                    // Upstream failed; error fragment written if possible.
)

// String returns a stable lowercase name.
func (s RelayState) String() string {
	switch s {
	case RelayIdle:
		return "idle"
	case RelayWriting:
		return "writing"
	case RelayClosed:
		return "closed"
	case RelayFailed:
		return "failed"
	default:
		return fmt.Sprintf("relay_state(%d)", int(s))
	}
}

// Relay forwards the text fragments of a Stream to a single consumer.
//
// Prime pulls the first non-empty fragment while nothing has been sent, so
// that an upstream failure at that point can still be reported with an
// error status. Open then hands the consumer the read side of a pipe and
// starts one producer goroutine that writes each fragment as one Write, in
// arrival order. Empty fragments and non-text events are never written.
//
// The underlying Stream is closed exactly once on every exit path.
type Relay struct {
	stream     Stream
	errorText  string
	onFragment func(string)

	primed  bool
	pending string
	drained bool

	mu           sync.Mutex
	state        RelayState
	err          error
	transportErr error
	fragments    int
	bytes        int

	closeOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithErrorText sets the in-band fragment written on mid-stream failure.
// An empty string disables the fragment.
func WithErrorText(text string) RelayOption {
	return func(r *Relay) { r.errorText = text }
}

// WithFragmentHook registers fn to be called after each fragment is
// handed to the consumer. fn runs on the producer goroutine.
func WithFragmentHook(fn func(fragment string)) RelayOption {
	return func(r *Relay) { r.onFragment = fn }
}

// NewRelay creates a Relay over stream. The Relay takes ownership of
// stream and closes it.
func NewRelay(stream Stream, opts ...RelayOption) *Relay {
	r := &Relay{
		stream:    stream,
		errorText: DefaultStreamErrorText,
		state:     RelayIdle,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prime pulls from the stream until the first non-empty text fragment or
// a clean end of sequence. An upstream error at this point closes the
// stream, moves the relay to RelayFailed and is returned wrapped in
// ErrGeneration. Cancellation moves it to RelayClosed and is returned as is. Prime must be called from the goroutine that later calls
// Open; calling it again is a no-op.
func (r *Relay) Prime() error {
	if r.primed {
		return nil
	}
	r.primed = true

	frag, err := r.nextFragment()
	switch {
	case err == nil:
		r.pending = frag
		return nil
	case errors.Is(err, io.EOF):
		r.drained = true
		return nil
	}

	if errors.Is(err, context.Canceled) {
		r.finish(RelayClosed, nil)
		r.closeStream()
		r.markDone()
		return err
	}

	r.finish(RelayFailed, err)
	r.closeStream()
	r.markDone()
	if errors.Is(err, ErrGeneration) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrGeneration, err)
}

// Open primes the relay if needed, moves it to RelayWriting and starts the
// producer. The consumer must read the returned body until EOF or Close
// it; closing early makes the producer stop at its next write.
func (r *Relay) Open() (io.ReadCloser, error) {
	if err := r.Prime(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.state != RelayIdle {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("relay is %s: %w", state, ErrStreamClosed)
	}
	r.state = RelayWriting
	r.mu.Unlock()

	pr, pw := io.Pipe()
	go r.pump(pw)
	return pr, nil
}

// Close releases the stream of a relay that was never opened. It is a
// no-op once the producer is running; the producer owns cleanup then.
func (r *Relay) Close() error {
	r.mu.Lock()
	idle := r.state == RelayIdle
	if idle {
		r.state = RelayClosed
	}
	r.mu.Unlock()
	if !idle {
		return nil
	}
	err := r.closeStream()
	r.markDone()
	return err
}

// Done is closed once the relay reaches a terminal state and the stream
// has been closed.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// State returns the current relay state.
func (r *Relay) State() RelayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the upstream error that ended the relay, or nil.
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// TransportErr returns the write error that ended the relay when the
// consumer went away, or nil.
func (r *Relay) TransportErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transportErr
}

// Stats returns the number of fragments and bytes handed to the consumer,
// excluding the in-band error fragment.
func (r *Relay) Stats() (fragments, bytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fragments, r.bytes
}

func (r *Relay) pump(pw *io.PipeWriter) {
	defer r.markDone()
	defer r.closeStream()

	if r.pending != "" {
		frag := r.pending
		r.pending = ""
		if !r.write(pw, frag) {
			return
		}
	}

	if !r.drained {
		for {
			frag, err := r.nextFragment()
			if err == nil {
				if !r.write(pw, frag) {
					return
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, context.Canceled) {
				// The request went away; nobody is left to read an error.
				r.finish(RelayClosed, nil)
				_ = pw.Close()
				return
			}
			r.finish(RelayFailed, err)
			if r.errorText != "" {
				if _, werr := io.WriteString(pw, r.errorText); werr != nil {
					r.setTransportErr(werr)
				}
			}
			_ = pw.Close()
			return
		}
	}

	r.finish(RelayClosed, nil)
	_ = pw.Close()
}

func (r *Relay) write(pw *io.PipeWriter, frag string) bool {
	if _, err := io.WriteString(pw, frag); err != nil {
		r.mu.Lock()
		r.transportErr = err
		r.state = RelayClosed
		r.mu.Unlock()
		return false
	}
	r.mu.Lock()
	r.fragments++
	r.bytes += len(frag)
	r.mu.Unlock()
	if r.onFragment != nil {
		r.onFragment(frag)
	}
	return true
}

// nextFragment returns the next non-empty text fragment.
func (r *Relay) nextFragment() (string, error) {
	for {
		evt, err := r.stream.Next()
		if err != nil {
			return "", err
		}
		if d, ok := evt.(EventTextDelta); ok && d.Delta != "" {
			return d.Delta, nil
		}
	}
}

func (r *Relay) finish(state RelayState, err error) {
	r.mu.Lock()
	r.state = state
	r.err = err
	r.mu.Unlock()
}

func (r *Relay) setTransportErr(err error) {
	r.mu.Lock()
	r.transportErr = err
	r.mu.Unlock()
}

func (r *Relay) closeStream() error {
	var err error
	r.closeOnce.Do(func() { err = r.stream.Close() })
	return err
}

func (r *Relay) markDone() {
	r.doneOnce.Do(func() { close(r.done) })
}
