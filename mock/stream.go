package mock

import (
	"io"
	"strings"

	"github.com/fwojciec/codecanvas"
)

// Interface compliance check.
var _ codecanvas.Stream = (*Stream)(nil)

// Stream is a test double for codecanvas.Stream.
// Set the function fields for the methods you need. NextFn and ResponseFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because test code commonly calls defer stream.Close()
// and these methods rarely need custom behavior.
type Stream struct {
	NextFn     func() (codecanvas.Event, error)
	StateFn    func() codecanvas.StreamState
	ResponseFn func() (codecanvas.Response, error)
	CloseFn    func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (codecanvas.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() codecanvas.StreamState {
	if s.StateFn == nil {
		return codecanvas.StreamStateNew
	}
	return s.StateFn()
}

// Response delegates to ResponseFn.
func (s *Stream) Response() (codecanvas.Response, error) {
	return s.ResponseFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// NewTextStream returns a Stream that yields one EventTextDelta per
// fragment, then returns err on every further Next, or io.EOF when err is
// nil. ResponseFn reports the text yielded so far. Next must not be called
// concurrently.
func NewTextStream(err error, fragments ...string) *Stream {
	if err == nil {
		err = io.EOF
	}
	var (
		pos  int
		text strings.Builder
	)
	return &Stream{
		NextFn: func() (codecanvas.Event, error) {
			if pos >= len(fragments) {
				return nil, err
			}
			frag := fragments[pos]
			pos++
			text.WriteString(frag)
			return codecanvas.EventTextDelta{Delta: frag}, nil
		},
		ResponseFn: func() (codecanvas.Response, error) {
			return codecanvas.Response{Text: text.String()}, nil
		},
	}
}
