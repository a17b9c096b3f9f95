package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/codecanvas"
)

const readSize = 4096

// stream implements codecanvas.Stream over a streamed response body.
// Bytes of a multi-byte rune that arrive split across reads are held back
// until the rest arrives, so every fragment is valid UTF-8.
type stream struct {
	ctx   context.Context
	body  io.ReadCloser
	buf   []byte
	carry []byte
	state codecanvas.StreamState
	text  strings.Builder
	resp  codecanvas.Response
	err   error
}

// Interface compliance check.
var _ codecanvas.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		ctx:   ctx,
		body:  body,
		buf:   make([]byte, readSize),
		state: codecanvas.StreamStateNew,
	}
}

func (s *stream) Next() (codecanvas.Event, error) {
	switch s.state {
	case codecanvas.StreamStateComplete:
		return nil, io.EOF
	case codecanvas.StreamStateError:
		return nil, s.err
	case codecanvas.StreamStateClosed:
		return nil, fmt.Errorf("client: %w", codecanvas.ErrStreamClosed)
	}

	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.state = codecanvas.StreamStateStreaming
			if frag := s.decode(s.buf[:n]); frag != "" {
				return s.emit(frag), nil
			}
		}
		if errors.Is(err, io.EOF) {
			if len(s.carry) > 0 {
				frag := strings.ToValidUTF8(string(s.carry), string(utf8.RuneError))
				s.carry = nil
				return s.emit(frag), nil
			}
			s.state = codecanvas.StreamStateComplete
			s.resp.StopReason = codecanvas.StopEndTurn
			s.resp.RawStopReason = "end_turn"
			return nil, io.EOF
		}
		if err != nil {
			s.fail(err)
			return nil, s.err
		}
	}
}

func (s *stream) State() codecanvas.StreamState {
	return s.state
}

func (s *stream) Response() (codecanvas.Response, error) {
	if s.state == codecanvas.StreamStateNew {
		return codecanvas.Response{}, fmt.Errorf("client: %w", codecanvas.ErrStreamNotReady)
	}
	resp := s.resp
	resp.Text = s.text.String()
	return resp, nil
}

func (s *stream) Close() error {
	if s.state != codecanvas.StreamStateComplete && s.state != codecanvas.StreamStateError {
		s.state = codecanvas.StreamStateClosed
		s.resp.StopReason = codecanvas.StopAborted
		s.resp.RawStopReason = "aborted"
	}
	return s.body.Close()
}

// decode appends data to any held-back bytes and returns the longest
// prefix that does not end inside a rune.
func (s *stream) decode(data []byte) string {
	all := append(s.carry, data...)
	cut := completePrefix(all)
	frag := string(all[:cut])
	s.carry = append([]byte(nil), all[cut:]...)
	return frag
}

func (s *stream) emit(frag string) codecanvas.Event {
	s.text.WriteString(frag)
	return codecanvas.EventTextDelta{Delta: frag}
}

func (s *stream) fail(err error) {
	s.state = codecanvas.StreamStateError
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.err = fmt.Errorf("client: %w", ctxErr)
		s.resp.StopReason = codecanvas.StopAborted
		s.resp.RawStopReason = "aborted"
		return
	}
	s.err = fmt.Errorf("client: %w: %w", codecanvas.ErrGeneration, err)
	s.resp.StopReason = codecanvas.StopError
	s.resp.RawStopReason = "error"
}

// completePrefix returns the length of the longest prefix of b that does
// not end with an incomplete UTF-8 sequence.
func completePrefix(b []byte) int {
	// A rune is at most utf8.UTFMax bytes, so only the tail needs checking.
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
