package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/codecanvas"
)

// stream implements [codecanvas.Stream] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	state   codecanvas.StreamState
	text    strings.Builder
	resp    codecanvas.Response
	blocks  map[int]string // block index -> block type
	err     error          // terminal error, if any
}

// Interface compliance check.
var _ codecanvas.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:    body,
		scanner: bufio.NewScanner(body),
		ctx:     ctx,
		state:   codecanvas.StreamStateNew,
		blocks:  make(map[int]string),
	}
}

// Next reads the next semantic event from the SSE stream.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (codecanvas.Event, error) {
	switch s.state {
	case codecanvas.StreamStateComplete:
		return nil, io.EOF
	case codecanvas.StreamStateError:
		return nil, s.err
	case codecanvas.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", codecanvas.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = codecanvas.StreamStateStreaming

		evt, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		// processEvent may set a terminal state (e.g. message_stop).
		if s.state == codecanvas.StreamStateComplete {
			return nil, io.EOF
		}

		if evt != nil {
			return evt, nil
		}
		// Non-semantic event (ping, message_start, etc.) - keep reading.
	}
}

// State returns the current stream state.
func (s *stream) State() codecanvas.StreamState {
	return s.state
}

// Response returns the text assembled so far.
func (s *stream) Response() (codecanvas.Response, error) {
	if s.state == codecanvas.StreamStateNew {
		return codecanvas.Response{}, fmt.Errorf("anthropic: %w", codecanvas.ErrStreamNotReady)
	}
	resp := s.resp
	resp.Text = s.text.String()
	return resp, nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != codecanvas.StreamStateComplete && s.state != codecanvas.StreamStateError {
		s.state = codecanvas.StreamStateClosed
		s.resp.StopReason = codecanvas.StopAborted
		s.resp.RawStopReason = "aborted"
	}
	return s.body.Close()
}

// terminate records a terminal error and sets the appropriate state and
// stop reason. Cancellation keeps its identity; everything else is a
// generation failure.
func (s *stream) terminate(err error) {
	s.state = codecanvas.StreamStateError
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.err = fmt.Errorf("anthropic: %w", ctxErr)
		s.resp.StopReason = codecanvas.StopAborted
		s.resp.RawStopReason = "aborted"
		return
	}
	if err == io.EOF {
		// Normal completion via message_stop sets StreamStateComplete
		// before we reach here, so a raw EOF is a truncated stream.
		s.err = fmt.Errorf("anthropic: %w: unexpected end of stream", codecanvas.ErrGeneration)
	} else {
		s.err = fmt.Errorf("anthropic: %w: %w", codecanvas.ErrGeneration, err)
	}
	s.resp.StopReason = codecanvas.StopError
	s.resp.RawStopReason = "error"
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Empty line signals end of event.
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", err
	}

	// Scanner exhausted without error = EOF.
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a semantic codecanvas.Event.
// Returns nil event for non-semantic events (ping, message_start, etc.).
func (s *stream) processEvent(eventType, data string) (codecanvas.Event, error) {
	switch eventType {
	case "message_start":
		return nil, s.handleMessageStart(data)
	case "content_block_start":
		return nil, s.handleContentBlockStart(data)
	case "content_block_delta":
		return s.handleContentBlockDelta(data)
	case "message_delta":
		return nil, s.handleMessageDelta(data)
	case "message_stop":
		s.state = codecanvas.StreamStateComplete
		if s.resp.StopReason == "" {
			s.resp.StopReason = codecanvas.StopEndTurn
			s.resp.RawStopReason = "end_turn"
		}
		return nil, nil
	case "error":
		return nil, s.handleError(data)
	default:
		// ping, content_block_stop and unknown event types carry nothing
		// this stream needs.
		return nil, nil
	}
}

func (s *stream) handleMessageStart(data string) error {
	var evt sseMessageStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("failed to parse message_start: %w", err)
	}
	s.resp.Usage.InputTokens = evt.Message.Usage.InputTokens
	return nil
}

func (s *stream) handleContentBlockStart(data string) error {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("failed to parse content_block_start: %w", err)
	}
	s.blocks[evt.Index] = evt.ContentBlock.Type
	return nil
}

func (s *stream) handleContentBlockDelta(data string) (codecanvas.Event, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("failed to parse content_block_delta: %w", err)
	}
	if _, ok := s.blocks[evt.Index]; !ok {
		return nil, fmt.Errorf("delta for unknown block index %d", evt.Index)
	}

	switch evt.Delta.Type {
	case "text_delta":
		s.text.WriteString(evt.Delta.Text)
		return codecanvas.EventTextDelta{Delta: evt.Delta.Text}, nil
	case "thinking_delta":
		return codecanvas.EventThinkingDelta{Delta: evt.Delta.Thinking}, nil
	default:
		// signature_delta, input_json_delta: not part of the answer text.
		return nil, nil
	}
}

func (s *stream) handleMessageDelta(data string) error {
	var evt sseMessageDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("failed to parse message_delta: %w", err)
	}

	s.resp.Usage.OutputTokens = evt.Usage.OutputTokens
	if evt.Usage.InputTokens != nil {
		s.resp.Usage.InputTokens = *evt.Usage.InputTokens
	}
	if evt.Delta.StopReason != nil {
		s.resp.RawStopReason = *evt.Delta.StopReason
		s.resp.StopReason = mapStopReason(*evt.Delta.StopReason)
	}
	return nil
}

func (s *stream) handleError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("failed to parse error event: %w", err)
	}
	return fmt.Errorf("%s: %s", evt.Error.Type, evt.Error.Message)
}

func mapStopReason(raw string) codecanvas.StopReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return codecanvas.StopEndTurn
	case "max_tokens":
		return codecanvas.StopLength
	case "refusal":
		return codecanvas.StopBlocked
	default:
		return codecanvas.StopUnknown
	}
}
