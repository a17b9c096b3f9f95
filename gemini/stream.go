package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/codecanvas"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ codecanvas.Stream = (*stream)(nil)

// stream implements [codecanvas.Stream] by wrapping the genai SDK's
// streaming iterator. One SDK chunk may carry several parts; they are
// queued and handed out one event per Next.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	state   codecanvas.StreamState
	acc     accumulator
	pending []codecanvas.Event
	err     error

	// Set when the stream ends in error or is closed early.
	reason    codecanvas.StopReason
	rawReason string
}

// NewStreamFromIter wraps a genai response iterator in a pull-based
// [codecanvas.Stream]. Exported for testing.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) codecanvas.Stream {
	pull, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  pull,
		stop:  stop,
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
		return nil, fmt.Errorf("gemini: %w", codecanvas.ErrStreamClosed)
	}

	if len(s.pending) > 0 {
		evt := s.pending[0]
		s.pending = s.pending[1:]
		return evt, nil
	}

	for {
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(codecanvas.StopAborted, wrapErr(s.ctx, err))
		}
		resp, err, ok := s.pull()
		if !ok {
			s.state = codecanvas.StreamStateComplete
			s.stop()
			return nil, io.EOF
		}
		if err != nil {
			reason := codecanvas.StopError
			if s.ctx.Err() != nil {
				reason = codecanvas.StopAborted
			}
			return nil, s.fail(reason, wrapErr(s.ctx, err))
		}

		s.state = codecanvas.StreamStateStreaming
		events := s.acc.add(resp)
		if s.acc.err != nil {
			return nil, s.fail(codecanvas.StopBlocked, s.acc.err)
		}
		if len(events) == 0 {
			continue
		}
		s.pending = events[1:]
		return events[0], nil
	}
}

func (s *stream) fail(reason codecanvas.StopReason, err error) error {
	s.state = codecanvas.StreamStateError
	s.err = err
	s.reason = reason
	s.rawReason = string(reason)
	if reason == codecanvas.StopBlocked && s.acc.blockReason != "" {
		s.rawReason = s.acc.blockReason
	}
	s.stop()
	return err
}

func (s *stream) State() codecanvas.StreamState {
	return s.state
}

func (s *stream) Response() (codecanvas.Response, error) {
	if s.state == codecanvas.StreamStateNew {
		return codecanvas.Response{}, fmt.Errorf("gemini: %w", codecanvas.ErrStreamNotReady)
	}
	resp := s.acc.response()
	if s.reason != "" {
		resp.StopReason = s.reason
		resp.RawStopReason = s.rawReason
	}
	return resp, nil
}

func (s *stream) Close() error {
	if s.state != codecanvas.StreamStateComplete && s.state != codecanvas.StreamStateError {
		s.state = codecanvas.StreamStateClosed
		s.reason = codecanvas.StopAborted
		s.rawReason = "aborted"
	}
	s.stop()
	return nil
}

// accumulator folds response chunks into the assembled answer.
type accumulator struct {
	text        strings.Builder
	usage       codecanvas.Usage
	finish      genai.FinishReason
	blockReason string
	err         error
}

// add records one chunk and returns the events it carries, in part order.
// Empty parts produce no event.
func (a *accumulator) add(resp *genai.GenerateContentResponse) []codecanvas.Event {
	if resp == nil {
		return nil
	}
	if u := resp.UsageMetadata; u != nil {
		// Gemini reports cumulative counts; the last chunk wins.
		a.usage = codecanvas.Usage{
			InputTokens:    clamp(u.PromptTokenCount),
			OutputTokens:   clamp(u.CandidatesTokenCount),
			ThinkingTokens: clamp(u.ThoughtsTokenCount),
		}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		a.blockReason = string(fb.BlockReason)
		a.err = fmt.Errorf("gemini: %w: prompt blocked: %s", codecanvas.ErrGeneration, fb.BlockReason)
		return nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}

	cand := resp.Candidates[0]
	if cand.FinishReason != "" {
		a.finish = cand.FinishReason
	}
	if cand.Content == nil {
		return nil
	}

	var events []codecanvas.Event
	for _, part := range cand.Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			events = append(events, codecanvas.EventThinkingDelta{Delta: part.Text})
			continue
		}
		a.text.WriteString(part.Text)
		events = append(events, codecanvas.EventTextDelta{Delta: part.Text})
	}
	return events
}

func (a *accumulator) response() codecanvas.Response {
	reason, raw := mapStopReason(a.finish)
	return codecanvas.Response{
		Text:          a.text.String(),
		StopReason:    reason,
		RawStopReason: raw,
		Usage:         a.usage,
	}
}

func mapStopReason(r genai.FinishReason) (codecanvas.StopReason, string) {
	switch r {
	case "", genai.FinishReasonUnspecified:
		return codecanvas.StopEndTurn, "end_turn"
	case genai.FinishReasonStop:
		return codecanvas.StopEndTurn, string(r)
	case genai.FinishReasonMaxTokens:
		return codecanvas.StopLength, string(r)
	case genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return codecanvas.StopBlocked, string(r)
	default:
		return codecanvas.StopUnknown, string(r)
	}
}

func clamp(n int32) int {
	if n < 0 {
		return 0
	}
	return int(n)
}
