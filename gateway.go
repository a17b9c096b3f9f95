package codecanvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/fwojciec/codecanvas"

// Gateway routes generation requests to a Provider. It owns template and
// config selection so that every entry point shares one provider client.
type Gateway struct {
	provider Provider
	model    string
	timeout  time.Duration
	tracer   trace.Tracer
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithModel sets the model ID sent with every request.
// Empty string means the provider uses its default model.
func WithModel(model string) GatewayOption {
	return func(g *Gateway) { g.model = model }
}

// WithUpstreamTimeout bounds each upstream call, including the whole
// lifetime of a stream. Zero (the default) imposes no limit.
func WithUpstreamTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// WithTracerProvider sets the provider used for gateway spans.
// Defaults to the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) GatewayOption {
	return func(g *Gateway) { g.tracer = tp.Tracer(tracerName) }
}

// NewGateway creates a new Gateway backed by provider.
func NewGateway(provider Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{provider: provider}
	for _, opt := range opts {
		opt(g)
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(tracerName)
	}
	return g
}

// Explain starts a streaming explanation of req's code. The intent on req
// is ignored. Errors wrap ErrValidation for bad input or ErrGeneration
// when the provider rejects the call before any fragment is produced.
// The caller must Close the returned Stream; its span ends on Close and
// covers the whole relay.
func (g *Gateway) Explain(ctx context.Context, req GenerationRequest) (Stream, error) {
	req.Intent = IntentExplain
	ctx, span := g.start(ctx, req)

	preq, err := g.prepare(req, ModeStreaming)
	if err != nil {
		recordError(span, err)
		span.End()
		return nil, err
	}

	ctx, cancel := g.withTimeout(ctx)
	stream, err := g.provider.Stream(ctx, preq)
	if err != nil {
		cancel()
		recordError(span, err)
		span.End()
		return nil, err
	}
	return &cancelStream{Stream: stream, cancel: cancel, span: span}, nil
}

// Visualize generates a buffered real-world analogy for req's code.
// The intent on req is ignored.
func (g *Gateway) Visualize(ctx context.Context, req GenerationRequest) (Response, error) {
	req.Intent = IntentVisualAnalogy
	ctx, span := g.start(ctx, req)
	defer span.End()

	preq, err := g.prepare(req, ModeBuffered)
	if err != nil {
		recordError(span, err)
		return Response{}, err
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.provider.Generate(ctx, preq)
	if err != nil {
		recordError(span, err)
		return Response{}, err
	}
	span.SetAttributes(
		attribute.String("codecanvas.stop_reason", string(resp.StopReason)),
		attribute.Int("codecanvas.output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}

// prepare validates req, resolves its route and builds the provider
// request.
func (g *Gateway) prepare(req GenerationRequest, mode Mode) (Request, error) {
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	route, err := RouteFor(req.Intent)
	if err != nil {
		return Request{}, err
	}
	if route.Mode != mode {
		return Request{}, fmt.Errorf("%s is served in %s mode, not %s: %w", route.Intent, route.Mode, mode, ErrValidation)
	}
	prompt, err := BuildPrompt(route.Intent, req.SourceCode, req.LanguageTag)
	if err != nil {
		return Request{}, err
	}
	return Request{Model: g.model, Prompt: prompt, Config: route.Config}, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) start(ctx context.Context, req GenerationRequest) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, "codecanvas."+req.Intent.String(),
		trace.WithAttributes(
			attribute.String("codecanvas.intent", req.Intent.String()),
			attribute.String("codecanvas.language", req.LanguageTag),
			attribute.Int("codecanvas.code_bytes", len(req.SourceCode)),
		),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// cancelStream releases the upstream context and ends the call's span when
// the stream is closed. Next and Close must not be called concurrently.
type cancelStream struct {
	Stream
	cancel context.CancelFunc
	span   trace.Span

	fragments int
	bytes     int
	err       error
	closeOnce sync.Once
}

func (s *cancelStream) Next() (Event, error) {
	evt, err := s.Stream.Next()
	switch {
	case err == nil:
		if d, ok := evt.(EventTextDelta); ok && d.Delta != "" {
			s.fragments++
			s.bytes += len(d.Delta)
		}
	case !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled):
		s.err = err
	}
	return evt, err
}

func (s *cancelStream) Close() error {
	err := s.Stream.Close()
	s.cancel()
	s.closeOnce.Do(s.endSpan)
	return err
}

func (s *cancelStream) endSpan() {
	s.span.SetAttributes(
		attribute.Int("codecanvas.stream_fragments", s.fragments),
		attribute.Int("codecanvas.stream_bytes", s.bytes),
	)
	if s.Stream.State() == StreamStateComplete {
		if resp, err := s.Stream.Response(); err == nil {
			s.span.SetAttributes(
				attribute.String("codecanvas.stop_reason", string(resp.StopReason)),
				attribute.Int("codecanvas.output_tokens", resp.Usage.OutputTokens),
			)
		}
	}
	if s.err != nil {
		recordError(s.span, s.err)
	}
	s.span.End()
}
