package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fwojciec/codecanvas"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ codecanvas.Provider = (*Client)(nil)

// Client implements [codecanvas.Provider] for the Google Gemini API.
type Client struct {
	client         *genai.Client
	model          string
	thinkingBudget int32
}

// Option configures a [Client].
type Option func(*config)

type config struct {
	model          string
	baseURL        string
	httpClient     *http.Client
	thinkingBudget int32
}

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithThinkingBudget sets the number of tokens the model may spend on
// reasoning. Default is 0, which leaves the whole output budget to the
// answer text.
func WithThinkingBudget(tokens int) Option {
	return func(c *config) { c.thinkingBudget = int32(tokens) }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	cfg := config{model: defaultModel}
	for _, o := range opts {
		o(&cfg)
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Client{
		client:         gc,
		model:          cfg.model,
		thinkingBudget: cfg.thinkingBudget,
	}, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [codecanvas.Stream] that emits semantic events. The request is sent
// lazily on the first Next.
func (c *Client) Stream(ctx context.Context, req codecanvas.Request) (codecanvas.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	seq := c.client.Models.GenerateContentStream(ctx, c.modelFor(req), genai.Text(req.Prompt), c.buildConfig(req))
	return NewStreamFromIter(ctx, seq), nil
}

// Generate sends a single non-streaming request and returns the assembled
// response. A prompt rejected by the content filter, or a response that
// carries no text, is a generation failure.
func (c *Client) Generate(ctx context.Context, req codecanvas.Request) (codecanvas.Response, error) {
	if err := req.Validate(); err != nil {
		return codecanvas.Response{}, fmt.Errorf("gemini: %w", err)
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.modelFor(req), genai.Text(req.Prompt), c.buildConfig(req))
	if err != nil {
		return codecanvas.Response{}, wrapErr(ctx, err)
	}

	var acc accumulator
	acc.add(resp)
	if acc.err != nil {
		return codecanvas.Response{}, acc.err
	}
	out := acc.response()
	if out.Text == "" {
		return out, fmt.Errorf("gemini: %w: empty response (finish reason %q)", codecanvas.ErrGeneration, out.RawStopReason)
	}
	return out, nil
}

func (c *Client) modelFor(req codecanvas.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

func (c *Client) buildConfig(req codecanvas.Request) *genai.GenerateContentConfig {
	gc := req.Config
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(gc.Temperature)),
		TopK:            genai.Ptr(float32(gc.TopK)),
		TopP:            genai.Ptr(float32(gc.TopP)),
		MaxOutputTokens: int32(gc.MaxOutputTokens),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: c.thinkingBudget > 0,
			ThinkingBudget:  genai.Ptr(c.thinkingBudget),
		},
	}
}

// wrapErr classifies an SDK error. Cancellation keeps its identity and is
// not a generation failure, so callers can tell a departed client from an
// upstream fault.
func wrapErr(ctx context.Context, err error) error {
	if !errors.Is(err, context.Canceled) && errors.Is(ctx.Err(), context.Canceled) {
		err = fmt.Errorf("%w: %w", context.Canceled, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("gemini: %w", err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini: %w: %d %s: %s", codecanvas.ErrGeneration, apiErr.Code, apiErr.Status, apiErr.Message)
	}
	return fmt.Errorf("gemini: %w: %w", codecanvas.ErrGeneration, err)
}
