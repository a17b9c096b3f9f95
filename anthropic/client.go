package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/codecanvas"
)

// Interface compliance check.
var _ codecanvas.Provider = (*Client)(nil)

// Client implements [codecanvas.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the default model ID. Default is claude-sonnet-4-20250514.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends a streaming request to the Anthropic Messages API and returns
// a [codecanvas.Stream] that emits semantic events. HTTP-level failures are
// reported here, before any event.
func (c *Client) Stream(ctx context.Context, req codecanvas.Request) (codecanvas.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		return nil, fmt.Errorf("anthropic: %w: %w", codecanvas.ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body), nil
}

// Generate drains a streaming request and returns the assembled text.
// An empty answer is a generation failure.
func (c *Client) Generate(ctx context.Context, req codecanvas.Request) (codecanvas.Response, error) {
	s, err := c.Stream(ctx, req)
	if err != nil {
		return codecanvas.Response{}, err
	}
	defer s.Close()

	for {
		_, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return codecanvas.Response{}, err
		}
	}

	resp, err := s.Response()
	if err != nil {
		return codecanvas.Response{}, err
	}
	if resp.Text == "" {
		return resp, fmt.Errorf("anthropic: %w: empty response (stop reason %q)", codecanvas.ErrGeneration, resp.RawStopReason)
	}
	return resp, nil
}

func (c *Client) buildRequest(req codecanvas.Request) apiRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}
	return apiRequest{
		Model:     model,
		MaxTokens: req.Config.MaxOutputTokens,
		Stream:    true,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: req.Prompt}},
		}},
		Temperature: req.Config.Temperature,
		TopK:        req.Config.TopK,
	}
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: %w: HTTP %d (failed to read body: %w)", codecanvas.ErrGeneration, resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: %w: HTTP %d: %s", codecanvas.ErrGeneration, resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %w: %s: %s", codecanvas.ErrGeneration, apiErr.Error.Type, apiErr.Error.Message)
}
