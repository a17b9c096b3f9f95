// Package client consumes the gateway over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/codecanvas"
	cjson "github.com/fwojciec/codecanvas/json"
)

// Client talks to a running gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. It must not impose a total request
// timeout if explanations are expected to stream for long.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Explain requests a streamed explanation. Errors reported by the server
// before streaming wrap codecanvas.ErrValidation (400) or
// codecanvas.ErrGeneration (anything else). The returned Stream yields
// text fragments that never split a UTF-8 sequence; the caller must
// Close it.
func (c *Client) Explain(ctx context.Context, req codecanvas.GenerationRequest) (codecanvas.Stream, error) {
	resp, err := c.post(ctx, "/explain", req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return newStream(ctx, resp.Body), nil
}

// Visualize requests a visual analogy. The analogy is returned as the
// Response text.
func (c *Client) Visualize(ctx context.Context, req codecanvas.GenerationRequest) (codecanvas.Response, error) {
	resp, err := c.post(ctx, "/visual", req)
	if err != nil {
		return codecanvas.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return codecanvas.Response{}, statusError(resp)
	}
	analogy, err := cjson.DecodeAnalogy(resp.Body)
	if err != nil {
		if errors.Is(err, cjson.ErrRemote) || resp.StatusCode != http.StatusOK {
			return codecanvas.Response{}, fmt.Errorf("client: %w: %w", codecanvas.ErrGeneration, err)
		}
		return codecanvas.Response{}, fmt.Errorf("client: %w", err)
	}
	return codecanvas.Response{Text: analogy, StopReason: codecanvas.StopEndTurn, RawStopReason: "end_turn"}, nil
}

// Health checks that the gateway is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: health check: HTTP %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, req codecanvas.GenerationRequest) (*http.Response, error) {
	body, err := cjson.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("client: %w", ctxErr)
		}
		return nil, fmt.Errorf("client: %w: %w", codecanvas.ErrGeneration, err)
	}
	return resp, nil
}

// statusError converts a non-200 response into an error carrying the
// server's message.
func statusError(resp *http.Response) error {
	msg := cjson.DecodeError(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	kind := codecanvas.ErrGeneration
	if resp.StatusCode == http.StatusBadRequest {
		kind = codecanvas.ErrValidation
	}
	return fmt.Errorf("client: %w: HTTP %d: %s", kind, resp.StatusCode, msg)
}
