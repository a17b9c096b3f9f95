// Package json implements the HTTP wire format shared by the gateway
// server and its client.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/codecanvas"
)

// CodeRequest is the body of both /explain and /visual.
type CodeRequest struct {
	Prompt   string `json:"prompt"`
	Language string `json:"language"`
}

// AnalogyResponse is the success body of /visual.
type AnalogyResponse struct {
	Analogy string `json:"analogy"`
}

// ErrorResponse is the failure body of every route.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// DecodeRequest reads a CodeRequest from r and converts it into a validated
// GenerationRequest for intent. Malformed JSON, an oversized body and
// missing fields all fail with codecanvas.ErrValidation.
func DecodeRequest(r io.Reader, intent codecanvas.Intent) (codecanvas.GenerationRequest, error) {
	var body CodeRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&body); err != nil {
		return codecanvas.GenerationRequest{}, bodyError(err)
	}
	// The body must hold exactly one object.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data")
		}
		return codecanvas.GenerationRequest{}, bodyError(err)
	}
	req := codecanvas.GenerationRequest{
		SourceCode:  body.Prompt,
		LanguageTag: body.Language,
		Intent:      intent,
	}
	if err := req.Validate(); err != nil {
		return codecanvas.GenerationRequest{}, err
	}
	return req, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("request body exceeds %d bytes: %w", maxErr.Limit, codecanvas.ErrValidation)
	}
	return fmt.Errorf("malformed request body: %w", codecanvas.ErrValidation)
}

// EncodeRequest serializes req for the wire. The intent is carried by the
// route, not the body.
func EncodeRequest(req codecanvas.GenerationRequest) ([]byte, error) {
	return json.Marshal(CodeRequest{Prompt: req.SourceCode, Language: req.LanguageTag})
}
