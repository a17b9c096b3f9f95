package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrRemote is returned by DecodeAnalogy when the server answered with an
// error body. The message is the server's public error text.
var ErrRemote = errors.New("server error")

// envelope accepts either response shape so exactly-one can be enforced.
type envelope struct {
	Analogy *string `json:"analogy"`
	Error   *string `json:"error"`
}

// DecodeAnalogy reads a /visual response body. It returns the analogy, or
// an error wrapping ErrRemote carrying the server's message. A body with
// both keys or neither is malformed.
func DecodeAnalogy(r io.Reader) (string, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return "", fmt.Errorf("decode analogy response: %w", err)
	}
	switch {
	case env.Analogy != nil && env.Error == nil:
		return *env.Analogy, nil
	case env.Error != nil && env.Analogy == nil:
		return "", fmt.Errorf("%w: %s", ErrRemote, *env.Error)
	default:
		return "", errors.New("decode analogy response: expected exactly one of analogy or error")
	}
}

// DecodeError reads an error body. It returns an empty string when the
// body is not an ErrorResponse.
func DecodeError(r io.Reader) string {
	var resp ErrorResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return ""
	}
	return resp.Error
}
