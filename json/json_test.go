package json_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/codecanvas"
	cjson "github.com/fwojciec/codecanvas/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addExample = "function add(a, b) { return a + b; }"

func TestDecodeRequest(t *testing.T) {
	t.Parallel()

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()
		body := `{"prompt":"function add(a, b) { return a + b; }","language":"javascript"}`
		req, err := cjson.DecodeRequest(strings.NewReader(body), codecanvas.IntentVisualAnalogy)
		require.NoError(t, err)
		assert.Equal(t, codecanvas.GenerationRequest{
			SourceCode:  addExample,
			LanguageTag: "javascript",
			Intent:      codecanvas.IntentVisualAnalogy,
		}, req)
	})

	t.Run("trailing whitespace is allowed", func(t *testing.T) {
		t.Parallel()
		body := "{\"prompt\":\"x = 1\",\"language\":\"python\"}\n\t "
		req, err := cjson.DecodeRequest(strings.NewReader(body), codecanvas.IntentExplain)
		require.NoError(t, err)
		assert.Equal(t, "x = 1", req.SourceCode)
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		t.Parallel()
		body := `{"prompt":"x = 1","language":"python","theme":"dark"}`
		req, err := cjson.DecodeRequest(strings.NewReader(body), codecanvas.IntentExplain)
		require.NoError(t, err)
		assert.Equal(t, "python", req.LanguageTag)
	})

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"malformed json", `{"prompt":`, "malformed request body"},
		{"not an object", `"hello"`, "malformed request body"},
		{"empty body", ``, "malformed request body"},
		{"trailing garbage", `{"prompt":"x","language":"go"}garbage`, "malformed request body"},
		{"second object", `{"prompt":"x","language":"go"} {"prompt":"y"}`, "malformed request body"},
		{"stray brace", `{"prompt":"x","language":"go"}}`, "malformed request body"},
		{"missing prompt", `{"language":"javascript"}`, "source code is required"},
		{"blank prompt", `{"prompt":"  ","language":"javascript"}`, "source code is required"},
		{"missing language", `{"prompt":"x = 1"}`, "language is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := cjson.DecodeRequest(strings.NewReader(tt.body), codecanvas.IntentExplain)
			require.Error(t, err)
			assert.ErrorIs(t, err, codecanvas.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDecodeRequest_OversizedBody(t *testing.T) {
	t.Parallel()

	body := `{"prompt":"` + strings.Repeat("a", 2048) + `","language":"javascript"}`
	r := httptest.NewRequest(http.MethodPost, "/explain", strings.NewReader(body))
	limited := http.MaxBytesReader(httptest.NewRecorder(), r.Body, 64)

	_, err := cjson.DecodeRequest(limited, codecanvas.IntentExplain)
	require.Error(t, err)
	assert.ErrorIs(t, err, codecanvas.ErrValidation)
	assert.Contains(t, err.Error(), "exceeds 64 bytes")
}

func TestEncodeRequest(t *testing.T) {
	t.Parallel()

	data, err := cjson.EncodeRequest(codecanvas.GenerationRequest{
		SourceCode:  addExample,
		LanguageTag: "javascript",
		Intent:      codecanvas.IntentExplain,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"prompt": addExample, "language": "javascript"}, got)
}

func TestResponseShapes(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(cjson.AnalogyResponse{Analogy: "Two rivers joining into one."})
	require.NoError(t, err)
	assert.JSONEq(t, `{"analogy":"Two rivers joining into one."}`, string(data))

	data, err = json.Marshal(cjson.ErrorResponse{Error: "Failed to generate visual analogy"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Failed to generate visual analogy"}`, string(data))
}

func TestDecodeAnalogy(t *testing.T) {
	t.Parallel()

	t.Run("analogy", func(t *testing.T) {
		t.Parallel()
		got, err := cjson.DecodeAnalogy(strings.NewReader(`{"analogy":"Two rivers joining into one."}`))
		require.NoError(t, err)
		assert.Equal(t, "Two rivers joining into one.", got)
	})

	t.Run("empty analogy is still an analogy", func(t *testing.T) {
		t.Parallel()
		got, err := cjson.DecodeAnalogy(strings.NewReader(`{"analogy":""}`))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		_, err := cjson.DecodeAnalogy(strings.NewReader(`{"error":"Failed to generate visual analogy"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, cjson.ErrRemote)
		assert.Contains(t, err.Error(), "Failed to generate visual analogy")
	})

	for _, body := range []string{`{}`, `{"analogy":"a","error":"b"}`, `nope`} {
		t.Run("malformed "+body, func(t *testing.T) {
			t.Parallel()
			_, err := cjson.DecodeAnalogy(strings.NewReader(body))
			require.Error(t, err)
			assert.NotErrorIs(t, err, cjson.ErrRemote)
		})
	}
}

func TestDecodeError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "bad", cjson.DecodeError(strings.NewReader(`{"error":"bad"}`)))
	assert.Empty(t, cjson.DecodeError(strings.NewReader(`<html>`)))
}
