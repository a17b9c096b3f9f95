package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/codecanvas"
	cgin "github.com/fwojciec/codecanvas/gin"
	"github.com/fwojciec/codecanvas/mock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// recorder captures the last prompt the gateway passed to the provider.
type recorder struct {
	mu     sync.Mutex
	prompt string
}

func (r *recorder) set(prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompt = prompt
}

func (r *recorder) get() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompt
}

func newGateway(t *testing.T, p *mock.Provider) string {
	t.Helper()
	srv := httptest.NewServer(cgin.NewServer(codecanvas.NewGateway(p)))
	t.Cleanup(srv.Close)
	return srv.URL
}

func streamingProvider(rec *recorder, err error, fragments ...string) *mock.Provider {
	return &mock.Provider{
		StreamFn: func(ctx context.Context, req codecanvas.Request) (codecanvas.Stream, error) {
			if rec != nil {
				rec.set(req.Prompt)
			}
			return mock.NewTextStream(err, fragments...), nil
		},
	}
}

func TestRun_Explain(t *testing.T) {
	t.Parallel()

	t.Run("streams raw text from stdin", func(t *testing.T) {
		t.Parallel()
		var rec recorder
		url := newGateway(t, streamingProvider(&rec, nil, "## Overview\n", "Adds two ", "numbers."))

		var stdout, stderr bytes.Buffer
		err := run(context.Background(), []string{"-server", url, "-lang", "javascript"},
			strings.NewReader("function add(a, b) { return a + b; }"), &stdout, &stderr)
		require.NoError(t, err)

		assert.Equal(t, "## Overview\nAdds two numbers.\n", stdout.String())
		assert.Contains(t, rec.get(), "javascript")
		assert.Contains(t, rec.get(), "function add(a, b)")
	})

	t.Run("infers language from file extension", func(t *testing.T) {
		t.Parallel()
		var rec recorder
		url := newGateway(t, streamingProvider(&rec, nil, "ok"))

		path := filepath.Join(t.TempDir(), "add.py")
		require.NoError(t, os.WriteFile(path, []byte("def add(a, b):\n    return a + b\n"), 0o600))

		var stdout bytes.Buffer
		err := run(context.Background(), []string{"-server", url, path}, nil, &stdout, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Contains(t, rec.get(), "python")
		assert.Contains(t, rec.get(), "def add(a, b):")
	})

	t.Run("renders markdown when complete", func(t *testing.T) {
		t.Parallel()
		url := newGateway(t, streamingProvider(nil, nil, "- first\n", "- second\n"))

		var stdout bytes.Buffer
		err := run(context.Background(), []string{"-server", url, "-lang", "go", "-render"},
			strings.NewReader("package main"), &stdout, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "• first")
		assert.Contains(t, stdout.String(), "• second")
		assert.NotContains(t, stdout.String(), "- first")
	})

	t.Run("in-band error after partial output", func(t *testing.T) {
		t.Parallel()
		url := newGateway(t, streamingProvider(nil, errors.New("boom"), "partial "))

		var stdout bytes.Buffer
		err := run(context.Background(), []string{"-server", url, "-lang", "python"},
			strings.NewReader("x = 1"), &stdout, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "partial "+codecanvas.DefaultStreamErrorText+"\n", stdout.String())
	})

	t.Run("failure before first fragment", func(t *testing.T) {
		t.Parallel()
		url := newGateway(t, streamingProvider(nil, errors.New("boom")))

		err := run(context.Background(), []string{"-server", url, "-lang", "python"},
			strings.NewReader("x = 1"), &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.ErrorIs(t, err, codecanvas.ErrGeneration)
		assert.Contains(t, err.Error(), "Failed to generate explanation")
	})
}

func TestRun_RenderedFailure(t *testing.T) {
	t.Parallel()
	url := newGateway(t, streamingProvider(nil, errors.New("boom")))

	var stderr bytes.Buffer
	err := run(context.Background(), []string{"-server", url, "-lang", "python", "-render"},
		strings.NewReader("x = 1"), &bytes.Buffer{}, &stderr)
	require.Error(t, err)
	assert.ErrorIs(t, err, errReported)
	assert.ErrorIs(t, err, codecanvas.ErrGeneration)
	assert.Contains(t, stderr.String(), "explain · python")
	assert.Contains(t, stderr.String(), "error: ")
	assert.Contains(t, stderr.String(), "Failed to generate explanation")
}

func TestRun_Visual(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		GenerateFn: func(ctx context.Context, req codecanvas.Request) (codecanvas.Response, error) {
			return codecanvas.Response{Text: "Two rivers joining into one.", StopReason: codecanvas.StopEndTurn}, nil
		},
	}
	url := newGateway(t, p)

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		var stdout bytes.Buffer
		err := run(context.Background(), []string{"-server", url, "-lang", "javascript", "-visual"},
			strings.NewReader("function add(a, b) { return a + b; }"), &stdout, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "Two rivers joining into one.\n", stdout.String())
	})

	t.Run("rendered", func(t *testing.T) {
		t.Parallel()
		var stdout bytes.Buffer
		err := run(context.Background(), []string{"-server", url, "-lang", "javascript", "-visual", "-render"},
			strings.NewReader("function add(a, b) { return a + b; }"), &stdout, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Visual analogy")
		assert.Contains(t, stdout.String(), "Two rivers joining into one.")
		assert.Contains(t, stdout.String(), "╭")
	})
}

func TestRun_InputErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		stdin string
		msg   string
	}{
		{"language not inferable", []string{}, "x = 1", "cannot infer language"},
		{"missing file", []string{filepath.Join("testdata", "missing.py")}, "", "read source"},
		{"too many files", []string{"a.py", "b.py"}, "", "at most one file"},
		{"unknown flag", []string{"-nope"}, "", "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := run(context.Background(), tt.args, strings.NewReader(tt.stdin), &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRun_EmptySourceRejected(t *testing.T) {
	t.Parallel()
	url := newGateway(t, streamingProvider(nil, nil, "unused"))

	err := run(context.Background(), []string{"-server", url, "-lang", "python"},
		strings.NewReader("   \n"), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, codecanvas.ErrValidation)
}
