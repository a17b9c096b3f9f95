package codecanvas_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/codecanvas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addExample = "function add(a, b) { return a + b; }"

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	t.Run("explain embeds language and code", func(t *testing.T) {
		t.Parallel()
		p, err := codecanvas.BuildPrompt(codecanvas.IntentExplain, addExample, "javascript")
		require.NoError(t, err)
		assert.Contains(t, p, "javascript code")
		assert.True(t, strings.HasSuffix(p, "Code:\n"+addExample))
		assert.Contains(t, p, "1. The main logic and functionality")
		assert.Contains(t, p, "4. Potential edge cases or considerations")
	})

	t.Run("visual analogy embeds language and code", func(t *testing.T) {
		t.Parallel()
		p, err := codecanvas.BuildPrompt(codecanvas.IntentVisualAnalogy, addExample, "javascript")
		require.NoError(t, err)
		assert.Contains(t, p, "javascript code")
		assert.Contains(t, p, "under 200 words")
		assert.True(t, strings.HasSuffix(p, "Code:\n"+addExample))
	})

	t.Run("templates differ per intent", func(t *testing.T) {
		t.Parallel()
		explain, err := codecanvas.BuildPrompt(codecanvas.IntentExplain, addExample, "javascript")
		require.NoError(t, err)
		visual, err := codecanvas.BuildPrompt(codecanvas.IntentVisualAnalogy, addExample, "javascript")
		require.NoError(t, err)
		assert.NotEqual(t, explain, visual)
	})

	t.Run("code is interpolated verbatim", func(t *testing.T) {
		t.Parallel()
		code := "printf(\"%s %d\\n\", `x`, 1) // <b>&amp;</b>"
		p, err := codecanvas.BuildPrompt(codecanvas.IntentExplain, code, "c")
		require.NoError(t, err)
		assert.Contains(t, p, code)
	})

	t.Run("unknown intent", func(t *testing.T) {
		t.Parallel()
		_, err := codecanvas.BuildPrompt(codecanvas.Intent(0), addExample, "javascript")
		assert.ErrorIs(t, err, codecanvas.ErrValidation)
	})
}
