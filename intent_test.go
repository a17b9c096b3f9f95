package codecanvas_test

import (
	"testing"

	"github.com/fwojciec/codecanvas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteFor(t *testing.T) {
	t.Parallel()

	t.Run("explain streams with explain config", func(t *testing.T) {
		t.Parallel()
		route, err := codecanvas.RouteFor(codecanvas.IntentExplain)
		require.NoError(t, err)
		assert.Equal(t, codecanvas.ModeStreaming, route.Mode)
		assert.Equal(t, codecanvas.ExplainConfig, route.Config)
		assert.Equal(t, 0.7, route.Config.Temperature)
	})

	t.Run("visual analogy is buffered with analogy config", func(t *testing.T) {
		t.Parallel()
		route, err := codecanvas.RouteFor(codecanvas.IntentVisualAnalogy)
		require.NoError(t, err)
		assert.Equal(t, codecanvas.ModeBuffered, route.Mode)
		assert.Equal(t, codecanvas.VisualAnalogyConfig, route.Config)
		assert.Equal(t, 0.9, route.Config.Temperature)
	})

	t.Run("unknown intent", func(t *testing.T) {
		t.Parallel()
		_, err := codecanvas.RouteFor(codecanvas.Intent(0))
		assert.ErrorIs(t, err, codecanvas.ErrValidation)
	})
}

func TestIntent_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "explain", codecanvas.IntentExplain.String())
	assert.Equal(t, "visual_analogy", codecanvas.IntentVisualAnalogy.String())
	assert.Equal(t, "intent(7)", codecanvas.Intent(7).String())
	assert.Equal(t, "streaming", codecanvas.ModeStreaming.String())
	assert.Equal(t, "buffered", codecanvas.ModeBuffered.String())
}
