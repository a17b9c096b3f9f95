package codecanvas_test

import (
	"testing"

	"github.com/fwojciec/codecanvas"
	"github.com/stretchr/testify/assert"
)

func TestStopReason_Values(t *testing.T) {
	t.Parallel()
	assert.Equal(t, codecanvas.StopReason("end_turn"), codecanvas.StopEndTurn)
	assert.Equal(t, codecanvas.StopReason("length"), codecanvas.StopLength)
	assert.Equal(t, codecanvas.StopReason("blocked"), codecanvas.StopBlocked)
	assert.Equal(t, codecanvas.StopReason("error"), codecanvas.StopError)
	assert.Equal(t, codecanvas.StopReason("aborted"), codecanvas.StopAborted)
	assert.Equal(t, codecanvas.StopReason("unknown"), codecanvas.StopUnknown)
}

func TestUsage_ZeroValue(t *testing.T) {
	t.Parallel()
	var u codecanvas.Usage
	assert.Equal(t, 0, u.InputTokens)
	assert.Equal(t, 0, u.OutputTokens)
	assert.Equal(t, 0, u.Total())
}

func TestUsage_Total(t *testing.T) {
	t.Parallel()
	u := codecanvas.Usage{InputTokens: 120, OutputTokens: 300, ThinkingTokens: 45}
	assert.Equal(t, 465, u.Total())
}
