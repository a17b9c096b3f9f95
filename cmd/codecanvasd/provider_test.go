package main

import (
	"context"
	"testing"

	"github.com/fwojciec/codecanvas/anthropic"
	"github.com/fwojciec/codecanvas/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProvider_Explicit(t *testing.T) {
	t.Parallel()

	p, name, err := resolveProvider(context.Background(), "anthropic", apiKeys{flag: "sk-test"}, 0)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Client{}, p)
	assert.Equal(t, "anthropic", name)

	p, name, err = resolveProvider(context.Background(), "gemini", apiKeys{flag: "gk-test"}, 0)
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, p)
	assert.Equal(t, "gemini", name)
}

func TestResolveProvider_AutoDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		keys apiKeys
		want string
	}{
		{"google ai key", apiKeys{googleAI: "gk"}, "gemini"},
		{"gemini key", apiKeys{gemini: "gk"}, "gemini"},
		{"both gemini keys", apiKeys{googleAI: "gk1", gemini: "gk2"}, "gemini"},
		{"anthropic key", apiKeys{anthropic: "sk"}, "anthropic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, name, err := resolveProvider(context.Background(), "", tt.keys, 0)
			require.NoError(t, err)
			assert.NotNil(t, p)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestResolveProvider_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
		keys     apiKeys
		msg      string
	}{
		{"no keys", "", apiKeys{}, "no API key found"},
		{"both providers", "", apiKeys{gemini: "gk", anthropic: "sk"}, "multiple API keys"},
		{"unknown provider", "openai", apiKeys{flag: "key"}, "unknown provider"},
		{"anthropic without key", "anthropic", apiKeys{gemini: "gk"}, "ANTHROPIC_API_KEY not set"},
		{"gemini without key", "gemini", apiKeys{anthropic: "sk"}, "GOOGLE_AI_API_KEY not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := resolveProvider(context.Background(), tt.provider, tt.keys, 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestResolveProvider_FlagKeyOverridesEnv(t *testing.T) {
	t.Parallel()
	// Both env keys are present, but the explicit provider disambiguates.
	p, name, err := resolveProvider(context.Background(), "anthropic", apiKeys{flag: "sk-flag", anthropic: "sk-env", gemini: "gk"}, 0)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, "anthropic", name)
}
