package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/codecanvas"
	"github.com/fwojciec/codecanvas/anthropic"
	"github.com/fwojciec/codecanvas/gemini"
)

// apiKeys holds credentials read from the environment in main.
type apiKeys struct {
	flag      string // -api-key, overrides the environment
	googleAI  string // GOOGLE_AI_API_KEY
	gemini    string // GEMINI_API_KEY
	anthropic string // ANTHROPIC_API_KEY
}

func (k apiKeys) geminiKey() string {
	if k.googleAI != "" {
		return k.googleAI
	}
	return k.gemini
}

// resolveProvider selects and constructs the provider. All env var values are
// passed in as parameters; env is only read in main().
func resolveProvider(ctx context.Context, name string, keys apiKeys, thinkingBudget int) (codecanvas.Provider, string, error) {
	if name == "" {
		hasGemini := keys.geminiKey() != ""
		hasAnthropic := keys.anthropic != ""
		switch {
		case hasGemini && hasAnthropic:
			return nil, "", fmt.Errorf("multiple API keys found (GOOGLE_AI_API_KEY/GEMINI_API_KEY, ANTHROPIC_API_KEY): set provider to select")
		case hasGemini:
			name = "gemini"
		case hasAnthropic:
			name = "anthropic"
		default:
			return nil, "", fmt.Errorf("no API key found: set GOOGLE_AI_API_KEY, GEMINI_API_KEY or ANTHROPIC_API_KEY (or use -api-key with provider)")
		}
	}

	key := keys.flag
	switch name {
	case "gemini":
		if key == "" {
			key = keys.geminiKey()
		}
		if key == "" {
			return nil, "", fmt.Errorf("GOOGLE_AI_API_KEY not set (use -api-key flag or environment variable)")
		}
		client, err := gemini.New(ctx, key, gemini.WithThinkingBudget(thinkingBudget))
		if err != nil {
			return nil, "", err
		}
		return client, name, nil
	case "anthropic":
		if key == "" {
			key = keys.anthropic
		}
		if key == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set (use -api-key flag or environment variable)")
		}
		return anthropic.New(key), name, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q: must be \"gemini\" or \"anthropic\"", name)
	}
}
