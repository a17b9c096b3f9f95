package codecanvas

import (
	"fmt"
	"strings"
)

// Validate checks that the request is well formed. Absent code or
// language is a client error and is never defaulted.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.SourceCode) == "" {
		return fmt.Errorf("source code is required: %w", ErrValidation)
	}
	if strings.TrimSpace(r.LanguageTag) == "" {
		return fmt.Errorf("language is required: %w", ErrValidation)
	}
	if _, err := RouteFor(r.Intent); err != nil {
		return err
	}
	return nil
}

// Validate checks the parameter ranges of a GenerationConfig.
func (c GenerationConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be in [0, 1], got %g: %w", c.Temperature, ErrValidation)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d: %w", c.TopK, ErrValidation)
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %g: %w", c.TopP, ErrValidation)
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("max_output_tokens must be positive, got %d: %w", c.MaxOutputTokens, ErrValidation)
	}
	return nil
}

// Validate checks universal constraints on a provider Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required: %w", ErrValidation)
	}
	return r.Config.Validate()
}
