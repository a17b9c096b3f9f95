package codecanvas

// GenerationConfig holds the sampling parameters sent upstream.
// Values are immutable once selected by the router.
type GenerationConfig struct {
	Temperature     float64 // [0, 1]
	TopK            int     // > 0
	TopP            float64 // (0, 1]
	MaxOutputTokens int     // > 0
}

// Presets. Explanations favor accuracy; analogies favor creativity.
var (
	ExplainConfig = GenerationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
	VisualAnalogyConfig = GenerationConfig{
		Temperature:     0.9,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
)

// GenerationRequest is what a client asks the gateway for.
type GenerationRequest struct {
	SourceCode  string
	LanguageTag string
	Intent      Intent
}

// Request carries a finished prompt and generation parameters to a
// Provider. The provider uses its own default model when Model is empty.
type Request struct {
	Model  string
	Prompt string
	Config GenerationConfig
}
