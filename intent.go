package codecanvas

import "fmt"

// Intent is the caller's purpose. It selects the prompt template, the
// generation parameters and the relay mode. The zero value is invalid.
type Intent int

const (
	IntentExplain Intent = iota + 1
	IntentVisualAnalogy
)

// String returns a stable lowercase name, used for logs and metric labels.
func (i Intent) String() string {
	switch i {
	case IntentExplain:
		return "explain"
	case IntentVisualAnalogy:
		return "visual_analogy"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

// Mode selects how a route relays the upstream result.
type Mode int

const (
	ModeStreaming Mode = iota + 1
	ModeBuffered
)

// String returns a stable lowercase name.
func (m Mode) String() string {
	switch m {
	case ModeStreaming:
		return "streaming"
	case ModeBuffered:
		return "buffered"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Route is the static dispatch entry for one intent.
type Route struct {
	Intent Intent
	Config GenerationConfig
	Mode   Mode
}

// RouteFor returns the fixed route for intent. Dispatch is static: the
// table is not data-driven and cannot be changed at runtime.
func RouteFor(intent Intent) (Route, error) {
	switch intent {
	case IntentExplain:
		return Route{Intent: intent, Config: ExplainConfig, Mode: ModeStreaming}, nil
	case IntentVisualAnalogy:
		return Route{Intent: intent, Config: VisualAnalogyConfig, Mode: ModeBuffered}, nil
	default:
		return Route{}, fmt.Errorf("unknown intent %s: %w", intent, ErrValidation)
	}
}
