// Package gemini implements [codecanvas.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between codecanvas
// domain types and the Gemini API types. Streaming uses the SDK's iter.Seq2
// iterator, wrapped into the pull-based [codecanvas.Stream] interface.
package gemini

const defaultModel = "gemini-2.5-flash"
