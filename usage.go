package codecanvas

// Usage tracks token consumption reported by the upstream provider.
//
// InputTokens counts prompt tokens, OutputTokens counts generated text
// tokens. ThinkingTokens is reported separately by providers that bill
// reasoning apart from the visible answer and is zero otherwise.
// Providers clamp negative upstream values to zero.
type Usage struct {
	InputTokens    int
	OutputTokens   int
	ThinkingTokens int
}

// Total returns the sum of all token categories.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.ThinkingTokens
}
