package codecanvas

import "fmt"

const explainTemplate = `Please explain the following %s code in a clear and concise way.
Focus on:
1. The main logic and functionality
2. Key language-specific features used
3. Any important patterns or best practices
4. Potential edge cases or considerations

Use simple analogies where appropriate to help understand the code better.
Format your explanation with clear sections and bullet points where helpful.

Code:
%s`

const visualAnalogyTemplate = `Create a visual analogy to explain how this %s code works.
Focus on creating a real-world analogy that helps understand the code's:
1. Main purpose and flow
2. Key components and their relationships
3. How data moves through the system

Make the analogy relatable and easy to visualize.
Avoid technical terms in the analogy.
Keep the explanation under 200 words.

Code:
%s`

// BuildPrompt renders the prompt for intent. Code and language are
// interpolated verbatim: no escaping and no size checks happen here.
func BuildPrompt(intent Intent, sourceCode, languageTag string) (string, error) {
	switch intent {
	case IntentExplain:
		return fmt.Sprintf(explainTemplate, languageTag, sourceCode), nil
	case IntentVisualAnalogy:
		return fmt.Sprintf(visualAnalogyTemplate, languageTag, sourceCode), nil
	default:
		return "", fmt.Errorf("no prompt template for %s: %w", intent, ErrValidation)
	}
}
