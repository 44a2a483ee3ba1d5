package evaluator

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts/*.txt
var promptFS embed.FS

const (
	absoluteUserPrompt = "Please score the following images."
	relativeUserPrompt = "Which of the following graphic designs has better quality regarding the above-described points? (a)[image] (b)[image]"
)

var (
	absoluteSystemTemplate string
	relativeSystemTemplate string
	principleTexts         map[DesignPrinciple]string
)

func init() {
	// Load instruction text during package initialization
	absoluteSystemTemplate = mustPrompt("prompts/absolute_system.txt")
	relativeSystemTemplate = mustPrompt("prompts/relative_system.txt")
	principleTexts = map[DesignPrinciple]string{
		PrincipleAlignment:  mustPrompt("prompts/alignment.txt"),
		PrincipleOverlap:    mustPrompt("prompts/overlap.txt"),
		PrincipleWhitespace: mustPrompt("prompts/whitespace.txt"),
	}
}

func mustPrompt(name string) string {
	promptBytes, err := promptFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt %s: %v", name, err))
	}
	return strings.TrimRight(string(promptBytes), "\n")
}

// PrincipleText returns the instruction text for a design principle. Passing
// a tag outside the declared DesignPrinciple values is a programmer error and
// fails with ErrUnknownPrinciple.
func PrincipleText(principle DesignPrinciple) (string, error) {
	text, ok := principleTexts[principle]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrinciple, principle)
	}
	return text, nil
}

// Principles returns the design principles with built-in instruction text.
func Principles() []DesignPrinciple {
	return []DesignPrinciple{PrincipleAlignment, PrincipleOverlap, PrincipleWhitespace}
}

// DefaultSystemPromptTemplate returns the built-in system prompt template
// used for absolute evaluation. The %s placeholder receives the principle text.
func DefaultSystemPromptTemplate() string {
	return absoluteSystemTemplate
}

// DefaultRelativeSystemPromptTemplate returns the built-in system prompt
// template used for relative evaluation.
func DefaultRelativeSystemPromptTemplate() string {
	return relativeSystemTemplate
}
