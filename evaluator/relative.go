package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// RelativeEvaluator compares two graphic design images against one design
// principle and reports a preference outcome per sample. Both images are
// encoded and embedded in the user message, labeled (a) and (b) by position.
type RelativeEvaluator struct {
	client OpenAIClient
	config Config
}

// NewRelativeEvaluator creates a relative evaluator using the given client
func NewRelativeEvaluator(client OpenAIClient, cfg Config) *RelativeEvaluator {
	return &RelativeEvaluator{
		client: client,
		config: cfg,
	}
}

// Evaluate compares imgA and imgB under the given principle instruction
// text. It returns one RelativeEvaluationResult per requested sample; see
// WithNumReturn. Replies outside the declared preference values surface as
// *SchemaError.
func (e *RelativeEvaluator) Evaluate(ctx context.Context, imgA, imgB image.Image, principleText string, opts ...EvaluateOption) ([]RelativeEvaluationResult, error) {
	options := newEvaluateOptions(e.config.Model, relativeSystemTemplate)
	for _, opt := range opts {
		opt(&options)
	}

	if options.numReturn <= 0 {
		return []RelativeEvaluationResult{}, nil
	}
	if imgA == nil || imgB == nil {
		return nil, ErrNilImage
	}

	encodedA, err := EncodePNG(imgA)
	if err != nil {
		return nil, fmt.Errorf("image a: %w", err)
	}
	encodedB, err := EncodePNG(imgB)
	if err != nil {
		return nil, fmt.Errorf("image b: %w", err)
	}

	schema, err := jsonschema.GenerateSchemaForType(RelativeEvaluationResult{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON schema for relative evaluation result: %w", err)
	}

	systemPrompt := fmt.Sprintf(options.systemTemplate, principleText)
	req := buildVisionRequest(options.model, systemPrompt, relativeUserPrompt, []string{encodedA, encodedB}, schema, "design_comparison")

	results, err := dispatchSamples(ctx, e.client, req, options.numReturn, e.config.MaxConcurrent, e.config.Timeout, parseRelativeEvaluationResult)
	if err != nil {
		return results, fmt.Errorf("relative evaluation failed: %w", err)
	}

	for _, result := range results {
		slog.Debug("Designs compared",
			"preference", result.Preference,
			"explanation", result.Explanation)
	}

	return results, nil
}

// EvaluatePrinciple compares imgA and imgB against one of the built-in
// design principles using the default system prompt template.
func (e *RelativeEvaluator) EvaluatePrinciple(ctx context.Context, imgA, imgB image.Image, principle DesignPrinciple, opts ...EvaluateOption) ([]RelativeEvaluationResult, error) {
	text, err := PrincipleText(principle)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, imgA, imgB, text, opts...)
}

func parseRelativeEvaluationResult(content string) (RelativeEvaluationResult, error) {
	var result RelativeEvaluationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return RelativeEvaluationResult{}, &SchemaError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := result.Validate(); err != nil {
		return RelativeEvaluationResult{}, err
	}
	return result, nil
}
