package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// AbsoluteEvaluator scores a single graphic design image on a 1-10 scale
// against one design principle. It holds no state beyond the client and
// config; every call is independent.
type AbsoluteEvaluator struct {
	client OpenAIClient
	config Config
}

// NewAbsoluteEvaluator creates an absolute evaluator using the given client
func NewAbsoluteEvaluator(client OpenAIClient, cfg Config) *AbsoluteEvaluator {
	return &AbsoluteEvaluator{
		client: client,
		config: cfg,
	}
}

// Evaluate scores img against the given principle instruction text. It
// returns one EvaluationResult per requested sample; see WithNumReturn.
// Replies that violate the result schema surface as *SchemaError, never
// clamped or silently dropped.
func (e *AbsoluteEvaluator) Evaluate(ctx context.Context, img image.Image, principleText string, opts ...EvaluateOption) ([]EvaluationResult, error) {
	defaultTemplate := absoluteSystemTemplate
	if e.config.SystemPromptTemplate != "" {
		defaultTemplate = e.config.SystemPromptTemplate
	}
	options := newEvaluateOptions(e.config.Model, defaultTemplate)
	for _, opt := range opts {
		opt(&options)
	}

	if options.numReturn <= 0 {
		return []EvaluationResult{}, nil
	}
	if img == nil {
		return nil, ErrNilImage
	}

	encoded, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	schema, err := jsonschema.GenerateSchemaForType(EvaluationResult{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON schema for evaluation result: %w", err)
	}

	systemPrompt := fmt.Sprintf(options.systemTemplate, principleText)
	req := buildVisionRequest(options.model, systemPrompt, absoluteUserPrompt, []string{encoded}, schema, "design_score")

	results, err := dispatchSamples(ctx, e.client, req, options.numReturn, e.config.MaxConcurrent, e.config.Timeout, parseEvaluationResult)
	if err != nil {
		return results, fmt.Errorf("absolute evaluation failed: %w", err)
	}

	for _, result := range results {
		slog.Debug("Design scored",
			"score", result.Score,
			"explanation", result.Explanation)
	}

	return results, nil
}

// EvaluatePrinciple scores img against one of the built-in design
// principles using the default system prompt template.
func (e *AbsoluteEvaluator) EvaluatePrinciple(ctx context.Context, img image.Image, principle DesignPrinciple, opts ...EvaluateOption) ([]EvaluationResult, error) {
	text, err := PrincipleText(principle)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, img, text, opts...)
}

func parseEvaluationResult(content string) (EvaluationResult, error) {
	var result EvaluationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return EvaluationResult{}, &SchemaError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := result.Validate(); err != nil {
		return EvaluationResult{}, err
	}
	return result, nil
}
