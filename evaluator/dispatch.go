package evaluator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// buildVisionRequest assembles a chat completion request with a system
// message, a multi-part user message (instruction text followed by one
// image part per encoded payload) and a JSON schema response format.
func buildVisionRequest(model, systemPrompt, userPrompt string, encodedImages []string, schema *jsonschema.Definition, schemaName string) openai.ChatCompletionRequest {
	parts := make([]openai.ChatMessagePart, 0, len(encodedImages)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: userPrompt,
	})
	for _, encoded := range encodedImages {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    pngDataURL(encoded),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Schema: schema,
				Name:   schemaName,
			},
		},
	}
}

// dispatchSamples issues numReturn identical, independent requests and
// coerces each reply with parse. Requests run concurrently, bounded by
// maxConcurrent, each under its own timeout when one is configured.
//
// Successful results are returned in sample order. Failures never drop
// silently: each one is wrapped in a SampleError carrying its sample index
// and all failures are joined into the returned error, so callers can tell
// N results from fewer-than-N due to partial failure.
func dispatchSamples[T any](ctx context.Context, client OpenAIClient, req openai.ChatCompletionRequest, numReturn, maxConcurrent int, timeout time.Duration, parse func(content string) (T, error)) ([]T, error) {
	if numReturn <= 0 {
		return []T{}, nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	type sample struct {
		result T
		err    error
	}

	samples := make([]sample, numReturn)
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	slog.Info("Dispatching evaluation samples",
		"num_return", numReturn,
		"max_concurrent", maxConcurrent,
		"model", req.Model)

	for i := 0; i < numReturn; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			sampleCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				sampleCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			samples[i].result, samples[i].err = requestSample(sampleCtx, client, req, parse)
		}(i)
	}
	wg.Wait()

	results := make([]T, 0, numReturn)
	var errs []error
	for i, s := range samples {
		if s.err != nil {
			slog.Debug("Evaluation sample failed",
				"sample", i,
				"error", s.err)
			errs = append(errs, &SampleError{Sample: i, Err: s.err})
			continue
		}
		results = append(results, s.result)
	}

	if len(errs) > 0 {
		slog.Warn("Evaluation completed with failed samples",
			"requested", numReturn,
			"succeeded", len(results),
			"failed", len(errs))
		return results, errors.Join(errs...)
	}

	return results, nil
}

func requestSample[T any](ctx context.Context, client OpenAIClient, req openai.ChatCompletionRequest, parse func(content string) (T, error)) (T, error) {
	var zero T

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return zero, err
	}
	if len(resp.Choices) == 0 {
		return zero, ErrEmptyResponse
	}

	return parse(resp.Choices[0].Message.Content)
}
