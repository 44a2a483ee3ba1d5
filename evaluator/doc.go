// Package evaluator provides a Go library for grading graphic design images
// using OpenAI's vision-capable chat models against a small catalog of
// design principles (alignment, overlap, whitespace).
//
// All evaluative judgment is delegated to the model: the library assembles a
// system prompt from the principle's instruction text, embeds the image(s)
// as base64 PNG payloads, requests a JSON-schema constrained reply, and
// validates the parsed result.
//
// Features:
//   - Absolute scoring (1-10) of a single design image
//   - Relative comparison of two design images
//   - Multiple independent samples per evaluation, dispatched concurrently
//   - Interface-first design for testing and extensibility
//   - Circuit breaker pattern for resilience
//   - Retry logic with exponential backoff
//   - Prometheus metrics integration
//
// Basic usage:
//
//	cfg := evaluator.NewDefaultConfig(os.Getenv("OPENAI_API_KEY"))
//	g, err := evaluator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results, err := g.EvaluateAbsolute(ctx, img, evaluator.PrincipleAlignment)
package evaluator
