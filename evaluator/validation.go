package evaluator

import (
	"fmt"
	"image"
	"strings"
)

// Validation limits for evaluation inputs.
const (
	DefaultMaxImagePixels     = 4096 * 4096 // Largest pixel count accepted by default
	DefaultMaxPrincipleLength = 10000       // Maximum principle text length in characters
	MinPrincipleLength        = 1           // Minimum principle text length to be valid
)

// ValidationResult contains the results of input validation
type ValidationResult struct {
	Valid       bool
	Issues      []string
	Suggestions []string
}

// ValidationOptions configures input validation behavior
type ValidationOptions struct {
	MaxImagePixels     int
	MaxPrincipleLength int
	MinPrincipleLength int
}

// DefaultValidationOptions returns sensible defaults for input validation
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxImagePixels:     DefaultMaxImagePixels,
		MaxPrincipleLength: DefaultMaxPrincipleLength,
		MinPrincipleLength: MinPrincipleLength,
	}
}

// ValidateImage checks that an image is usable as an evaluation payload
// before it is encoded and sent over the wire.
func ValidateImage(img image.Image, opts ValidationOptions) ValidationResult {
	result := ValidationResult{Valid: true}

	if img == nil {
		result.Valid = false
		result.Issues = append(result.Issues, "image is nil")
		result.Suggestions = append(result.Suggestions, "provide a decoded in-memory image")
		return result
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		result.Valid = false
		result.Issues = append(result.Issues, "image has empty bounds")
		result.Suggestions = append(result.Suggestions, "provide an image with at least one pixel")
		return result
	}

	pixels := bounds.Dx() * bounds.Dy()
	if pixels > opts.MaxImagePixels {
		result.Valid = false
		result.Issues = append(result.Issues, fmt.Sprintf("image too large (%d pixels, maximum %d)",
			pixels, opts.MaxImagePixels))
		result.Suggestions = append(result.Suggestions, "downscale the image before evaluation")
	}

	return result
}

// ValidatePrincipleText checks instruction text supplied by callers who
// bypass the built-in catalog.
func ValidatePrincipleText(text string, opts ValidationOptions) ValidationResult {
	result := ValidationResult{Valid: true}

	if text == "" {
		result.Valid = false
		result.Issues = append(result.Issues, "principle text is empty")
		result.Suggestions = append(result.Suggestions, "provide evaluation instruction text or use a built-in principle")
		return result
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		result.Valid = false
		result.Issues = append(result.Issues, "principle text contains only whitespace")
		result.Suggestions = append(result.Suggestions, "provide non-whitespace instruction text")
		return result
	}

	if len(trimmed) < opts.MinPrincipleLength {
		result.Valid = false
		result.Issues = append(result.Issues, fmt.Sprintf("principle text too short (%d chars, minimum %d)",
			len(trimmed), opts.MinPrincipleLength))
		result.Suggestions = append(result.Suggestions, "provide more detailed instruction text")
	}

	if len(trimmed) > opts.MaxPrincipleLength {
		result.Valid = false
		result.Issues = append(result.Issues, fmt.Sprintf("principle text too long (%d chars, maximum %d)",
			len(trimmed), opts.MaxPrincipleLength))
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("reduce instruction text to under %d characters", opts.MaxPrincipleLength))
	}

	return result
}
