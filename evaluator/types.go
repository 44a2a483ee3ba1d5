package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// DesignPrinciple identifies one of the built-in evaluation lenses applied
// to a graphic design image.
type DesignPrinciple string

const (
	PrincipleAlignment  DesignPrinciple = "alignment"
	PrincipleOverlap    DesignPrinciple = "overlap"
	PrincipleWhitespace DesignPrinciple = "whitespace"
)

// Score bounds for absolute evaluation results.
const (
	MinScore = 1
	MaxScore = 10
)

// Preference is the outcome of a relative evaluation. The declared values
// encode a magnitude-of-difference judgment even though the underlying JSON
// field is named "better_design"; this mismatch is inherited from the prompt
// design and is kept as-is so existing prompt/result pairs stay comparable.
type Preference string

const (
	PreferenceNone   Preference = "none"
	PreferenceSmall  Preference = "small"
	PreferenceMedium Preference = "medium"
	PreferenceLarge  Preference = "large"
	PreferenceBoth   Preference = "both"
)

// EvaluationResult is a single absolute score returned by the model.
type EvaluationResult struct {
	Score       int    `json:"score"`       // Score between 1 and 10
	Explanation string `json:"explanation"` // Model's reasoning for the score
}

// Validate checks the result against the declared schema constraints.
func (r EvaluationResult) Validate() error {
	if r.Score < MinScore || r.Score > MaxScore {
		return &SchemaError{
			Field:  "score",
			Value:  r.Score,
			Reason: fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore),
		}
	}
	return nil
}

// RelativeEvaluationResult is a single comparison outcome returned by the model.
type RelativeEvaluationResult struct {
	Preference  Preference `json:"better_design"` // One of the declared Preference values
	Explanation string     `json:"explanation"`   // Model's reasoning for the choice
}

// Validate checks the result against the declared schema constraints.
func (r RelativeEvaluationResult) Validate() error {
	switch r.Preference {
	case PreferenceNone, PreferenceSmall, PreferenceMedium, PreferenceLarge, PreferenceBoth:
		return nil
	default:
		return &SchemaError{
			Field:  "better_design",
			Value:  string(r.Preference),
			Reason: "preference must be one of none, small, medium, large, both",
		}
	}
}

// SchemaError reports a model reply that does not satisfy the requested
// result schema: malformed JSON, a missing field, or a field value outside
// its declared constraints. It is deliberately distinct from transport
// errors so callers can tell "the model misbehaved" from "the call failed".
type SchemaError struct {
	Field  string // Offending field, empty if the whole payload is malformed
	Value  any    // Value as received, nil if the payload could not be parsed
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid model response: %s", e.Reason)
	}
	return fmt.Sprintf("invalid model response: field %q: %s (got %v)", e.Field, e.Reason, e.Value)
}

// SampleError wraps a failure for one sample of a multi-sample evaluation so
// callers can attribute partial failures to specific samples.
type SampleError struct {
	Sample int // Zero-based index of the failed sample
	Err    error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Sample, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// HealthStatus represents the health state of a grader
type HealthStatus struct {
	Healthy bool                   // Overall health status
	Status  string                 // Human-readable status message
	Details map[string]interface{} // Additional health details
}

// Config holds the configuration for a Grader and its evaluators
type Config struct {
	APIKey               string                // OpenAI API key (required)
	Model                string                // Vision-capable OpenAI model to use
	SystemPromptTemplate string                // Custom absolute system prompt template
	MaxConcurrent        int                   // Maximum concurrent API calls per evaluation
	EnableCircuitBreaker bool                  // Enable circuit breaker pattern
	EnableRetry          bool                  // Enable retry with backoff
	EnableMetrics        bool                  // Enable Prometheus metrics recording
	Timeout              time.Duration         // Per-request timeout
	CircuitBreakerConfig *CircuitBreakerConfig // Circuit breaker configuration
	RetryConfig          *RetryConfig          // Retry configuration
}

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	MaxRequests   uint32                                      // Max requests in half-open state
	Interval      time.Duration                               // Interval for closed state
	Timeout       time.Duration                               // Timeout for open state
	ReadyToTrip   func(counts gobreaker.Counts) bool          // Custom trip condition
	OnStateChange func(name string, from, to gobreaker.State) // State change callback
}

// RetryConfig holds retry settings
type RetryConfig struct {
	MaxAttempts  int           // Maximum number of retry attempts
	Strategy     RetryStrategy // Backoff strategy to use
	InitialDelay time.Duration // Initial delay between retries
	MaxDelay     time.Duration // Maximum delay between retries
}

// RetryStrategy defines the backoff strategy for retries
type RetryStrategy string

const (
	RetryStrategyExponential RetryStrategy = "exponential"
	RetryStrategyConstant    RetryStrategy = "constant"
	RetryStrategyFibonacci   RetryStrategy = "fibonacci"
)

// OpenAIClient defines the interface for interacting with OpenAI API
type OpenAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Error definitions
var (
	ErrMissingAPIKey    = errors.New("OpenAI API key is required")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknownPrinciple = errors.New("unknown design principle")
	ErrNilImage         = errors.New("image must not be nil")
	ErrEmptyResponse    = errors.New("OpenAI returned empty response with no choices")
)

// EvaluateOption is a functional option for configuring a single evaluation call
type EvaluateOption func(*evaluateOptions)

// evaluateOptions holds the options for one evaluation call (internal)
type evaluateOptions struct {
	numReturn      int    // Number of independent samples to request
	systemTemplate string // Custom system prompt template for this call
	model          string // Model override for this call
}

func newEvaluateOptions(model, defaultTemplate string) evaluateOptions {
	if model == "" {
		model = openai.GPT4oMini
	}
	return evaluateOptions{
		numReturn:      1,
		systemTemplate: defaultTemplate,
		model:          model,
	}
}

// WithNumReturn sets how many independent samples to request. Zero yields an
// empty result list without issuing any requests.
func WithNumReturn(n int) EvaluateOption {
	return func(opts *evaluateOptions) {
		opts.numReturn = n
	}
}

// WithSystemPromptTemplate overrides the system prompt template for this call.
// The template must contain a single %s placeholder for the principle text.
func WithSystemPromptTemplate(template string) EvaluateOption {
	return func(opts *evaluateOptions) {
		opts.systemTemplate = template
	}
}

// WithModel overrides the model for this call
func WithModel(model string) EvaluateOption {
	return func(opts *evaluateOptions) {
		opts.model = model
	}
}
