package evaluator

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// Grader is the top-level entry point. It builds a layered OpenAI client
// (retry innermost, circuit breaker wrapping it) from its Config and owns
// one evaluator per evaluation mode.
type Grader struct {
	absolute *AbsoluteEvaluator
	relative *RelativeEvaluator
	breaker  *CircuitBreakerWrapper
	metrics  *MetricsRecorder
	config   Config
}

// New creates a Grader backed by the real OpenAI API
func New(cfg Config) (*Grader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := openai.NewClient(cfg.APIKey)
	return NewWithClient(client, cfg)
}

// NewWithClient creates a Grader with a custom OpenAI client. The config is
// not required to carry an API key here; auth belongs to the supplied client.
func NewWithClient(client OpenAIClient, cfg Config) (*Grader, error) {
	if client == nil {
		return nil, errors.New("client must not be nil")
	}

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	layered := client

	// Layer 1: Add retry logic (innermost)
	if cfg.EnableRetry {
		slog.Info("Enabling retry logic",
			"max_attempts", retryAttempts(cfg.RetryConfig),
			"strategy", retryStrategy(cfg.RetryConfig))
		layered = NewRetryWrapper(layered, cfg.RetryConfig)
	}

	// Layer 2: Add circuit breaker (wraps retry)
	var breaker *CircuitBreakerWrapper
	if cfg.EnableCircuitBreaker {
		if cfg.CircuitBreakerConfig != nil && cfg.CircuitBreakerConfig.OnStateChange == nil {
			cfg.CircuitBreakerConfig.OnStateChange = func(name string, from, to gobreaker.State) {
				metrics := NewMetricsRecorder(cfg.EnableMetrics)
				metrics.RecordCircuitBreakerState(name, stateToInt(to))
				if to == gobreaker.StateOpen {
					metrics.RecordCircuitBreakerTrip(name)
				}
			}
		}
		breaker = NewCircuitBreakerWrapper(layered, cfg.CircuitBreakerConfig)
		layered = breaker
	}

	slog.Info("Grader created",
		"model", cfg.Model,
		"max_concurrent", cfg.MaxConcurrent,
		"circuit_breaker", cfg.EnableCircuitBreaker,
		"retry", cfg.EnableRetry,
		"metrics", cfg.EnableMetrics)

	return &Grader{
		absolute: NewAbsoluteEvaluator(layered, cfg),
		relative: NewRelativeEvaluator(layered, cfg),
		breaker:  breaker,
		metrics:  NewMetricsRecorder(cfg.EnableMetrics),
		config:   cfg,
	}, nil
}

// Absolute returns the underlying absolute evaluator for callers who want
// to supply raw instruction text or custom system prompt templates.
func (g *Grader) Absolute() *AbsoluteEvaluator {
	return g.absolute
}

// Relative returns the underlying relative evaluator.
func (g *Grader) Relative() *RelativeEvaluator {
	return g.relative
}

// EvaluateAbsolute scores img against one of the built-in design principles
func (g *Grader) EvaluateAbsolute(ctx context.Context, img image.Image, principle DesignPrinciple, opts ...EvaluateOption) ([]EvaluationResult, error) {
	start := time.Now()
	g.metrics.RecordConcurrentEvaluations(1)
	defer g.metrics.RecordConcurrentEvaluations(-1)

	results, err := g.absolute.EvaluatePrinciple(ctx, img, principle, opts...)

	g.metrics.RecordEvaluationDuration("absolute", g.config.Model, time.Since(start).Seconds())
	g.metrics.RecordSamplesReturned("absolute", len(results))
	if err != nil {
		g.metrics.RecordEvaluation("absolute", "error", g.config.Model)
		g.metrics.RecordError(classifyError(err))
		return results, err
	}

	g.metrics.RecordEvaluation("absolute", "success", g.config.Model)
	for _, result := range results {
		g.metrics.RecordScore(result.Score)
	}

	return results, nil
}

// EvaluateRelative compares imgA and imgB against one of the built-in
// design principles
func (g *Grader) EvaluateRelative(ctx context.Context, imgA, imgB image.Image, principle DesignPrinciple, opts ...EvaluateOption) ([]RelativeEvaluationResult, error) {
	start := time.Now()
	g.metrics.RecordConcurrentEvaluations(1)
	defer g.metrics.RecordConcurrentEvaluations(-1)

	results, err := g.relative.EvaluatePrinciple(ctx, imgA, imgB, principle, opts...)

	g.metrics.RecordEvaluationDuration("relative", g.config.Model, time.Since(start).Seconds())
	g.metrics.RecordSamplesReturned("relative", len(results))
	if err != nil {
		g.metrics.RecordEvaluation("relative", "error", g.config.Model)
		g.metrics.RecordError(classifyError(err))
		return results, err
	}

	g.metrics.RecordEvaluation("relative", "success", g.config.Model)
	for _, result := range results {
		g.metrics.RecordPreference(result.Preference)
	}

	return results, nil
}

// GetHealth returns the current health status of the grader
func (g *Grader) GetHealth(ctx context.Context) HealthStatus {
	health := HealthStatus{
		Healthy: true,
		Status:  "operational",
		Details: map[string]interface{}{
			"model":                   g.config.Model,
			"max_concurrent":          g.config.MaxConcurrent,
			"circuit_breaker_enabled": g.config.EnableCircuitBreaker,
			"retry_enabled":           g.config.EnableRetry,
			"metrics_enabled":         g.config.EnableMetrics,
		},
	}

	if g.breaker != nil {
		breakerHealth := g.breaker.GetHealth()
		health.Details["circuit_breaker"] = breakerHealth.Details
		if !breakerHealth.Healthy {
			health.Healthy = false
			health.Status = "circuit open"
		} else if breakerHealth.Status == "half-open" {
			health.Status = "degraded"
		}
	}

	return health
}

func retryAttempts(config *RetryConfig) int {
	if config == nil {
		return 3
	}
	return config.MaxAttempts
}

func retryStrategy(config *RetryConfig) RetryStrategy {
	if config == nil {
		return RetryStrategyExponential
	}
	return config.Strategy
}

// stateToInt converts circuit breaker state to int for metrics
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// classifyError returns error type for metrics
func classifyError(err error) string {
	if err == nil {
		return "none"
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return "schema_violation"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return "rate_limit"
		case apiErr.HTTPStatusCode >= 500:
			return "server_error"
		case apiErr.HTTPStatusCode >= 400:
			return "client_error"
		default:
			return "api_error"
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}

	if errors.Is(err, gobreaker.ErrOpenState) {
		return "circuit_open"
	}

	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit_half_open"
	}

	return "unknown"
}
