package evaluator_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/JohnPlummer/design-grader/evaluator"
)

var _ = Describe("Retry", func() {
	var (
		wrapper *evaluator.RetryWrapper
		mockAPI *mockRetryAPIClient
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockAPI = &mockRetryAPIClient{}

		config := evaluator.RetryConfig{
			MaxAttempts:  3,
			Strategy:     evaluator.RetryStrategyExponential,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     100 * time.Millisecond,
		}

		wrapper = evaluator.NewRetryWrapper(mockAPI, &config)
	})

	Describe("Successful Requests", func() {
		It("should not retry on successful requests", func() {
			mockAPI.response = chatResponse("success")

			resp, err := wrapper.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Choices[0].Message.Content).To(Equal("success"))
			Expect(mockAPI.calls).To(Equal(1))
		})
	})

	Describe("Retryable Errors", func() {
		It("should retry on rate limit errors and recover", func() {
			mockAPI.errors = []error{
				&openai.APIError{
					Code:           "rate_limit_exceeded",
					Message:        "Rate limit exceeded",
					HTTPStatusCode: 429,
				},
				&openai.APIError{
					Code:           "rate_limit_exceeded",
					Message:        "Rate limit exceeded",
					HTTPStatusCode: 429,
				},
				nil, // Success on third attempt
			}
			mockAPI.response = chatResponse("success after retry")

			resp, err := wrapper.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Choices[0].Message.Content).To(Equal("success after retry"))
			Expect(mockAPI.calls).To(Equal(3))
		})

		It("should retry on server errors", func() {
			mockAPI.errors = []error{
				&openai.APIError{HTTPStatusCode: 503, Message: "service unavailable"},
				nil,
			}
			mockAPI.response = chatResponse("recovered")

			_, err := wrapper.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})
			Expect(err).ToNot(HaveOccurred())
			Expect(mockAPI.calls).To(Equal(2))
		})

		It("should give up after max attempts", func() {
			serverErr := &openai.APIError{HTTPStatusCode: 500, Message: "internal server error"}
			mockAPI.errors = []error{serverErr, serverErr, serverErr, serverErr}

			_, err := wrapper.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})
			Expect(err).To(HaveOccurred())
			Expect(mockAPI.calls).To(Equal(3))
		})
	})

	Describe("Non-Retryable Errors", func() {
		It("should not retry on authentication errors", func() {
			mockAPI.errors = []error{
				&openai.APIError{HTTPStatusCode: 401, Message: "invalid api key"},
			}

			_, err := wrapper.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})
			Expect(err).To(HaveOccurred())
			Expect(mockAPI.calls).To(Equal(1))
		})

		It("should not retry on cancelled context", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			mockAPI.errors = []error{context.Canceled}

			_, err := wrapper.CreateChatCompletion(cancelled, openai.ChatCompletionRequest{})
			Expect(err).To(HaveOccurred())
			Expect(mockAPI.calls).To(Equal(1))
		})
	})

	Describe("IsRetryableError", func() {
		It("should classify rate limits as retryable", func() {
			err := &openai.APIError{HTTPStatusCode: 429}
			Expect(evaluator.IsRetryableError(err)).To(BeTrue())
		})

		It("should classify server errors as retryable", func() {
			for _, code := range []int{500, 502, 503, 504} {
				err := &openai.APIError{HTTPStatusCode: code}
				Expect(evaluator.IsRetryableError(err)).To(BeTrue(), "status %d should be retryable", code)
			}
		})

		It("should classify client errors as non-retryable", func() {
			for _, code := range []int{400, 401, 403, 404} {
				err := &openai.APIError{HTTPStatusCode: code}
				Expect(evaluator.IsRetryableError(err)).To(BeFalse(), "status %d should not be retryable", code)
			}
		})

		It("should classify timeouts as retryable", func() {
			Expect(evaluator.IsRetryableError(context.DeadlineExceeded)).To(BeTrue())
		})

		It("should classify cancellation as non-retryable", func() {
			Expect(evaluator.IsRetryableError(context.Canceled)).To(BeFalse())
		})

		It("should never retry schema violations", func() {
			err := &evaluator.SchemaError{Field: "score", Value: 0, Reason: "out of range"}
			Expect(evaluator.IsRetryableError(err)).To(BeFalse())
		})

		It("should not retry nil errors", func() {
			Expect(evaluator.IsRetryableError(nil)).To(BeFalse())
		})
	})

	Describe("CalculateRetryDelay", func() {
		It("should grow exponentially", func() {
			config := &evaluator.RetryConfig{
				MaxAttempts:  5,
				Strategy:     evaluator.RetryStrategyExponential,
				InitialDelay: 100 * time.Millisecond,
				MaxDelay:     10 * time.Second,
			}

			first := evaluator.CalculateRetryDelay(1, config)
			third := evaluator.CalculateRetryDelay(3, config)

			// Jitter is ±10%, so compare against generous bounds
			Expect(first).To(BeNumerically("~", 100*time.Millisecond, 20*time.Millisecond))
			Expect(third).To(BeNumerically("~", 400*time.Millisecond, 60*time.Millisecond))
		})

		It("should cap at MaxDelay", func() {
			config := &evaluator.RetryConfig{
				MaxAttempts:  10,
				Strategy:     evaluator.RetryStrategyExponential,
				InitialDelay: time.Second,
				MaxDelay:     2 * time.Second,
			}

			delay := evaluator.CalculateRetryDelay(8, config)
			Expect(delay).To(BeNumerically("<=", 2200*time.Millisecond))
		})

		It("should return zero for nil config", func() {
			Expect(evaluator.CalculateRetryDelay(3, nil)).To(BeZero())
		})
	})
})

// mockRetryAPIClient simulates sequential error conditions followed by a
// successful response.
type mockRetryAPIClient struct {
	calls    int
	errors   []error
	response openai.ChatCompletionResponse
}

func (m *mockRetryAPIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls++
	if m.calls <= len(m.errors) {
		if err := m.errors[m.calls-1]; err != nil {
			return openai.ChatCompletionResponse{}, err
		}
	}
	if len(m.errors) == 0 && m.response.Choices == nil {
		return openai.ChatCompletionResponse{}, errors.New("no response configured")
	}
	return m.response, nil
}
