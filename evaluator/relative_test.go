package evaluator_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/JohnPlummer/design-grader/evaluator"
)

var _ = Describe("RelativeEvaluator", func() {
	var (
		eval *mockBackedRelativeEvaluator
		ctx  context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		eval = newMockBackedRelativeEvaluator()
	})

	Describe("Evaluate", func() {
		It("should return one result per requested sample", func() {
			eval.mock.response = chatResponse(`{"better_design": "medium", "explanation": "a aligns better"}`)

			results, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleAlignment, evaluator.WithNumReturn(2))
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(2))
			for _, result := range results {
				Expect(result.Preference).To(Equal(evaluator.PreferenceMedium))
			}
			Expect(eval.mock.callCount()).To(Equal(2))
		})

		It("should issue no requests when zero samples are requested", func() {
			results, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleOverlap, evaluator.WithNumReturn(0))
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(BeEmpty())
			Expect(eval.mock.callCount()).To(Equal(0))
		})

		It("should reject a nil first image", func() {
			_, err := eval.eval.EvaluatePrinciple(ctx, nil, eval.imgB, evaluator.PrincipleAlignment)
			Expect(errors.Is(err, evaluator.ErrNilImage)).To(BeTrue())
		})

		It("should reject a nil second image", func() {
			_, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, nil, evaluator.PrincipleAlignment)
			Expect(errors.Is(err, evaluator.ErrNilImage)).To(BeTrue())
		})
	})

	Describe("Request composition", func() {
		It("should embed both images as distinct payloads", func() {
			eval.mock.response = chatResponse(`{"better_design": "small", "explanation": "slightly better overlap"}`)

			_, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleOverlap)
			Expect(err).ToNot(HaveOccurred())

			user := eval.mock.capturedRequests()[0].Messages[1]
			Expect(user.MultiContent).To(HaveLen(3))
			Expect(user.MultiContent[0].Type).To(Equal(openai.ChatMessagePartTypeText))
			Expect(user.MultiContent[1].Type).To(Equal(openai.ChatMessagePartTypeImageURL))
			Expect(user.MultiContent[2].Type).To(Equal(openai.ChatMessagePartTypeImageURL))

			urlA := user.MultiContent[1].ImageURL.URL
			urlB := user.MultiContent[2].ImageURL.URL
			Expect(urlA).To(HavePrefix("data:image/png;base64,"))
			Expect(urlB).To(HavePrefix("data:image/png;base64,"))
			Expect(urlA).ToNot(Equal(urlB))
		})

		It("should label the images in the instruction text", func() {
			eval.mock.response = chatResponse(`{"better_design": "both", "explanation": "equal quality"}`)

			_, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleWhitespace)
			Expect(err).ToNot(HaveOccurred())

			user := eval.mock.capturedRequests()[0].Messages[1]
			Expect(user.MultiContent[0].Text).To(ContainSubstring("(a)"))
			Expect(user.MultiContent[0].Text).To(ContainSubstring("(b)"))
		})

		It("should request the comparison schema", func() {
			eval.mock.response = chatResponse(`{"better_design": "none", "explanation": "no difference"}`)

			_, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleAlignment)
			Expect(err).ToNot(HaveOccurred())

			format := eval.mock.capturedRequests()[0].ResponseFormat
			Expect(format).ToNot(BeNil())
			Expect(format.JSONSchema.Name).To(Equal("design_comparison"))
		})
	})

	Describe("Response coercion", func() {
		It("should surface an undeclared preference as a schema violation", func() {
			eval.mock.response = chatResponse(`{"better_design": "a", "explanation": "a is better"}`)

			results, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleAlignment)
			Expect(err).To(HaveOccurred())
			Expect(results).To(BeEmpty())

			var schemaErr *evaluator.SchemaError
			Expect(errors.As(err, &schemaErr)).To(BeTrue())
			Expect(schemaErr.Field).To(Equal("better_design"))
		})

		It("should surface a missing preference as a schema violation", func() {
			eval.mock.response = chatResponse(`{"explanation": "no verdict"}`)

			_, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleAlignment)
			Expect(err).To(HaveOccurred())

			var schemaErr *evaluator.SchemaError
			Expect(errors.As(err, &schemaErr)).To(BeTrue())
		})

		It("should surface malformed JSON as a schema violation", func() {
			eval.mock.response = chatResponse("design (a) is clearly superior")

			_, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.PrincipleAlignment)
			Expect(err).To(HaveOccurred())

			var schemaErr *evaluator.SchemaError
			Expect(errors.As(err, &schemaErr)).To(BeTrue())
		})
	})

	Describe("EvaluatePrinciple", func() {
		It("should fail fast on an unknown principle", func() {
			_, err := eval.eval.EvaluatePrinciple(ctx, eval.imgA, eval.imgB, evaluator.DesignPrinciple("hierarchy"))
			Expect(errors.Is(err, evaluator.ErrUnknownPrinciple)).To(BeTrue())
			Expect(eval.mock.callCount()).To(Equal(0))
		})
	})
})

type mockBackedRelativeEvaluator struct {
	eval *evaluator.RelativeEvaluator
	mock *mockOpenAIClient
	imgA image.Image
	imgB image.Image
}

func newMockBackedRelativeEvaluator() *mockBackedRelativeEvaluator {
	mock := &mockOpenAIClient{}
	cfg := evaluator.Config{
		Model:         openai.GPT4oMini,
		MaxConcurrent: 2,
		Timeout:       5 * time.Second,
	}
	return &mockBackedRelativeEvaluator{
		eval: evaluator.NewRelativeEvaluator(mock, cfg),
		mock: mock,
		imgA: solidImage(4, 4, color.White),
		imgB: solidImage(4, 4, color.Black),
	}
}
