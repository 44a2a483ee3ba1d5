package evaluator_test

import (
	"image"
	"image/color"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JohnPlummer/design-grader/evaluator"
)

var _ = Describe("Validation", func() {
	var opts evaluator.ValidationOptions

	BeforeEach(func() {
		opts = evaluator.DefaultValidationOptions()
	})

	Describe("ValidateImage", func() {
		It("should fail a nil image", func() {
			result := evaluator.ValidateImage(nil, opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues).To(ContainElement("image is nil"))
		})

		It("should fail an image with empty bounds", func() {
			empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
			result := evaluator.ValidateImage(empty, opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues).To(ContainElement("image has empty bounds"))
		})

		It("should pass a small valid image", func() {
			result := evaluator.ValidateImage(solidImage(64, 64, color.White), opts)
			Expect(result.Valid).To(BeTrue())
			Expect(result.Issues).To(BeEmpty())
		})

		It("should fail an oversized image", func() {
			opts.MaxImagePixels = 16
			result := evaluator.ValidateImage(solidImage(5, 5, color.White), opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues[0]).To(ContainSubstring("image too large"))
		})
	})

	Describe("ValidatePrincipleText", func() {
		It("should fail empty text", func() {
			result := evaluator.ValidatePrincipleText("", opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues).To(ContainElement("principle text is empty"))
		})

		It("should fail whitespace-only text", func() {
			result := evaluator.ValidatePrincipleText("   \t\n  ", opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues).To(ContainElement("principle text contains only whitespace"))
		})

		It("should fail text above the maximum length", func() {
			opts.MaxPrincipleLength = 10
			result := evaluator.ValidatePrincipleText(strings.Repeat("a", 11), opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues[0]).To(ContainSubstring("principle text too long"))
		})

		It("should pass every built-in principle text", func() {
			for _, principle := range evaluator.Principles() {
				text, err := evaluator.PrincipleText(principle)
				Expect(err).ToNot(HaveOccurred())

				result := evaluator.ValidatePrincipleText(text, opts)
				Expect(result.Valid).To(BeTrue(), "principle %q text should validate", principle)
			}
		})
	})
})
