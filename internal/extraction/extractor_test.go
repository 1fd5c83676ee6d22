package extraction

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extractor", func() {
	var (
		extractor *Extractor
		rawText   string
		result    *Result
	)

	BeforeEach(func() {
		extractor = NewExtractor(DefaultConfig(), nil)
	})

	JustBeforeEach(func() {
		result = extractor.Extract(rawText)
	})

	When("the receipt has items and a matching total line", func() {
		BeforeEach(func() {
			rawText = "Milk 2% 45.00\nLays Chips 30\nTotal: 75.00"
		})

		It("extracts the items in order", func() {
			Expect(result.Items).To(HaveLen(2))
			Expect(result.Items[0].Name).To(Equal("Milk 2%"))
			Expect(result.Items[0].Price.StringFixed(2)).To(Equal("45.00"))
			Expect(result.Items[1].Name).To(Equal("Lays Chips"))
			Expect(result.Items[1].Price.StringFixed(2)).To(Equal("30.00"))
		})

		It("reconciles the total", func() {
			Expect(result.Total.StringFixed(2)).To(Equal("75.00"))
		})

		It("builds the category breakdown", func() {
			Expect(result.CategoryBreakdown).To(HaveLen(2))
			Expect(result.CategoryBreakdown.Get(Essentials).StringFixed(2)).To(Equal("45.00"))
			Expect(result.CategoryBreakdown.Get(Snacks).StringFixed(2)).To(Equal("30.00"))
		})

		It("gives the budgeting tip", func() {
			Expect(result.SavingsTip).To(Equal(TipGoodBudgeting))
		})
	})

	When("a tax total line follows the real total", func() {
		BeforeEach(func() {
			rawText = "Milk 45.00\nBread 30.00\nTotal: 75.00\nTax Total: 4.50"
		})

		It("keeps the real total", func() {
			Expect(result.Items).To(HaveLen(2))
			Expect(result.Total.StringFixed(2)).To(Equal("75.00"))
		})
	})

	When("the detected total is within tolerance", func() {
		BeforeEach(func() {
			rawText = "Rice 500\nMilk 680\nTotal 1200"
		})

		It("adopts the detected total", func() {
			Expect(result.Total.StringFixed(2)).To(Equal("1200.00"))
		})
	})

	When("the detected total is outside tolerance", func() {
		BeforeEach(func() {
			rawText = "Rice 500\nMilk 680\nTotal 5000"
		})

		It("keeps the summed total", func() {
			Expect(result.Total.StringFixed(2)).To(Equal("1180.00"))
		})
	})

	When("the detected total is exactly the tolerance away", func() {
		BeforeEach(func() {
			rawText = "Rice 500\nTotal 600"
		})

		It("keeps the summed total", func() {
			Expect(result.Total.StringFixed(2)).To(Equal("500.00"))
		})
	})

	When("a total line appears before any item", func() {
		BeforeEach(func() {
			rawText = "Store Header\nTotal 4200\nThank you"
		})

		It("adopts it outright", func() {
			Expect(result.Items).To(BeEmpty())
			Expect(result.Total.StringFixed(2)).To(Equal("4200.00"))
		})

		It("gives the missing essentials tip", func() {
			Expect(result.SavingsTip).To(Equal(TipMissingEssentials))
		})
	})

	When("items follow an adopted total", func() {
		BeforeEach(func() {
			rawText = "Rice 100\nTotal 120\nSugar 30"
		})

		It("keeps adding to the adopted total", func() {
			Expect(result.Total.StringFixed(2)).To(Equal("150.00"))
		})
	})

	When("the text contains only noise", func() {
		BeforeEach(func() {
			rawText = "GST No: 12345\nThank you"
		})

		It("has no items", func() {
			Expect(result.Items).NotTo(BeNil())
			Expect(result.Items).To(BeEmpty())
		})

		It("has a zero total", func() {
			Expect(result.Total.IsZero()).To(BeTrue())
		})

		It("has an empty breakdown", func() {
			Expect(result.CategoryBreakdown).To(BeEmpty())
		})

		It("gives the no data tip", func() {
			Expect(result.SavingsTip).To(Equal(TipNoData))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			rawText = ""
		})

		It("gives the no data tip", func() {
			Expect(result.Items).To(BeEmpty())
			Expect(result.SavingsTip).To(Equal(TipNoData))
		})
	})

	When("the text uses CRLF line endings", func() {
		BeforeEach(func() {
			rawText = "Milk 40\r\nBread 35\r\n"
		})

		It("parses every line", func() {
			Expect(result.Items).To(HaveLen(2))
			Expect(result.Items[1].Name).To(Equal("Bread"))
		})
	})

	When("every item price must stay in bounds", func() {
		BeforeEach(func() {
			rawText = "Milk 40\nRef 123456789\nBread 0.00\nEggs 72.50"
		})

		It("keeps only in-range items", func() {
			Expect(result.Items).To(HaveLen(2))
			for _, item := range result.Items {
				Expect(item.Price.GreaterThanOrEqual(DefaultMinPrice)).To(BeTrue())
				Expect(item.Price.LessThanOrEqual(DefaultMaxPrice)).To(BeTrue())
			}
		})
	})

	It("is idempotent", func() {
		text := "Milk 2% 45.00\nLays Chips 30\nUSB Charger 1,600\nTotal: 1,675.00"
		first := extractor.Extract(text)
		second := extractor.Extract(text)
		Expect(second.Items).To(Equal(first.Items))
		Expect(second.Total.Equal(first.Total)).To(BeTrue())
		Expect(second.CategoryBreakdown).To(Equal(first.CategoryBreakdown))
		Expect(second.SavingsTip).To(Equal(first.SavingsTip))
	})

	Describe("custom tolerance", func() {
		BeforeEach(func() {
			extractor = NewExtractor(Config{TotalTolerance: decimal.NewFromInt(5)}, nil)
			rawText = "Rice 500\nMilk 680\nTotal 1200"
		})

		It("uses the configured tolerance", func() {
			Expect(result.Total.StringFixed(2)).To(Equal("1180.00"))
		})
	})
})
