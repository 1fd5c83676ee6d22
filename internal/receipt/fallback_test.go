package receipt

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FallbackStore", func() {
	var (
		primary  *mockStore
		fallback *mockStore
		store    *FallbackStore
		ts       time.Time
	)

	BeforeEach(func() {
		primary = newMockStore()
		fallback = newMockStore()
		store = NewFallbackStore(primary, fallback)
		ts = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	})

	Describe("Append", func() {
		var err error

		JustBeforeEach(func() {
			err = store.Append(sampleReceipt("a", ts))
		})

		When("the primary accepts the receipt", func() {
			It("writes only to the primary", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(primary.appended).To(HaveLen(1))
				Expect(fallback.appended).To(BeEmpty())
			})
		})

		When("the primary fails", func() {
			BeforeEach(func() {
				primary.appendErr = errBoom
			})

			It("writes to the fallback", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(fallback.appended).To(HaveLen(1))
			})
		})

		When("both fail", func() {
			BeforeEach(func() {
				primary.appendErr = errBoom
				fallback.appendErr = ErrInvalidPath
			})

			It("returns both errors", func() {
				Expect(err).To(MatchError(errBoom))
				Expect(err).To(MatchError(ErrInvalidPath))
			})
		})
	})

	Describe("reads", func() {
		BeforeEach(func() {
			primary.receipts["a"] = sampleReceipt("a", ts)
			primary.receipts["shared"] = sampleReceipt("shared", ts)
			fallback.receipts["b"] = sampleReceipt("b", ts)
			fallback.receipts["shared"] = sampleReceipt("shared", ts)
		})

		It("merges both stores without duplicates", func() {
			receipts, err := store.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			ids := []string{}
			for _, r := range receipts {
				ids = append(ids, r.ID)
			}
			Expect(ids).To(ConsistOf("a", "b", "shared"))
		})

		It("finds receipts held only by the fallback", func() {
			r, err := store.GetReceipt("b")
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).To(Equal("b"))
		})

		It("returns ErrNotFound when neither store has it", func() {
			_, err := store.GetReceipt("zzz")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("fails the listing when a store fails", func() {
			fallback.listErr = errBoom
			_, err := store.ListReceipts()
			Expect(err).To(MatchError(errBoom))
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			primary.receipts["a"] = sampleReceipt("a", ts)
			fallback.receipts["b"] = sampleReceipt("b", ts)
		})

		It("deletes from the store holding the receipt", func() {
			Expect(store.DeleteReceipt("b")).To(Succeed())
			Expect(fallback.receipts).NotTo(HaveKey("b"))
			Expect(store.DeleteReceipt("a")).To(Succeed())
			Expect(primary.receipts).NotTo(HaveKey("a"))
		})

		It("returns ErrNotFound when neither store has it", func() {
			Expect(store.DeleteReceipt("zzz")).To(MatchError(ErrNotFound))
		})

		It("surfaces real failures", func() {
			fallback.deleteErr = errBoom
			Expect(store.DeleteReceipt("a")).To(MatchError(errBoom))
		})
	})
})
