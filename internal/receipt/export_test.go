package receipt

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("WriteXLSX", func() {
	var (
		receipts []*Receipt
		f        *excelize.File
	)

	BeforeEach(func() {
		ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
		receipts = []*Receipt{sampleReceipt("r1", ts), sampleReceipt("r2", ts.Add(time.Hour))}
	})

	JustBeforeEach(func() {
		var buf bytes.Buffer
		Expect(WriteXLSX(&buf, receipts)).To(Succeed())

		var err error
		f, err = excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if f != nil {
			f.Close()
		}
	})

	It("writes the items and summary sheets", func() {
		Expect(f.GetSheetList()).To(Equal([]string{itemsSheet, summarySheet}))
	})

	It("writes one item row per parsed item", func() {
		rows, err := f.GetRows(itemsSheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(5))
		Expect(rows[0]).To(Equal([]string{"Date", "Receipt ID", "Category", "Item", "Price", "Image URL"}))
		Expect(rows[1][0]).To(Equal("2025-03-14 09:30:00"))
		Expect(rows[1][1]).To(Equal("r1"))
		Expect(rows[1][2]).To(Equal("Essentials"))
		Expect(rows[1][3]).To(Equal("Milk"))
		Expect(rows[1][4]).To(Equal("45"))
		Expect(rows[4][1]).To(Equal("r2"))
		Expect(rows[4][3]).To(Equal("Lays"))
	})

	It("writes one summary row per receipt", func() {
		rows, err := f.GetRows(summarySheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[1][1]).To(Equal("r1"))
		Expect(rows[1][2]).To(Equal("madhu"))
		Expect(rows[1][3]).To(Equal("2"))
		Expect(rows[1][4]).To(Equal("75"))
		Expect(rows[1][5]).To(Equal("Essentials"))
	})

	When("there are no receipts", func() {
		BeforeEach(func() {
			receipts = nil
		})

		It("writes only the headers", func() {
			rows, err := f.GetRows(itemsSheet)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})
	})
})
