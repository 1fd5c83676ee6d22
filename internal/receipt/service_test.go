package receipt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/snapbudget/internal/extraction"
	"github.com/zombor/snapbudget/internal/scanning"
)

var _ = Describe("sanitizeFilename", func() {
	DescribeTable("cleans names",
		func(in, want string) {
			Expect(sanitizeFilename(in)).To(Equal(want))
		},
		Entry("keeps a simple name", "receipt.jpg", "receipt.jpg"),
		Entry("replaces spaces", "my  receipt.JPG", "my_receipt.jpg"),
		Entry("strips special characters", "IMG@#2024!.png", "IMG2024.png"),
		Entry("drops directories", "../../etc/passwd", "passwd"),
		Entry("drops windows directories", `C:\Users\me\scan.pdf`, "scan.pdf"),
		Entry("falls back for an empty base", "@@@.heic", "receipt.heic"),
		Entry("drops a bogus extension", "photo.j$p!g", "photo"),
		Entry("truncates long names", strings.Repeat("a", 80)+".jpg", strings.Repeat("a", 50)+".jpg"),
	)
})

var _ = Describe("Service", func() {
	var (
		store     *mockStore
		storage   *mockStorage
		scanner   *mockScanner
		extractor *extraction.Extractor
		now       time.Time
		service   *Service
	)

	BeforeEach(func() {
		store = newMockStore()
		storage = newMockStorage()
		scanner = newMockScanner()
		extractor = extraction.NewExtractor(extraction.DefaultConfig(), nil)
		now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	})

	JustBeforeEach(func() {
		service = NewServiceWithDeps(
			store, scanner, extractor, storage,
			NewLocalImageResolver(storage, ""),
			"madhu",
			&fixedIDGenerator{ids: []string{"rcpt-1", "rcpt-2"}},
			&fixedTimeSource{now: now},
		)
	})

	Describe("ProcessReceipt", func() {
		var (
			upload  Upload
			receipt *Receipt
			err     error
		)

		BeforeEach(func() {
			upload = Upload{
				Filename:    "IMG 0042.jpg",
				Data:        []byte("jpeg bytes"),
				ContentType: "image/jpeg",
				BaseURL:     "http://127.0.0.1:5000",
			}
		})

		JustBeforeEach(func() {
			receipt, err = service.ProcessReceipt(context.Background(), upload)
		})

		When("processing succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("stores the upload under an ID-prefixed name", func() {
				Expect(storage.files).To(HaveKeyWithValue("rcpt-1_IMG_0042.jpg", []byte("jpeg bytes")))
				Expect(receipt.Filename).To(Equal("rcpt-1_IMG_0042.jpg"))
			})

			It("builds the image URL from the request base", func() {
				Expect(receipt.ImageURL).To(Equal("http://127.0.0.1:5000/uploads/rcpt-1_IMG_0042.jpg"))
			})

			It("passes the upload to the scanner", func() {
				Expect(scanner.gotData).To(Equal([]byte("jpeg bytes")))
				Expect(scanner.gotContentType).To(Equal("image/jpeg"))
			})

			It("stamps identity and time", func() {
				Expect(receipt.ID).To(Equal("rcpt-1"))
				Expect(receipt.Username).To(Equal("madhu"))
				Expect(receipt.Timestamp).To(Equal(now))
			})

			It("extracts items, total, breakdown and tip", func() {
				Expect(receipt.Items).To(HaveLen(2))
				Expect(receipt.Items[0].Name).To(Equal("Milk"))
				Expect(receipt.Items[1].Name).To(Equal("Lays Chips"))
				Expect(receipt.Total.Equal(decimal.RequireFromString("75.00"))).To(BeTrue())
				Expect(receipt.CategoryBreakdown.Get(extraction.Essentials).Equal(decimal.NewFromInt(45))).To(BeTrue())
				Expect(receipt.CategoryBreakdown.Get(extraction.Snacks).Equal(decimal.NewFromInt(30))).To(BeTrue())
				Expect(receipt.SavingsTip).To(Equal(extraction.TipGoodBudgeting))
			})

			It("appends the receipt to the store", func() {
				Expect(store.appended).To(ConsistOf(receipt))
			})
		})

		When("the OCR text has no items", func() {
			BeforeEach(func() {
				scanner.text = "THANK YOU\nVISIT AGAIN\n"
			})

			It("still records an empty receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.Items).To(BeEmpty())
				Expect(receipt.Total.IsZero()).To(BeTrue())
				Expect(receipt.SavingsTip).To(Equal(extraction.TipNoData))
				Expect(store.appended).To(HaveLen(1))
			})
		})

		When("saving the file fails", func() {
			BeforeEach(func() {
				storage.saveErr = errBoom
			})

			It("returns an error without scanning", func() {
				Expect(err).To(MatchError(ContainSubstring("saving file")))
				Expect(scanner.scanCalls).To(Equal(0))
				Expect(store.appended).To(BeEmpty())
			})
		})

		When("scanning fails", func() {
			BeforeEach(func() {
				scanner.scanErr = fmt.Errorf("recognizing text: %w", scanning.ErrRecognitionFailed)
			})

			It("returns the wrapped scan error", func() {
				Expect(err).To(MatchError(scanning.ErrRecognitionFailed))
				Expect(receipt).To(BeNil())
			})

			It("removes the stored upload", func() {
				Expect(storage.files).To(BeEmpty())
			})

			It("does not persist anything", func() {
				Expect(store.appended).To(BeEmpty())
			})
		})

		When("the store rejects the receipt", func() {
			BeforeEach(func() {
				store.appendErr = errBoom
			})

			It("still returns the extracted receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.Total.Equal(decimal.NewFromInt(75))).To(BeTrue())
			})

			It("keeps the stored upload", func() {
				Expect(storage.files).To(HaveKey("rcpt-1_IMG_0042.jpg"))
			})
		})
	})

	Describe("ListReceipts", func() {
		BeforeEach(func() {
			store.receipts["old"] = &Receipt{ID: "old", Timestamp: now.Add(-48 * time.Hour)}
			store.receipts["new"] = &Receipt{ID: "new", Timestamp: now}
			store.receipts["mid"] = &Receipt{ID: "mid", Timestamp: now.Add(-time.Hour)}
		})

		It("returns receipts newest first", func() {
			receipts, err := service.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(3))
			Expect(receipts[0].ID).To(Equal("new"))
			Expect(receipts[1].ID).To(Equal("mid"))
			Expect(receipts[2].ID).To(Equal("old"))
		})

		When("the store fails", func() {
			BeforeEach(func() {
				store.listErr = errBoom
			})

			It("returns the error", func() {
				_, err := service.ListReceipts()
				Expect(err).To(MatchError(errBoom))
			})
		})
	})

	Describe("GetReceipt", func() {
		BeforeEach(func() {
			store.receipts["r1"] = &Receipt{ID: "r1"}
		})

		It("returns the receipt", func() {
			r, err := service.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).To(Equal("r1"))
		})

		It("returns ErrNotFound for unknown IDs", func() {
			_, err := service.GetReceipt("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("DeleteReceipt", func() {
		var err error

		BeforeEach(func() {
			store.receipts["r1"] = &Receipt{ID: "r1", Filename: "r1_scan.png"}
			storage.files["r1_scan.png"] = []byte("png")
		})

		JustBeforeEach(func() {
			err = service.DeleteReceipt("r1")
		})

		It("removes the record and the file", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(store.receipts).NotTo(HaveKey("r1"))
			Expect(storage.files).NotTo(HaveKey("r1_scan.png"))
		})

		When("the file is already gone", func() {
			BeforeEach(func() {
				delete(storage.files, "r1_scan.png")
			})

			It("still removes the record", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(store.receipts).NotTo(HaveKey("r1"))
			})
		})

		When("the receipt does not exist", func() {
			BeforeEach(func() {
				delete(store.receipts, "r1")
			})

			It("returns ErrNotFound", func() {
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		When("the store fails to delete", func() {
			BeforeEach(func() {
				store.deleteErr = errBoom
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(errBoom))
			})
		})
	})

	Describe("GetUpload", func() {
		BeforeEach(func() {
			storage.files["r1_scan.png"] = []byte("png")
		})

		It("returns the stored bytes", func() {
			data, err := service.GetUpload("r1_scan.png")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png")))
		})

		It("returns ErrNotFound for unknown files", func() {
			_, err := service.GetUpload("nope.png")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("Dashboard", func() {
		BeforeEach(func() {
			store.receipts["r1"] = &Receipt{
				ID:                "r1",
				Timestamp:         now,
				Items:             []extraction.Item{{Name: "Milk", Price: decimal.NewFromInt(45)}},
				CategoryBreakdown: extraction.Breakdown{extraction.Essentials: decimal.NewFromInt(45)},
			}
		})

		It("summarizes stored receipts", func() {
			d, err := service.Dashboard()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.ReceiptCount).To(Equal(1))
			Expect(d.TotalSpent.Equal(decimal.NewFromInt(45))).To(BeTrue())
		})
	})

	Describe("ExportXLSX", func() {
		BeforeEach(func() {
			store.receipts["r1"] = &Receipt{
				ID:        "r1",
				Timestamp: now,
				Items:     []extraction.Item{{Name: "Milk", Price: decimal.NewFromInt(45)}},
				Total:     decimal.NewFromInt(45),
			}
		})

		It("writes a readable workbook", func() {
			var buf bytes.Buffer
			Expect(service.ExportXLSX(&buf)).To(Succeed())

			f, err := excelize.OpenReader(&buf)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			Expect(f.GetSheetList()).To(Equal([]string{itemsSheet, summarySheet}))
		})
	})
})
