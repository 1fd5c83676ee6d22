package receipt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/snapbudget/internal/extraction"
	"github.com/zombor/snapbudget/internal/scanning"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Upload is a receipt file received from a client
type Upload struct {
	Filename    string
	Data        []byte
	ContentType string
	// BaseURL is the scheme and host the client reached us on, used for image URLs
	BaseURL string
}

// Service handles receipt operations
type Service struct {
	store       Store
	scanner     scanning.Scanner
	extractor   *extraction.Extractor
	storage     Storage
	resolver    ImageResolver
	username    string
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(store Store, scanner scanning.Scanner, extractor *extraction.Extractor, storage Storage, resolver ImageResolver, username string) *Service {
	return NewServiceWithDeps(store, scanner, extractor, storage, resolver, username, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, scanner scanning.Scanner, extractor *extraction.Extractor, storage Storage, resolver ImageResolver, username string, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		store:       store,
		scanner:     scanner,
		extractor:   extractor,
		storage:     storage,
		resolver:    resolver,
		username:    username,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
	safeExtension       = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,8}$`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	if !safeExtension.MatchString(ext) {
		ext = ""
	}

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_ ")

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + strings.ToLower(ext)
}

// ProcessReceipt stores an upload, OCRs it, extracts items and persists the result
func (s *Service) ProcessReceipt(ctx context.Context, upload Upload) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	// Sanitize filename to clean up phone-generated long filenames
	storedName := fmt.Sprintf("%s_%s", id, sanitizeFilename(upload.Filename))

	ref, imageURL, err := s.resolver.Resolve(storedName, upload.Data, upload.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.scanner.ScanText(ctx, upload.Data, upload.ContentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", upload.Filename,
			"content_type", upload.ContentType,
			"file_size", len(upload.Data),
			"error", err,
		)
		// Clean up the saved file since scanning failed
		if delErr := s.storage.Delete(ref); delErr != nil {
			slog.Warn("Failed to delete file", "filename", ref, "error", delErr)
		}
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}
	slog.Debug("OCR text extracted", "id", id, "text", text)

	result := s.extractor.Extract(text)

	receipt := &Receipt{
		ID:                id,
		Username:          s.username,
		Timestamp:         now,
		Items:             result.Items,
		Total:             result.Total,
		CategoryBreakdown: result.CategoryBreakdown,
		SavingsTip:        result.SavingsTip,
		ImageURL:          imageURL,
		Filename:          ref,
		ContentType:       upload.ContentType,
	}

	if err := s.store.Append(receipt); err != nil {
		// The analysis is still useful to the caller
		slog.Error("Failed to persist receipt", "id", id, "error", err)
	}

	slog.Info("Processed receipt",
		"id", id,
		"items", len(receipt.Items),
		"total", receipt.Total.StringFixed(2),
	)
	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.store.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, newest first
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.store.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].Timestamp.After(receipts[j].Timestamp)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.store.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if receipt.Filename != "" {
		if err := s.storage.Delete(receipt.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
		}
	}

	if err := s.store.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from store: %w", err)
	}
	return nil
}

// GetUpload retrieves a stored upload by its file name
func (s *Service) GetUpload(filename string) ([]byte, error) {
	data, err := s.storage.Get(filename)
	if err != nil {
		return nil, fmt.Errorf("getting upload: %w", err)
	}
	return data, nil
}

// Dashboard summarizes spending across all stored receipts
func (s *Service) Dashboard() (*Dashboard, error) {
	receipts, err := s.store.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return Summarize(receipts), nil
}

// ExportXLSX writes every stored receipt to w as an XLSX workbook
func (s *Service) ExportXLSX(w io.Writer) error {
	receipts, err := s.ListReceipts()
	if err != nil {
		return err
	}
	return WriteXLSX(w, receipts)
}
