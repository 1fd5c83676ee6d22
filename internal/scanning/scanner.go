package scanning

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

var (
	// ErrImageDecode means the input bytes are not a decodable image
	ErrImageDecode = errors.New("image decode failed")
	// ErrEngineUnavailable means the OCR engine is missing or misconfigured
	ErrEngineUnavailable = errors.New("ocr engine unavailable")
	// ErrRecognitionFailed means the OCR engine ran but failed on this image
	ErrRecognitionFailed = errors.New("text recognition failed")
)

// PageSegMode tells the engine how to interpret the page layout.
// Values follow tesseract's --psm numbering.
type PageSegMode int

// SingleBlock treats the image as a single uniform block of text
const SingleBlock PageSegMode = 6

// DefaultOCRTimeout bounds a single recognition call
const DefaultOCRTimeout = 60 * time.Second

// Engine is an OCR backend that turns an image into raw text
type Engine interface {
	// RecognizeText runs OCR over img and returns the raw text
	RecognizeText(ctx context.Context, img image.Image, mode PageSegMode) (string, error)
	// Check verifies the engine is usable, returning an ErrEngineUnavailable error if not
	Check(ctx context.Context) error
	// Close releases engine resources
	Close() error
}

// Scanner defines the interface for turning an uploaded receipt into OCR text
type Scanner interface {
	// ScanText decodes, preprocesses and OCRs a receipt image or PDF
	ScanText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// OCRScanner implements Scanner on top of an Engine
type OCRScanner struct {
	engine       Engine
	preprocessor Preprocessor
	timeout      time.Duration
}

// NewOCRScanner creates a new OCRScanner. A zero timeout uses DefaultOCRTimeout.
func NewOCRScanner(engine Engine, preprocessor Preprocessor, timeout time.Duration) *OCRScanner {
	if timeout <= 0 {
		timeout = DefaultOCRTimeout
	}
	return &OCRScanner{
		engine:       engine,
		preprocessor: preprocessor,
		timeout:      timeout,
	}
}

// ScanText decodes the upload, preprocesses it and runs OCR once under the scanner timeout
func (s *OCRScanner) ScanText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	img, err := DecodeImage(imageData, contentType)
	if err != nil {
		return "", err
	}

	prepared := s.preprocessor.Apply(img)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.engine.RecognizeText(ctx, prepared, SingleBlock)
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return text, nil
}

// Close closes the underlying engine
func (s *OCRScanner) Close() error {
	return s.engine.Close()
}
