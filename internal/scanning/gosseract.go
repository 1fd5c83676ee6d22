//go:build gosseract

package scanning

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract implements Engine with an in-process libtesseract client.
// Build with -tags gosseract; requires libtesseract and leptonica headers.
type Gosseract struct {
	mu     sync.Mutex // the client is not safe for concurrent use
	client *gosseract.Client
	lang   string
	logger *slog.Logger
}

// NewGosseract creates a new Gosseract engine
func NewGosseract(lang string, logger *slog.Logger) (*Gosseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if lang == "" {
		lang = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: setting language: %w", ErrEngineUnavailable, err)
	}
	return &Gosseract{client: client, lang: lang, logger: logger}, nil
}

// Check reports the linked tesseract version
func (g *Gosseract) Check(ctx context.Context) error {
	version := gosseract.Version()
	if version == "" {
		return fmt.Errorf("%w: libtesseract reported no version", ErrEngineUnavailable)
	}
	g.logger.Info("libtesseract linked", "version", version, "lang", g.lang)
	return nil
}

// RecognizeText runs OCR in-process. A cancelled context returns early but the
// running recognition finishes before the next call starts.
func (g *Gosseract) RecognizeText(ctx context.Context, img image.Image, mode PageSegMode) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if err := g.client.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
			done <- result{err: err}
			return
		}
		if err := g.client.SetImageFromBytes(data); err != nil {
			done <- result{err: err}
			return
		}
		text, err := g.client.Text()
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrRecognitionFailed, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: gosseract: %w", ErrRecognitionFailed, r.err)
		}
		return r.text, nil
	}
}

// Close closes the libtesseract client
func (g *Gosseract) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client.Close()
}
