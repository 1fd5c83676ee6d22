//go:build !gosseract

package scanning

import (
	"context"
	"fmt"
	"image"
	"log/slog"
)

// Gosseract is unavailable in builds without the gosseract tag
type Gosseract struct{}

// NewGosseract always fails; rebuild with -tags gosseract to link libtesseract
func NewGosseract(lang string, logger *slog.Logger) (*Gosseract, error) {
	return nil, fmt.Errorf("%w: built without gosseract support (rebuild with -tags gosseract)", ErrEngineUnavailable)
}

func (g *Gosseract) Check(ctx context.Context) error {
	return ErrEngineUnavailable
}

func (g *Gosseract) RecognizeText(ctx context.Context, img image.Image, mode PageSegMode) (string, error) {
	return "", ErrEngineUnavailable
}

func (g *Gosseract) Close() error {
	return nil
}
