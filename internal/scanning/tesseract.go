package scanning

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// TesseractConfig configures the tesseract CLI engine
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
}

// Tesseract implements Engine by piping a PNG through the tesseract CLI
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

// NewTesseract creates a new Tesseract engine
func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	return NewTesseractWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewTesseractWithRunner creates a Tesseract engine with a custom command runner for testing
func NewTesseractWithRunner(cfg TesseractConfig, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

// Check runs `tesseract --version` to confirm the binary is installed
func (t *Tesseract) Check(ctx context.Context) error {
	out, errb, err := t.runner.Run(ctx, nil, t.cfg.Binary, "--version")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, t.cfg.Binary, err)
	}
	// tesseract has printed its version to either stream depending on release
	version := strings.TrimSpace(string(out))
	if version == "" {
		version = strings.TrimSpace(string(errb))
	}
	if first, _, ok := strings.Cut(version, "\n"); ok {
		version = first
	}
	t.logger.Info("tesseract found", "binary", t.cfg.Binary, "version", version)
	return nil
}

// RecognizeText runs `tesseract stdin stdout` over the PNG-encoded image
func (t *Tesseract) RecognizeText(ctx context.Context, img image.Image, mode PageSegMode) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	args := []string{"stdin", "stdout", "-l", t.cfg.Lang, "--psm", strconv.Itoa(int(mode))}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, errb, err := t.runner.Run(ctx, data, t.cfg.Binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, t.cfg.Binary, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrRecognitionFailed, ctxErr)
		}
		return "", fmt.Errorf("%w: tesseract: %w: %s", ErrRecognitionFailed, err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return string(out), nil
}

// Close is a no-op for the CLI engine
func (t *Tesseract) Close() error {
	return nil
}
