package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/shopspring/decimal"

	"github.com/zombor/snapbudget/internal/extraction"
	"github.com/zombor/snapbudget/internal/receipt"
	"github.com/zombor/snapbudget/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

type config struct {
	port           int
	dbPath         string
	resultsPath    string
	storeType      string
	storagePath    string
	publicURL      string
	username       string
	ocrEngine      string
	tesseractBin   string
	tesseractLang  string
	tessdataDir    string
	geminiKey      string
	geminiModel    string
	ollamaURL      string
	ollamaModel    string
	ocrTimeout     time.Duration
	contrastFactor float64
	totalTolerance string
	authUser       string
	authPass       string
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("snapbudget")
	var (
		port           = fs.IntLong("port", 5000, "HTTP server port")
		dbPath         = fs.StringLong("db", "snapbudget.db", "BoltDB file path")
		resultsPath    = fs.StringLong("results-file", "results.json", "JSON-lines results file (fallback store, or primary with --store=jsonl)")
		storeType      = fs.StringLong("store", "bolt", "Receipt store: 'bolt' (with JSON-lines fallback) or 'jsonl'")
		storagePath    = fs.StringLong("storage", "./uploads", "Upload storage directory path")
		publicURL      = fs.StringLong("public-url", "", "Base URL for image links (defaults to the request host)")
		username       = fs.StringLong("username", "madhu", "Username recorded on every receipt")
		ocrEngine      = fs.StringLong("ocr-engine", "tesseract", "OCR engine: 'tesseract', 'gosseract', 'gemini' or 'ollama'")
		tesseractBin   = fs.StringLong("tesseract-bin", "tesseract", "tesseract binary name or path")
		tesseractLang  = fs.StringLong("tesseract-lang", "eng", "tesseract language(s), e.g. 'eng' or 'eng+hin'")
		tessdataDir    = fs.StringLong("tessdata-dir", "", "tesseract traineddata directory (defaults to the tesseract install)")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, qwen2-vl)")
		ocrTimeout     = fs.DurationLong("ocr-timeout", scanning.DefaultOCRTimeout, "Maximum time for a single OCR call")
		contrastFactor = fs.Float64Long("contrast-factor", scanning.DefaultContrastFactor, "Contrast multiplier applied before OCR")
		totalTolerance = fs.StringLong("total-tolerance", extraction.DefaultTotalTolerance.String(), "Max difference for a detected total to replace the item sum")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		logFormat      = fs.StringLong("log-format", "text", "Log format: 'text' or 'json'")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SNAPBUDGET"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(os.Stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	cfg := config{
		port:           *port,
		dbPath:         *dbPath,
		resultsPath:    *resultsPath,
		storeType:      *storeType,
		storagePath:    *storagePath,
		publicURL:      *publicURL,
		username:       *username,
		ocrEngine:      *ocrEngine,
		tesseractBin:   *tesseractBin,
		tesseractLang:  *tesseractLang,
		tessdataDir:    *tessdataDir,
		geminiKey:      *geminiKey,
		geminiModel:    *geminiModel,
		ollamaURL:      *ollamaURL,
		ollamaModel:    *ollamaModel,
		ocrTimeout:     *ocrTimeout,
		contrastFactor: *contrastFactor,
		totalTolerance: *totalTolerance,
		authUser:       *authUser,
		authPass:       *authPass,
	}
	if err := run(cfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	tolerance, err := decimal.NewFromString(cfg.totalTolerance)
	if err != nil || !tolerance.IsPositive() {
		return fmt.Errorf("invalid --total-tolerance %q: must be a positive number", cfg.totalTolerance)
	}

	// Initialize OCR engine and fail fast if it cannot run
	slog.Info("Initializing OCR engine...", "engine", cfg.ocrEngine)
	engine, err := newEngine(cfg)
	if err != nil {
		return fmt.Errorf("initializing OCR engine: %w", err)
	}
	checkCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = engine.Check(checkCtx)
	cancel()
	if err != nil {
		engine.Close()
		return fmt.Errorf("checking OCR engine: %w", err)
	}
	scanner := scanning.NewOCRScanner(engine, scanning.NewPreprocessor(cfg.contrastFactor), cfg.ocrTimeout)
	defer scanner.Close()

	// Initialize receipt store
	slog.Info("Initializing store...", "store", cfg.storeType)
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "path", cfg.storagePath)
	storage, err := receipt.NewLocalStorage(cfg.storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	extractor := extraction.NewExtractor(extraction.Config{TotalTolerance: tolerance}, slog.Default())
	service := receipt.NewService(
		store,
		scanner,
		extractor,
		storage,
		receipt.NewLocalImageResolver(storage, cfg.publicURL),
		cfg.username,
	)

	server := receipt.NewServer(service, receipt.BasicAuth{
		Username: cfg.authUser,
		Password: cfg.authPass,
	})

	addr := fmt.Sprintf(":%d", cfg.port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if cfg.authUser != "" || cfg.authPass != "" {
		slog.Info("Basic auth enabled", "user", cfg.authUser)
	}

	// Wait for interrupt signal or a server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newEngine(cfg config) (scanning.Engine, error) {
	switch cfg.ocrEngine {
	case "tesseract":
		return scanning.NewTesseract(tesseractConfig(cfg), slog.Default()), nil
	case "gosseract":
		return scanning.NewGosseract(cfg.tesseractLang, slog.Default())
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		slog.Info("Using Gemini transcription", "model", cfg.geminiModel)
		return scanning.NewGemini(apiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Using Ollama transcription", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid OCR engine %q (valid: tesseract, gosseract, gemini, ollama)", cfg.ocrEngine)
	}
}

func tesseractConfig(cfg config) scanning.TesseractConfig {
	return scanning.TesseractConfig{
		Binary:      cfg.tesseractBin,
		Lang:        cfg.tesseractLang,
		TessdataDir: cfg.tessdataDir,
	}
}

func newStore(cfg config) (receipt.Store, error) {
	results, err := receipt.NewJSONLines(cfg.resultsPath)
	if err != nil {
		return nil, fmt.Errorf("initializing results file: %w", err)
	}

	switch cfg.storeType {
	case "jsonl":
		return results, nil
	case "bolt":
		db, err := receipt.NewBoltDB(cfg.dbPath)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		return receipt.NewFallbackStore(db, results), nil
	default:
		return nil, fmt.Errorf("invalid store %q (valid: bolt, jsonl)", cfg.storeType)
	}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (valid: text, json)", format)
	}
}
