// Package extraction turns raw OCR text from a receipt into priced items, a
// reconciled total, a category breakdown and a savings tip.
package extraction

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTotalTolerance is how far a detected total line may drift from the
// summed items and still be trusted.
var DefaultTotalTolerance = decimal.NewFromInt(100)

// Item is a single priced line on a receipt
type Item struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Result is the structured data extracted from one receipt's text
type Result struct {
	Items             []Item          `json:"items"`
	Total             decimal.Decimal `json:"total"`
	CategoryBreakdown Breakdown       `json:"category_breakdown"`
	SavingsTip        string          `json:"savings_tip"`
}

// Config holds the extraction heuristics
type Config struct {
	TotalTolerance decimal.Decimal
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
}

// DefaultConfig returns the stock heuristics
func DefaultConfig() Config {
	return Config{
		TotalTolerance: DefaultTotalTolerance,
		MinPrice:       DefaultMinPrice,
		MaxPrice:       DefaultMaxPrice,
	}
}

// Extractor parses receipt text line by line. It holds no per-call state and
// is safe for concurrent use.
type Extractor struct {
	cfg    Config
	parser *LineParser
	logger *slog.Logger
}

// NewExtractor creates an Extractor. Zero-valued config fields fall back to defaults.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.TotalTolerance.IsZero() {
		cfg.TotalTolerance = def.TotalTolerance
	}
	if cfg.MinPrice.IsZero() {
		cfg.MinPrice = def.MinPrice
	}
	if cfg.MaxPrice.IsZero() {
		cfg.MaxPrice = def.MaxPrice
	}
	return &Extractor{
		cfg:    cfg,
		parser: NewLineParser(cfg.MinPrice, cfg.MaxPrice),
		logger: logger,
	}
}

// Extract parses raw OCR text. It never fails: unreadable text yields an empty result.
func (e *Extractor) Extract(rawText string) *Result {
	res := &Result{
		Items:             []Item{},
		Total:             decimal.Zero,
		CategoryBreakdown: Breakdown{},
	}

	text := strings.ReplaceAll(strings.TrimSpace(rawText), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		outcome := e.parser.Parse(line)
		switch outcome.Kind {
		case ItemLine:
			res.Items = append(res.Items, outcome.Item)
			res.Total = res.Total.Add(outcome.Item.Price)
			res.CategoryBreakdown.Add(Categorize(outcome.Item.Name), outcome.Item.Price)
		case TotalOverride:
			res.Total = e.reconcile(res.Total, outcome.Total, len(res.Items))
		default:
			if strings.TrimSpace(line) != "" {
				e.logger.Debug("no item or total match", "line", line)
			}
		}
	}

	res.SavingsTip = SavingsTip(res.Items, res.CategoryBreakdown, res.Total)
	return res
}

// reconcile decides whether a detected total line replaces the running total
func (e *Extractor) reconcile(running, detected decimal.Decimal, itemCount int) decimal.Decimal {
	if detected.Sub(running).Abs().LessThan(e.cfg.TotalTolerance) {
		e.logger.Debug("overriding total with detected total", "running", running, "detected", detected)
		return detected
	}
	if itemCount == 0 {
		e.logger.Debug("setting total from detected total, no items parsed", "detected", detected)
		return detected
	}
	e.logger.Debug("ignoring divergent total line", "running", running, "detected", detected)
	return running
}
