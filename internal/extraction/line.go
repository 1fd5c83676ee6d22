package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// LineKind tags the outcome of classifying a single OCR line
type LineKind int

const (
	Noise LineKind = iota
	ItemLine
	TotalOverride
)

func (k LineKind) String() string {
	switch k {
	case ItemLine:
		return "item"
	case TotalOverride:
		return "total"
	default:
		return "noise"
	}
}

// LineOutcome is the classification of one line. Item is set for ItemLine,
// Total for TotalOverride.
type LineOutcome struct {
	Kind  LineKind
	Item  Item
	Total decimal.Decimal
}

var (
	// itemPattern is a greedy-enough name followed by an optional separator and a
	// trailing numeral with optional thousands separators and up to two decimals.
	itemPattern = regexp.MustCompile(`^(.+?)\s*[.:₹\s]?[,\s]*([\d,]+(?:\.\d{1,2})?)$`)

	// totalLinePattern is matched against the lowercased line.
	totalLinePattern = regexp.MustCompile(`(?:total|sum|amt|balance)\s*[:₹]?\s*([\d,]+(?:\.\d{1,2})?)$`)

	// stoplist marks receipt metadata lines that are never items.
	stoplist = []string{
		"gst", "total", "invoice", "bill", "phone", "contact", "care", "amount",
		"tax", "subtotal", "discount", "change", "cash", "card", "visa", "mastercard",
		"qty", "quantity", "rate", "price", "item", "description", "unit",
	}

	// totalStopwords are the stoplist entries that still allow a total line.
	totalStopwords = map[string]bool{"total": true, "subtotal": true, "amount": true}
)

var (
	DefaultMinPrice = decimal.RequireFromString("0.01")
	DefaultMaxPrice = decimal.RequireFromString("100000.00")
)

// LineParser classifies OCR lines as items, total lines or noise
type LineParser struct {
	minPrice decimal.Decimal
	maxPrice decimal.Decimal
}

// NewLineParser creates a LineParser accepting item prices within [minPrice, maxPrice]
func NewLineParser(minPrice, maxPrice decimal.Decimal) *LineParser {
	return &LineParser{minPrice: minPrice, maxPrice: maxPrice}
}

// Parse classifies a single line. Item matching is tried before the total-line
// fallback. Stoplisted lines skip item matching and reach the total pattern only
// when every stoplist word they contain is a total keyword.
func (p *LineParser) Parse(line string) LineOutcome {
	line = strings.TrimSpace(line)
	if line == "" {
		return LineOutcome{Kind: Noise}
	}
	lower := strings.ToLower(line)

	stoplisted, totalsOnly := stoplistHits(lower)
	if !stoplisted {
		if item, ok := p.parseItem(line); ok {
			return LineOutcome{Kind: ItemLine, Item: item}
		}
	} else if !totalsOnly {
		return LineOutcome{Kind: Noise}
	}

	if m := totalLinePattern.FindStringSubmatch(lower); m != nil {
		value, err := parseNumeral(m[1])
		if err == nil && value.IsPositive() {
			return LineOutcome{Kind: TotalOverride, Total: value}
		}
	}

	return LineOutcome{Kind: Noise}
}

func (p *LineParser) parseItem(line string) (Item, bool) {
	m := itemPattern.FindStringSubmatch(line)
	if m == nil {
		return Item{}, false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return Item{}, false
	}
	price, err := parseNumeral(m[2])
	if err != nil {
		return Item{}, false
	}
	if price.LessThan(p.minPrice) || price.GreaterThan(p.maxPrice) {
		return Item{}, false
	}
	return Item{Name: name, Price: price}, true
}

// stoplistHits reports whether lower contains any stoplist word, and whether
// every word it contains is a total keyword.
func stoplistHits(lower string) (stoplisted, totalsOnly bool) {
	totalsOnly = true
	for _, word := range stoplist {
		if strings.Contains(lower, word) {
			stoplisted = true
			if !totalStopwords[word] {
				totalsOnly = false
			}
		}
	}
	return stoplisted, stoplisted && totalsOnly
}

// parseNumeral strips thousands separators and parses the remainder
func parseNumeral(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}
