package receipt

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/snapbudget/internal/extraction"
)

// ErrNotFound is returned when a receipt ID or stored file does not exist
var ErrNotFound = errors.New("not found")

// Receipt is one processed receipt as persisted and returned to clients
type Receipt struct {
	ID                string               `json:"id"`
	Username          string               `json:"username"`
	Timestamp         time.Time            `json:"timestamp"`
	Items             []extraction.Item    `json:"items"`
	Total             decimal.Decimal      `json:"total"`
	CategoryBreakdown extraction.Breakdown `json:"category_breakdown"`
	SavingsTip        string               `json:"savings_tip"`
	ImageURL          string               `json:"image_url"`
	Filename          string               `json:"filename"`
	ContentType       string               `json:"content_type,omitempty"`
}

// DominantCategory is the breakdown category with the largest spend.
// Ties go to the category listed first; an empty breakdown is Other.
func (r *Receipt) DominantCategory() extraction.Category {
	best := extraction.Other
	var bestAmount decimal.Decimal
	found := false
	for _, cat := range extraction.Categories() {
		amount, ok := r.CategoryBreakdown[cat]
		if !ok {
			continue
		}
		if !found || amount.GreaterThan(bestAmount) {
			best, bestAmount, found = cat, amount, true
		}
	}
	return best
}
