package extraction

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	TipNoData            = "🤔 Could not extract any meaningful data. Try a clearer image or manually enter details!"
	TipElectronics       = "⚡ Electronics are expensive. Compare prices or delay big upgrades."
	TipSnacksBulk        = "🍫 Lots of snacks. Consider buying in bulk to save long-term."
	TipMissingEssentials = "📌 No essentials detected. Are you skipping household basics?"
	TipGoodBudgeting     = "✅ Excellent budgeting. Keep up the good discipline!"
	TipBalanced          = "👍 Balanced receipt. Track these patterns over time to stay on target."

	tipHighSpendFormat = "📉 High spend alert: ₹%s. Try to set weekly limits."
)

var (
	electronicsTipThreshold = decimal.NewFromInt(1500)
	smallTotalThreshold     = decimal.NewFromInt(500)
	highSpendThreshold      = decimal.NewFromInt(2500)
)

const snacksBulkCount = 3

// SavingsTip picks the first matching tip for a parsed receipt
func SavingsTip(items []Item, breakdown Breakdown, total decimal.Decimal) string {
	var snacks, essentials int
	for _, item := range items {
		switch Categorize(item.Name) {
		case Snacks:
			snacks++
		case Essentials:
			essentials++
		}
	}

	switch {
	case total.IsZero():
		return TipNoData
	case breakdown.Get(Electronics).GreaterThan(electronicsTipThreshold):
		return TipElectronics
	case snacks >= snacksBulkCount:
		return TipSnacksBulk
	case essentials == 0 && total.IsPositive():
		return TipMissingEssentials
	case total.IsPositive() && total.LessThan(smallTotalThreshold):
		return TipGoodBudgeting
	case total.GreaterThan(highSpendThreshold):
		return fmt.Sprintf(tipHighSpendFormat, total.StringFixed(2))
	default:
		return TipBalanced
	}
}
