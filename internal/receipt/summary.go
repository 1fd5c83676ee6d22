package receipt

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/snapbudget/internal/extraction"
)

// Item prices outside this range are treated as OCR noise by the dashboard
var (
	dashboardMinPrice = decimal.NewFromInt(1)
	dashboardMaxPrice = decimal.NewFromInt(10000)
)

const frequentItemCount = 3

// Dashboard is the spending overview across all receipts
type Dashboard struct {
	TotalSpent    decimal.Decimal `json:"total_spent"`
	ReceiptCount  int             `json:"receipt_count"`
	ByCategory    []CategoryTotal `json:"by_category"`
	FrequentItems []ItemCount     `json:"frequent_items"`
	Weekly        []PeriodTotal   `json:"weekly"`
	Daily         []PeriodTotal   `json:"daily"`
}

// CategoryTotal is the spend attributed to one category
type CategoryTotal struct {
	Category extraction.Category `json:"category"`
	Amount   decimal.Decimal     `json:"amount"`
}

// ItemCount is how often an item name appears across receipts
type ItemCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PeriodTotal is the spend within a day ("2006-01-02") or ISO week ("2006-W01")
type PeriodTotal struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

// Summarize builds the dashboard. Every counted item is attributed to its
// receipt's dominant category, and only prices within [1, 10000] count.
func Summarize(receipts []*Receipt) *Dashboard {
	d := &Dashboard{
		TotalSpent:    decimal.Zero,
		ReceiptCount:  len(receipts),
		ByCategory:    []CategoryTotal{},
		FrequentItems: []ItemCount{},
		Weekly:        []PeriodTotal{},
		Daily:         []PeriodTotal{},
	}

	byCategory := map[extraction.Category]decimal.Decimal{}
	weekly := map[string]decimal.Decimal{}
	daily := map[string]decimal.Decimal{}
	counts := map[string]int{}

	for _, r := range receipts {
		category := r.DominantCategory()
		week := isoWeek(r.Timestamp)
		day := r.Timestamp.Format(time.DateOnly)

		for _, item := range r.Items {
			if item.Price.LessThan(dashboardMinPrice) || item.Price.GreaterThan(dashboardMaxPrice) {
				continue
			}
			d.TotalSpent = d.TotalSpent.Add(item.Price)
			byCategory[category] = byCategory[category].Add(item.Price)
			weekly[week] = weekly[week].Add(item.Price)
			daily[day] = daily[day].Add(item.Price)
			counts[item.Name]++
		}
	}

	for cat, amount := range byCategory {
		d.ByCategory = append(d.ByCategory, CategoryTotal{Category: cat, Amount: amount})
	}
	sort.Slice(d.ByCategory, func(i, j int) bool {
		a, b := d.ByCategory[i], d.ByCategory[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})

	for name, n := range counts {
		d.FrequentItems = append(d.FrequentItems, ItemCount{Name: name, Count: n})
	}
	sort.Slice(d.FrequentItems, func(i, j int) bool {
		a, b := d.FrequentItems[i], d.FrequentItems[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(d.FrequentItems) > frequentItemCount {
		d.FrequentItems = d.FrequentItems[:frequentItemCount]
	}

	d.Weekly = sortedPeriods(weekly)
	d.Daily = sortedPeriods(daily)
	return d
}

func isoWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// sortedPeriods orders periods chronologically; both label formats sort lexically
func sortedPeriods(m map[string]decimal.Decimal) []PeriodTotal {
	periods := make([]PeriodTotal, 0, len(m))
	for period, amount := range m {
		periods = append(periods, PeriodTotal{Period: period, Amount: amount})
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Period < periods[j].Period })
	return periods
}
