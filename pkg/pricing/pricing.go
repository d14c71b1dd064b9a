// Package pricing computes the minimum allowed price for an order. It is a
// pure function of category, order type, page count and deadline; callers use
// it only to validate budgets at order creation.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var basePerPage = map[string]int{
	"literature":            12,
	"english":               12,
	"art":                   12,
	"psychology":            12,
	"philosophy":            12,
	"history":               12,
	"science":               15,
	"mathematics":           18,
	"business":              13,
	"technology":            18,
	"engineering":           18,
	"law":                   13,
	"medicine":              14,
	"nursing":               13,
	"healthcare":            13,
	"geography":             12,
	"political-science":     12,
	"economics":             14,
	"physics":               15,
	"biology":               15,
	"environmental-science": 12,
	"finance":               14,
	"other":                 15,
}

var typeMultiplier = map[string]float64{
	"essay":           1.0,
	"research-paper":  1.2,
	"thesis":          1.5,
	"dissertation":    1.5,
	"case-study":      1.2,
	"lab-report":      1.3,
	"presentation":    0.7,
	"coding-project":  1.6,
	"other":           1.7,
	"discussion-post": 1.0,
	"editing":         0.8,
	"rewriting":       0.9,
	"admission-essay": 1.0,
	"resume":          1.2,
	"cover-letter":    1.2,
}

// Order types priced as one unit regardless of page count.
var nonPageTypes = map[string]bool{
	"coding-project":         true,
	"data-analysis":          true,
	"software-development":   true,
	"programming-assignment": true,
}

var nonPageBase = map[string]int{
	"coding-project": 100,
	"data-analysis":  100,
}

var deadlineBands = []struct {
	maxHours float64
	mult     float64
}{
	{3, 1.8},
	{6, 1.65},
	{12, 1.5},
	{24, 1.35},
	{48, 1.2},
	{72, 1.1},
	{9999, 1.0},
}

// DeadlineMultiplier returns the urgency markup for a deadline relative to now.
func DeadlineMultiplier(deadline, now time.Time) float64 {
	hours := deadline.Sub(now).Hours()
	for _, band := range deadlineBands {
		if hours <= band.maxHours {
			return band.mult
		}
	}
	return 1.0
}

// MinimumPrice returns the lowest budget accepted for an order, rounded to
// two decimal places.
func MinimumPrice(category, orderType string, pages int, deadline, now time.Time) decimal.Decimal {
	base, ok := nonPageBase[orderType]
	if !ok {
		base, ok = basePerPage[category]
		if !ok {
			base = 5
		}
	}

	typeMult, ok := typeMultiplier[orderType]
	if !ok {
		typeMult = 1
	}

	units := pages
	if nonPageTypes[orderType] || units <= 0 {
		units = 1
	}

	price := decimal.NewFromInt(int64(base * units)).
		Mul(decimal.NewFromFloat(typeMult)).
		Mul(decimal.NewFromFloat(DeadlineMultiplier(deadline, now)))
	return price.Round(2)
}
