package services

import (
	"subtrack/internal/core"
)

const (
	// VibeLowMax is the highest monthly total still labelled low.
	VibeLowMax = 50.0
	// VibeMediumMax is the highest monthly total still labelled medium.
	VibeMediumMax = 150.0
)

// NormalizedMonthlyCost converts a subscription's cost to the reference
// currency per month. Unknown currencies convert at rate 1.
func NormalizedMonthlyCost(s core.Subscription) float64 {
	v := s.Cost.Units() * core.RateToReference(s.Currency)
	if s.Cycle == core.Yearly {
		v /= 12
	}
	return v
}

// DisplayCost expresses the cost in the subscription's own currency for
// the requested view.
func DisplayCost(s core.Subscription, view core.ViewMode) float64 {
	v := s.Cost.Units()
	switch {
	case view == core.ViewYearly && s.Cycle == core.Monthly:
		return v * 12
	case view == core.ViewMonthly && s.Cycle == core.Yearly:
		return v / 12
	default:
		return v
	}
}

// ClassifyVibe labels a monthly total.
func ClassifyVibe(monthlyTotal float64) core.Vibe {
	switch {
	case monthlyTotal <= VibeLowMax:
		return core.VibeLow
	case monthlyTotal <= VibeMediumMax:
		return core.VibeMedium
	default:
		return core.VibeHigh
	}
}

// Summarize aggregates subs in the reference currency. Only Total follows the
// view; ByCategory always holds normalized monthly amounts, in the order
// categories are first seen in subs.
func Summarize(subs []core.Subscription, view core.ViewMode) core.Summary {
	var monthly float64
	byCategory := make([]core.CategoryAmount, 0)
	index := make(map[core.Category]int)

	for _, s := range subs {
		v := NormalizedMonthlyCost(s)
		monthly += v
		i, ok := index[s.Category]
		if !ok {
			i = len(byCategory)
			index[s.Category] = i
			byCategory = append(byCategory, core.CategoryAmount{Category: s.Category})
		}
		byCategory[i].Amount += v
	}

	total := monthly
	if view == core.ViewYearly {
		total = monthly * 12
	}

	return core.Summary{
		View:         view,
		Total:        total,
		MonthlyTotal: monthly,
		ByCategory:   byCategory,
		Vibe:         ClassifyVibe(monthly),
		Count:        len(subs),
	}
}
