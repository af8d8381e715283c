package services

import (
	"math"
	"strconv"

	"subtrack/internal/core"
)

// TradeOff expresses a monthly cost as a multiple of an everyday purchase.
type TradeOff struct {
	Item    core.TradeOffItem `json:"item"`
	Ratio   float64           `json:"ratio"`
	Display string            `json:"display"`
}

// CompareTradeOff divides the subscription's normalized monthly cost by the
// item's reference cost. Item costs are guaranteed positive by the table check.
func CompareTradeOff(s core.Subscription, item core.TradeOffItem) TradeOff {
	ratio := NormalizedMonthlyCost(s) / (item.Cost * core.RateToReference(item.Currency))
	return TradeOff{Item: item, Ratio: ratio, Display: FormatRatio(ratio)}
}

// FormatRatio shows one decimal below 1 and a rounded integer otherwise.
func FormatRatio(ratio float64) string {
	if ratio < 1 {
		return strconv.FormatFloat(ratio, 'f', 1, 64)
	}
	return strconv.FormatFloat(math.Round(ratio), 'f', 0, 64)
}
