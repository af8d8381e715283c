package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func mkSub(name string, cents int64, cur core.CurrencyCode, cycle core.Cycle, cat core.Category) core.Subscription {
	return core.Subscription{
		Name:            name,
		Cost:            core.Money{Cents: cents},
		Currency:        cur,
		Cycle:           cycle,
		Category:        cat,
		NextBillingDate: core.NewDate(2025, 1, 1),
	}
}

func TestNormalizedMonthlyCost(t *testing.T) {
	assert.InDelta(t, 15.49, NormalizedMonthlyCost(mkSub("Netflix", 1549, core.USD, core.Monthly, core.Entertainment)), 1e-9)
	assert.InDelta(t, 10.8, NormalizedMonthlyCost(mkSub("Annual", 12000, core.EUR, core.Yearly, core.Work)), 1e-9)
	assert.InDelta(t, 0.031*100, NormalizedMonthlyCost(mkSub("TRY", 10000, core.TRY, core.Monthly, core.Other)), 1e-9)
	assert.InDelta(t, 7, NormalizedMonthlyCost(mkSub("Unknown", 700, "JPY", core.Monthly, core.Other)), 1e-9)
	assert.Zero(t, NormalizedMonthlyCost(mkSub("Free", 0, core.GBP, core.Yearly, core.Other)))
}

func TestDisplayCost(t *testing.T) {
	monthly := mkSub("m", 1000, core.EUR, core.Monthly, core.Other)
	yearly := mkSub("y", 12000, core.EUR, core.Yearly, core.Other)

	assert.InDelta(t, 10, DisplayCost(monthly, core.ViewMonthly), 1e-9)
	assert.InDelta(t, 120, DisplayCost(monthly, core.ViewYearly), 1e-9)
	assert.InDelta(t, 10, DisplayCost(yearly, core.ViewMonthly), 1e-9)
	assert.InDelta(t, 120, DisplayCost(yearly, core.ViewYearly), 1e-9)
}

func TestClassifyVibe(t *testing.T) {
	tests := []struct {
		total float64
		want  core.Vibe
	}{
		{0, core.VibeLow},
		{50, core.VibeLow},
		{50.01, core.VibeMedium},
		{75, core.VibeMedium},
		{150, core.VibeMedium},
		{150.01, core.VibeHigh},
		{200, core.VibeHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyVibe(tt.total), "total %v", tt.total)
	}
}

func TestSummarize(t *testing.T) {
	subs := []core.Subscription{
		mkSub("Spotify", 1099, core.USD, core.Monthly, core.Music),
		mkSub("Netflix", 1549, core.USD, core.Monthly, core.Entertainment),
		mkSub("Annual", 12000, core.EUR, core.Yearly, core.Music),
	}

	monthly := Summarize(subs, core.ViewMonthly)
	assert.InDelta(t, 10.99+15.49+10.8, monthly.Total, 1e-9)
	assert.InDelta(t, monthly.Total, monthly.MonthlyTotal, 1e-9)
	assert.Equal(t, 3, monthly.Count)
	assert.Equal(t, core.VibeLow, monthly.Vibe)
	require.Len(t, monthly.ByCategory, 2)
	assert.Equal(t, core.Music, monthly.ByCategory[0].Category)
	assert.InDelta(t, 10.99+10.8, monthly.ByCategory[0].Amount, 1e-9)
	assert.Equal(t, core.Entertainment, monthly.ByCategory[1].Category)

	yearly := Summarize(subs, core.ViewYearly)
	assert.InDelta(t, monthly.Total*12, yearly.Total, 1e-9)
	assert.InDelta(t, monthly.MonthlyTotal, yearly.MonthlyTotal, 1e-9)
	require.Len(t, yearly.ByCategory, 2)
	for i := range monthly.ByCategory {
		assert.Equal(t, monthly.ByCategory[i].Category, yearly.ByCategory[i].Category)
		assert.InDelta(t, monthly.ByCategory[i].Amount, yearly.ByCategory[i].Amount, 1e-9, "category amounts stay monthly")
	}
	assert.Equal(t, monthly.Vibe, yearly.Vibe)
}

func TestSummarizeVibeThresholds(t *testing.T) {
	assert.Equal(t, core.VibeMedium, Summarize([]core.Subscription{mkSub("a", 7500, core.USD, core.Monthly, core.Work)}, core.ViewMonthly).Vibe)
	assert.Equal(t, core.VibeHigh, Summarize([]core.Subscription{mkSub("a", 20000, core.USD, core.Monthly, core.Work)}, core.ViewYearly).Vibe)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, core.ViewYearly)
	assert.Zero(t, s.Total)
	assert.NotNil(t, s.ByCategory)
	assert.Empty(t, s.ByCategory)
	assert.Equal(t, core.VibeLow, s.Vibe)
}
