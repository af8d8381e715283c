package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func TestCompareTradeOff(t *testing.T) {
	coffee, err := core.LookupTradeOff(core.LocaleEN, core.TradeOffCoffee)
	require.NoError(t, err)

	to := CompareTradeOff(mkSub("Netflix", 1549, core.USD, core.Monthly, core.Entertainment), coffee)
	assert.InDelta(t, 15.49/5, to.Ratio, 1e-9)
	assert.Equal(t, "3", to.Display)

	cheap := CompareTradeOff(mkSub("Cheap", 150, core.USD, core.Monthly, core.Other), coffee)
	assert.Equal(t, "0.3", cheap.Display)

	free := CompareTradeOff(mkSub("Free", 0, core.USD, core.Monthly, core.Other), coffee)
	assert.Equal(t, "0.0", free.Display)
}

func TestCompareTradeOff_ConvertsItemCurrency(t *testing.T) {
	kaffee, err := core.LookupTradeOff(core.LocaleDE, core.TradeOffCoffee)
	require.NoError(t, err)

	// 4.5 EUR coffee is 4.86 USD; 48.6 USD monthly is ten coffees.
	to := CompareTradeOff(mkSub("x", 4860, core.USD, core.Monthly, core.Other), kaffee)
	assert.InDelta(t, 10, to.Ratio, 1e-9)
	assert.Equal(t, "10", to.Display)
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "0.5", FormatRatio(0.5))
	assert.Equal(t, "1", FormatRatio(1))
	assert.Equal(t, "3", FormatRatio(2.5))
	assert.Equal(t, "12", FormatRatio(11.6))
}
