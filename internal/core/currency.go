package core

import (
	"errors"
	"fmt"
)

// CurrencyCode is an ISO 4217 code.
type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	TRY CurrencyCode = "TRY"
	GBP CurrencyCode = "GBP"
)

// ReferenceCurrency is the unit all costs normalize into.
const ReferenceCurrency = USD

var ErrUnknownCurrency = errors.New("unknown currency")

// CurrencyRate converts one unit of Code into the reference currency.
type CurrencyRate struct {
	Code   CurrencyCode `json:"code"`
	Symbol string       `json:"symbol"`
	Rate   float64      `json:"rate"`
}

// Rates are static: no historical or live exchange data.
var currencyTable = []CurrencyRate{
	{Code: USD, Symbol: "$", Rate: 1},
	{Code: EUR, Symbol: "€", Rate: 1.08},
	{Code: TRY, Symbol: "₺", Rate: 0.031},
	{Code: GBP, Symbol: "£", Rate: 1.27},
}

var currencyIndex = func() map[CurrencyCode]CurrencyRate {
	idx := make(map[CurrencyCode]CurrencyRate, len(currencyTable))
	for _, c := range currencyTable {
		idx[c.Code] = c
	}
	return idx
}()

// Currencies returns the currency table in its canonical order.
func Currencies() []CurrencyRate {
	out := make([]CurrencyRate, len(currencyTable))
	copy(out, currencyTable)
	return out
}

// LookupRate returns the currency entry or ErrUnknownCurrency.
func LookupRate(code CurrencyCode) (CurrencyRate, error) {
	c, ok := currencyIndex[code]
	if !ok {
		return CurrencyRate{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// RateToReference returns the conversion factor for code.
// Unknown codes convert at 1 so stored records never fail to aggregate.
func RateToReference(code CurrencyCode) float64 {
	if c, ok := currencyIndex[code]; ok {
		return c.Rate
	}
	return 1
}

// Symbol returns the display symbol, or the code itself when unknown.
func (c CurrencyCode) Symbol() string {
	if rate, ok := currencyIndex[c]; ok {
		return rate.Symbol
	}
	return string(c)
}
