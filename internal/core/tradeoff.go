package core

import (
	"errors"
	"fmt"
)

// Locale identifies one of the supported UI languages.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleTR Locale = "tr"
	LocaleDE Locale = "de"
	LocaleFR Locale = "fr"
	LocaleES Locale = "es"
)

// DefaultLocale is used when nothing better can be negotiated.
const DefaultLocale = LocaleEN

// Locales lists the supported locales; the first entry is the default.
var Locales = []Locale{LocaleEN, LocaleTR, LocaleDE, LocaleFR, LocaleES}

func (l Locale) IsValid() bool {
	for _, known := range Locales {
		if l == known {
			return true
		}
	}
	return false
}

// TradeOffID names a reference everyday purchase.
type TradeOffID string

const (
	TradeOffCoffee TradeOffID = "coffee"
	TradeOffMeal   TradeOffID = "meal"
	TradeOffCinema TradeOffID = "cinema"
)

// TradeOffIDs lists every id each locale must define, in display order.
var TradeOffIDs = []TradeOffID{TradeOffCoffee, TradeOffMeal, TradeOffCinema}

var ErrUnknownTradeOff = errors.New("unknown trade-off item")

type TradeOffItem struct {
	ID       TradeOffID   `json:"id"`
	Name     string       `json:"name"`
	Cost     float64      `json:"cost"`
	Currency CurrencyCode `json:"currency"`
	Icon     string       `json:"icon"`
}

var tradeOffTable = map[Locale][]TradeOffItem{
	LocaleEN: {
		{ID: TradeOffCoffee, Name: "Coffee", Cost: 5, Currency: USD, Icon: "☕"},
		{ID: TradeOffMeal, Name: "Burger", Cost: 12, Currency: USD, Icon: "🍔"},
		{ID: TradeOffCinema, Name: "Movie Ticket", Cost: 16, Currency: USD, Icon: "🎬"},
	},
	LocaleTR: {
		{ID: TradeOffCoffee, Name: "Kahve", Cost: 90, Currency: TRY, Icon: "☕"},
		{ID: TradeOffMeal, Name: "Lahmacun", Cost: 160, Currency: TRY, Icon: "🌯"},
		{ID: TradeOffCinema, Name: "Sinema", Cost: 220, Currency: TRY, Icon: "🎬"},
	},
	LocaleDE: {
		{ID: TradeOffCoffee, Name: "Kaffee", Cost: 4.5, Currency: EUR, Icon: "☕"},
		{ID: TradeOffMeal, Name: "Döner", Cost: 7, Currency: EUR, Icon: "🥙"},
		{ID: TradeOffCinema, Name: "Kino", Cost: 14, Currency: EUR, Icon: "🎬"},
	},
	LocaleFR: {
		{ID: TradeOffCoffee, Name: "Café", Cost: 4, Currency: EUR, Icon: "☕"},
		{ID: TradeOffMeal, Name: "Croissant", Cost: 2.5, Currency: EUR, Icon: "🥐"},
		{ID: TradeOffCinema, Name: "Cinéma", Cost: 13, Currency: EUR, Icon: "🎬"},
	},
	LocaleES: {
		{ID: TradeOffCoffee, Name: "Café", Cost: 3, Currency: EUR, Icon: "☕"},
		{ID: TradeOffMeal, Name: "Tapas", Cost: 6, Currency: EUR, Icon: "🥘"},
		{ID: TradeOffCinema, Name: "Cine", Cost: 10, Currency: EUR, Icon: "🎬"},
	},
}

func init() {
	if err := checkTradeOffTable(tradeOffTable); err != nil {
		panic(err)
	}
}

// checkTradeOffTable requires every locale to define every id exactly once
// with a positive cost in a known currency. A zero cost would make the
// trade-off ratio divide by zero.
func checkTradeOffTable(table map[Locale][]TradeOffItem) error {
	for _, loc := range Locales {
		items, ok := table[loc]
		if !ok {
			return fmt.Errorf("trade-off table: locale %q missing", loc)
		}
		seen := make(map[TradeOffID]bool, len(items))
		for _, it := range items {
			if seen[it.ID] {
				return fmt.Errorf("trade-off table: locale %q defines %q twice", loc, it.ID)
			}
			seen[it.ID] = true
			if it.Cost <= 0 {
				return fmt.Errorf("trade-off table: %s/%s has non-positive cost", loc, it.ID)
			}
			if _, err := LookupRate(it.Currency); err != nil {
				return fmt.Errorf("trade-off table: %s/%s: %w", loc, it.ID, err)
			}
		}
		for _, id := range TradeOffIDs {
			if !seen[id] {
				return fmt.Errorf("trade-off table: locale %q missing %q", loc, id)
			}
		}
	}
	return nil
}

// TradeOffItems returns the items for a locale, falling back to the default locale.
func TradeOffItems(loc Locale) []TradeOffItem {
	items, ok := tradeOffTable[loc]
	if !ok {
		items = tradeOffTable[DefaultLocale]
	}
	out := make([]TradeOffItem, len(items))
	copy(out, items)
	return out
}

// LookupTradeOff finds an item by locale and id.
func LookupTradeOff(loc Locale, id TradeOffID) (TradeOffItem, error) {
	for _, it := range TradeOffItems(loc) {
		if it.ID == id {
			return it, nil
		}
	}
	return TradeOffItem{}, fmt.Errorf("%w: %s/%s", ErrUnknownTradeOff, loc, id)
}
