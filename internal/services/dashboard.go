package services

import (
	"fmt"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/i18n"
)

// DashboardOptions selects how a snapshot is presented.
type DashboardOptions struct {
	View     core.ViewMode
	Locale   core.Locale
	TradeOff core.TradeOffID
	AsOf     time.Time
}

// Card is one subscription as rendered in the list.
type Card struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Cost            float64           `json:"cost"`
	DisplayCost     float64           `json:"display_cost"`
	Currency        core.CurrencyCode `json:"currency"`
	CurrencySymbol  string            `json:"currency_symbol"`
	Cycle           core.Cycle        `json:"cycle"`
	Category        core.Category     `json:"category"`
	Color           string            `json:"color,omitempty"`
	NextBillingDate core.Date         `json:"next_billing_date"`
	Urgency         Urgency           `json:"urgency"`
	StatusLabel     string            `json:"status_label,omitempty"`
	DaysLabel       string            `json:"days_label"`
	TradeOff        TradeOff          `json:"trade_off"`
	TradeOffLabel   string            `json:"trade_off_label"`
}

// Dashboard is everything a client needs to render one snapshot.
type Dashboard struct {
	Today     core.Date    `json:"today"`
	Locale    core.Locale  `json:"locale"`
	Summary   core.Summary `json:"summary"`
	VibeLabel string       `json:"vibe_label"`
	Cards     []Card       `json:"cards"`
}

// BuildDashboard derives the full view of subs. Today is computed once from
// opts.AsOf and shared by every card.
func BuildDashboard(subs []core.Subscription, opts DashboardOptions) Dashboard {
	view := opts.View
	if !view.IsValid() {
		view = core.ViewMonthly
	}
	loc := opts.Locale
	if !loc.IsValid() {
		loc = core.DefaultLocale
	}
	item, err := core.LookupTradeOff(loc, opts.TradeOff)
	if err != nil {
		item = core.TradeOffItems(loc)[0]
	}

	today := core.DateOf(opts.AsOf)
	summary := Summarize(subs, view)

	sorted := SortByNextBilling(subs)
	cards := make([]Card, 0, len(sorted))
	for _, s := range sorted {
		cards = append(cards, buildCard(s, view, loc, item, today))
	}

	return Dashboard{
		Today:     today,
		Locale:    loc,
		Summary:   summary,
		VibeLabel: i18n.T(loc, i18n.VibeKey(summary.Vibe)),
		Cards:     cards,
	}
}

func buildCard(s core.Subscription, view core.ViewMode, loc core.Locale, item core.TradeOffItem, today core.Date) Card {
	u := ClassifyUrgency(s.NextBillingDate, today)
	to := CompareTradeOff(s, item)

	c := Card{
		ID:              s.ID,
		Name:            s.Name,
		Cost:            s.Cost.Units(),
		DisplayCost:     DisplayCost(s, view),
		Currency:        s.Currency,
		CurrencySymbol:  s.Currency.Symbol(),
		Cycle:           s.Cycle,
		Category:        s.Category,
		Color:           s.Color,
		NextBillingDate: s.NextBillingDate,
		Urgency:         u,
		TradeOff:        to,
		TradeOffLabel:   fmt.Sprintf("%s %s %s %s", i18n.T(loc, i18n.Equals), to.Display, item.Name, item.Icon),
	}
	switch {
	case u.Overdue:
		c.StatusLabel = i18n.T(loc, i18n.Overdue)
		c.DaysLabel = fmt.Sprintf("%d %s", -u.DaysRemaining, i18n.T(loc, i18n.DaysAgo))
	case u.DueSoon:
		c.StatusLabel = i18n.T(loc, i18n.DueSoon)
		c.DaysLabel = fmt.Sprintf("%d %s", u.DaysRemaining, i18n.T(loc, i18n.DaysLeft))
	default:
		c.DaysLabel = fmt.Sprintf("%d %s", u.DaysRemaining, i18n.T(loc, i18n.DaysLeft))
	}
	return c
}
