package services

import (
	"cmp"
	"math"
	"slices"

	"subtrack/internal/core"
)

// DueSoonDays is the inclusive window in which a payment counts as due soon.
const DueSoonDays = 3

// Urgency describes how close a billing date is to today.
type Urgency struct {
	DaysRemaining int     `json:"days_remaining"`
	Overdue       bool    `json:"overdue"`
	DueSoon       bool    `json:"due_soon"`
	Progress      float64 `json:"progress"`
}

// ClassifyUrgency compares next against today. Callers compute today once
// per pass so every subscription is judged against the same day.
func ClassifyUrgency(next, today core.Date) Urgency {
	days := int(math.Ceil(next.Time.Sub(today.Time).Hours() / 24))
	u := Urgency{
		DaysRemaining: days,
		Overdue:       days < 0,
		DueSoon:       days >= 0 && days <= DueSoonDays,
	}
	if u.Overdue {
		u.Progress = 100
	} else {
		u.Progress = math.Max(5, 100-float64(days)*3.3)
	}
	return u
}

// SortByNextBilling returns a copy of subs ordered by next billing date.
// Equal dates keep their input order.
func SortByNextBilling(subs []core.Subscription) []core.Subscription {
	out := slices.Clone(subs)
	slices.SortStableFunc(out, func(a, b core.Subscription) int {
		return cmp.Compare(a.NextBillingDate.Unix(), b.NextBillingDate.Unix())
	})
	return out
}
