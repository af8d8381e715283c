// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for rolling a billing date
// forward. Each billing cycle has its own advancer that moves a date by
// exactly one period.

package services

import (
	"fmt"
	"time"

	"subtrack/internal/core"
)

// GracePeriodDays is how far in the past a billing date may lie before it
// is rolled forward.
const GracePeriodDays = 3

// maxAdvanceSteps bounds the roll-forward loop for absurd start dates.
const maxAdvanceSteps = 100000

// CycleAdvancer is the strategy interface for moving a billing date by one cycle.
type CycleAdvancer interface {
	// Advance returns the billing date one cycle after d.
	Advance(d core.Date) core.Date
}

// MonthlyAdvancer adds one calendar month. Days past the end of the target
// month overflow into the following month (Jan 31 becomes Mar 3, or Mar 2
// in a leap year).
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(d core.Date) core.Date {
	return core.Date{Time: d.Time.AddDate(0, 1, 0)}
}

// YearlyAdvancer adds one calendar year. Feb 29 becomes Mar 1.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Advance(d core.Date) core.Date {
	return core.Date{Time: d.Time.AddDate(1, 0, 0)}
}

var cycleStrategies = map[core.Cycle]CycleAdvancer{
	core.Monthly: MonthlyAdvancer{},
	core.Yearly:  YearlyAdvancer{},
}

// GetCycleAdvancer returns the advancer for a billing cycle.
func GetCycleAdvancer(cycle core.Cycle) (CycleAdvancer, error) {
	advancer, ok := cycleStrategies[cycle]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCycle, cycle)
	}
	return advancer, nil
}

// RegisterCycleAdvancer installs an advancer for an additional cycle.
func RegisterCycleAdvancer(cycle core.Cycle, advancer CycleAdvancer) {
	cycleStrategies[cycle] = advancer
}

// NextBillingDate rolls start forward one cycle at a time until it is no
// earlier than asOf's calendar day minus the grace period. A start already
// inside the window is returned unchanged.
func NextBillingDate(start core.Date, cycle core.Cycle, asOf time.Time) (core.Date, error) {
	if err := start.Validate(); err != nil {
		return core.Date{}, fmt.Errorf("start date: %w", err)
	}
	advancer, err := GetCycleAdvancer(cycle)
	if err != nil {
		return core.Date{}, err
	}

	threshold := core.DateOf(asOf).AddDays(-GracePeriodDays)
	next := start
	for steps := 0; next.Before(threshold); steps++ {
		if steps >= maxAdvanceSteps {
			return core.Date{}, fmt.Errorf("start date %s too far in the past", start)
		}
		next = advancer.Advance(next)
	}
	return next, nil
}
