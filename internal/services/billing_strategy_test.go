package services

import (
	"errors"
	"testing"
	"time"

	"subtrack/internal/core"
)

func TestMonthlyAdvancer_Advance(t *testing.T) {
	tests := []struct {
		name string
		in   core.Date
		want core.Date
	}{
		{"mid month", core.NewDate(2025, 1, 15), core.NewDate(2025, 2, 15)},
		{"december rolls year", core.NewDate(2024, 12, 10), core.NewDate(2025, 1, 10)},
		{"jan 31 overflows", core.NewDate(2025, 1, 31), core.NewDate(2025, 3, 3)},
		{"jan 31 leap year", core.NewDate(2024, 1, 31), core.NewDate(2024, 3, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyAdvancer{}.Advance(tt.in)
			if got != tt.want {
				t.Errorf("MonthlyAdvancer.Advance(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestYearlyAdvancer_Advance(t *testing.T) {
	if got := (YearlyAdvancer{}).Advance(core.NewDate(2024, 2, 29)); got != core.NewDate(2025, 3, 1) {
		t.Errorf("Feb 29 + 1 year = %s, want 2025-03-01", got)
	}
	if got := (YearlyAdvancer{}).Advance(core.NewDate(2024, 6, 1)); got != core.NewDate(2025, 6, 1) {
		t.Errorf("Jun 1 + 1 year = %s", got)
	}
}

func TestNextBillingDate(t *testing.T) {
	asOf := time.Date(2025, 3, 20, 15, 30, 0, 0, time.UTC)
	today := core.DateOf(asOf)

	tests := []struct {
		name  string
		start core.Date
		cycle core.Cycle
		want  core.Date
	}{
		{"five days ago monthly advances once", today.AddDays(-5), core.Monthly, core.NewDate(2025, 4, 15)},
		{"two days ago stays", today.AddDays(-2), core.Monthly, today.AddDays(-2)},
		{"exactly at grace boundary stays", today.AddDays(-3), core.Monthly, today.AddDays(-3)},
		{"four days ago advances", today.AddDays(-4), core.Monthly, core.NewDate(2025, 4, 16)},
		{"future unchanged", core.NewDate(2025, 6, 1), core.Yearly, core.NewDate(2025, 6, 1)},
		{"several months back", core.NewDate(2024, 11, 5), core.Monthly, core.NewDate(2025, 4, 5)},
		{"yearly from long ago", core.NewDate(2019, 3, 1), core.Yearly, core.NewDate(2026, 3, 1)},
		{"yearly within grace", core.NewDate(2024, 3, 18), core.Yearly, core.NewDate(2025, 3, 18)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextBillingDate(tt.start, tt.cycle, asOf)
			if err != nil {
				t.Fatalf("NextBillingDate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NextBillingDate(%s, %s) = %s, want %s", tt.start, tt.cycle, got, tt.want)
			}
			if got.Before(today.AddDays(-GracePeriodDays)) {
				t.Errorf("result %s is before the grace threshold", got)
			}
		})
	}
}

func TestNextBillingDate_Idempotent(t *testing.T) {
	asOf := time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC)
	for _, cycle := range core.Cycles {
		once, err := NextBillingDate(core.NewDate(2023, 1, 31), cycle, asOf)
		if err != nil {
			t.Fatal(err)
		}
		twice, err := NextBillingDate(once, cycle, asOf)
		if err != nil {
			t.Fatal(err)
		}
		if once != twice {
			t.Errorf("%s: second application changed %s to %s", cycle, once, twice)
		}
	}
}

func TestNextBillingDate_UsesCallerLocation(t *testing.T) {
	// 02:00 on Mar 24 in UTC+5 is still Mar 23 in UTC.
	loc := time.FixedZone("UTC+5", 5*3600)
	asOf := time.Date(2025, 3, 24, 2, 0, 0, 0, loc)

	got, err := NextBillingDate(core.NewDate(2025, 3, 20), core.Monthly, asOf)
	if err != nil {
		t.Fatal(err)
	}
	// Threshold is Mar 21 local, so Mar 20 rolls forward.
	if got != core.NewDate(2025, 4, 20) {
		t.Errorf("got %s, want 2025-04-20", got)
	}
}

func TestNextBillingDate_Errors(t *testing.T) {
	asOf := time.Now()
	if _, err := NextBillingDate(core.NewDate(2025, 1, 1), "weekly", asOf); !errors.Is(err, core.ErrInvalidCycle) {
		t.Errorf("expected ErrInvalidCycle, got %v", err)
	}
	if _, err := NextBillingDate(core.Date{}, core.Monthly, asOf); err == nil {
		t.Error("expected error for zero start date")
	}
}

type weeklyAdvancer struct{}

func (weeklyAdvancer) Advance(d core.Date) core.Date { return d.AddDays(7) }

func TestRegisterCycleAdvancer(t *testing.T) {
	const weekly core.Cycle = "weekly-test"
	RegisterCycleAdvancer(weekly, weeklyAdvancer{})
	defer delete(cycleStrategies, weekly)

	advancer, err := GetCycleAdvancer(weekly)
	if err != nil {
		t.Fatalf("GetCycleAdvancer() error = %v", err)
	}
	if got := advancer.Advance(core.NewDate(2025, 1, 1)); got != core.NewDate(2025, 1, 8) {
		t.Errorf("Advance() = %s", got)
	}
}
