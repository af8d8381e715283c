// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is accepted since a
// subscription may be free; negative values and malformed input are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("0") -> 0, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	// Only ASCII digits; the fraction is read byte by byte below.
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// NewMoney converts a decimal amount to cents, rounding half away from zero.
func NewMoney(amount float64) Money {
	return Money{Cents: int64(math.Round(amount * 100))}
}

// Units returns the amount in major currency units.
// Use cents for storage; the float form is for rate arithmetic and display.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals.
func (m Money) String() string {
	return strconv.FormatFloat(m.Units(), 'f', 2, 64)
}
