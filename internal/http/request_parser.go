// Package http provides the JSON and event-stream API.
//
// This file implements utilities for parsing and validating HTTP request data.
// Bodies may be JSON or form-encoded; both go through RequestBodyParser.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/i18n"
	"subtrack/internal/services"
)

// maxBodyBytes caps request bodies; a subscription form is tiny.
const maxBodyBytes = 64 << 10

// errBadInput marks user input that could not be turned into a subscription.
var errBadInput = errors.New("invalid input")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseNewSubscription reads a subscription from the parsed body. A missing
// start date means today. Field level rules are left to the service.
func parseNewSubscription(p *RequestBodyParser, today core.Date) (core.NewSubscription, error) {
	in := core.NewSubscription{
		Name:      p.Get("name"),
		Currency:  core.CurrencyCode(p.Get("currency")),
		Cycle:     core.Cycle(strings.ToLower(p.Get("cycle"))),
		Category:  core.Category(p.Get("category")),
		Color:     p.Get("color"),
		StartDate: today,
	}
	if in.Cycle == "" {
		in.Cycle = core.Monthly
	}

	cents, err := core.ParseDecimalToCents(p.Get("cost"))
	if err != nil {
		return core.NewSubscription{}, fmt.Errorf("%w: cost: %w", errBadInput, err)
	}
	in.Cost = core.Money{Cents: cents}

	if v := p.Get("start_date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.NewSubscription{}, fmt.Errorf("%w: start_date: %w", errBadInput, err)
		}
		in.StartDate = d
	}
	return in, nil
}

// parseDashboardOptions reads view, tradeoff and lang from the query.
func parseDashboardOptions(r *http.Request, fallback core.Locale, asOf time.Time) (services.DashboardOptions, error) {
	q := r.URL.Query()
	view, err := core.ParseViewMode(q.Get("view"))
	if err != nil {
		return services.DashboardOptions{}, err
	}

	loc := i18n.Negotiate(q.Get("lang"), r.Header.Get("Accept-Language"), fallback)

	tradeOff := core.TradeOffID(strings.ToLower(strings.TrimSpace(q.Get("tradeoff"))))
	if tradeOff == "" {
		tradeOff = core.TradeOffIDs[0]
	}
	if _, err := core.LookupTradeOff(loc, tradeOff); err != nil {
		return services.DashboardOptions{}, err
	}

	return services.DashboardOptions{
		View:     view,
		Locale:   loc,
		TradeOff: tradeOff,
		AsOf:     asOf,
	}, nil
}

// requestLocale negotiates the locale for messages outside a dashboard.
func requestLocale(r *http.Request, fallback core.Locale) core.Locale {
	return i18n.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), fallback)
}
