package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func parserFor(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(req)
	require.NoError(t, p.Parse())
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	parser := parserFor(t, "application/json", `{"id": "123", "name": "test", "amount": 42.5}`)

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}
	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
	if missing := parser.Get("missing"); missing != "" {
		t.Errorf("Get('missing') = %q, want empty", missing)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	parser := parserFor(t, "application/x-www-form-urlencoded", "id=456&name=form+test&value=100")

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	parser := parserFor(t, "", "")
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": `))
	req.Header.Set("Content-Type", "application/json")
	assert.Error(t, NewRequestBodyParser(req).Parse())
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Netflix", sanitizeInput("  Net\x00flix\x07 "))
	assert.Equal(t, "a\tb", sanitizeInput("a\tb"))
}

func TestParseNewSubscription(t *testing.T) {
	today := core.NewDate(2024, 3, 10)

	t.Run("json with defaults", func(t *testing.T) {
		p := parserFor(t, "application/json", `{"name":"Netflix","cost":15.49,"currency":"USD","category":"Entertainment"}`)
		in, err := parseNewSubscription(p, today)
		require.NoError(t, err)
		assert.Equal(t, "Netflix", in.Name)
		assert.Equal(t, int64(1549), in.Cost.Cents)
		assert.Equal(t, core.Monthly, in.Cycle)
		assert.Equal(t, today, in.StartDate)
	})

	t.Run("form with start date", func(t *testing.T) {
		p := parserFor(t, "application/x-www-form-urlencoded", "name=Gym&cost=120%2C00&currency=EUR&cycle=Yearly&category=Health&start_date=2024-01-05")
		in, err := parseNewSubscription(p, today)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), in.Cost.Cents)
		assert.Equal(t, core.Yearly, in.Cycle)
		assert.Equal(t, core.NewDate(2024, 1, 5), in.StartDate)
	})

	t.Run("bad cost", func(t *testing.T) {
		p := parserFor(t, "application/json", `{"name":"X","cost":"abc"}`)
		_, err := parseNewSubscription(p, today)
		assert.True(t, errors.Is(err, errBadInput))
	})

	t.Run("bad start date", func(t *testing.T) {
		p := parserFor(t, "application/json", `{"name":"X","cost":"1","start_date":"2024-02-31"}`)
		_, err := parseNewSubscription(p, today)
		assert.True(t, errors.Is(err, errBadInput))
	})
}

func TestParseDashboardOptions(t *testing.T) {
	asOf := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions?view=yearly&tradeoff=meal", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	opts, err := parseDashboardOptions(req, core.LocaleEN, asOf)
	require.NoError(t, err)
	assert.Equal(t, core.ViewYearly, opts.View)
	assert.Equal(t, core.TradeOffMeal, opts.TradeOff)
	assert.Equal(t, core.LocaleDE, opts.Locale)
	assert.Equal(t, asOf, opts.AsOf)

	req = httptest.NewRequest(http.MethodGet, "/api/subscriptions?lang=tr", nil)
	opts, err = parseDashboardOptions(req, core.LocaleEN, asOf)
	require.NoError(t, err)
	assert.Equal(t, core.ViewMonthly, opts.View)
	assert.Equal(t, core.TradeOffCoffee, opts.TradeOff)
	assert.Equal(t, core.LocaleTR, opts.Locale)

	req = httptest.NewRequest(http.MethodGet, "/api/subscriptions?view=weekly", nil)
	_, err = parseDashboardOptions(req, core.LocaleEN, asOf)
	assert.ErrorIs(t, err, core.ErrInvalidView)

	req = httptest.NewRequest(http.MethodGet, "/api/subscriptions?tradeoff=yacht", nil)
	_, err = parseDashboardOptions(req, core.LocaleEN, asOf)
	assert.ErrorIs(t, err, core.ErrUnknownTradeOff)
}
