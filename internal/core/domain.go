package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Monthly Cycle = "monthly"
	Yearly  Cycle = "yearly"
)

const (
	ViewMonthly ViewMode = "monthly"
	ViewYearly  ViewMode = "yearly"
)

const (
	Entertainment Category = "Entertainment"
	Music         Category = "Music"
	Utilities     Category = "Utilities"
	Work          Category = "Work"
	Shopping      Category = "Shopping"
	Health        Category = "Health"
	Other         Category = "Other"
)

// MaxNameLength bounds subscription names, counted in characters.
const MaxNameLength = 200

const dateLayout = "2006-01-02"

type (
	// Cycle is the billing frequency of a subscription.
	Cycle string

	// ViewMode selects the period totals are expressed in.
	ViewMode string

	Category string

	// Date is a calendar date stored as midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Subscription is a persisted recurring expense owned by one user.
	Subscription struct {
		ID              string
		Name            string
		Cost            Money
		Currency        CurrencyCode
		Cycle           Cycle
		Category        Category
		NextBillingDate Date
		Color           string
		CreatedAt       time.Time
	}

	// NewSubscription is the user input for a subscription before the
	// billing date has been rolled forward.
	NewSubscription struct {
		Name      string
		Cost      Money
		Currency  CurrencyCode
		Cycle     Cycle
		Category  Category
		StartDate Date
		Color     string
	}

	User struct {
		ID          string
		Email       string
		DisplayName string
		AvatarURL   string
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = fmt.Errorf("name too long (max %d characters)", MaxNameLength)
	ErrInvalidCycle    = errors.New("invalid billing cycle")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidView     = errors.New("invalid view mode")
	ErrEmptyUserID     = errors.New("empty user id")
)

// Categories lists every category in display order.
var Categories = []Category{Entertainment, Music, Utilities, Work, Shopping, Health, Other}

// Cycles lists the supported billing cycles.
var Cycles = []Cycle{Monthly, Yearly}

func (c Cycle) IsValid() bool {
	return c == Monthly || c == Yearly
}

func (v ViewMode) IsValid() bool {
	return v == ViewMonthly || v == ViewYearly
}

// ParseViewMode maps an empty value to the monthly view.
func ParseViewMode(s string) (ViewMode, error) {
	v := ViewMode(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return ViewMonthly, nil
	}
	if !v.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
	return v, nil
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate accepts zero: free subscriptions are allowed.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (n NewSubscription) Validate() error {
	if err := validateName(n.Name); err != nil {
		return err
	}
	if err := n.Cost.Validate(); err != nil {
		return err
	}
	if _, err := LookupRate(n.Currency); err != nil {
		return err
	}
	if !n.Cycle.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCycle, n.Cycle)
	}
	if !n.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, n.Category)
	}
	if err := n.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	return nil
}

// Normalize trims free text fields.
func (n NewSubscription) Normalize() NewSubscription {
	n.Name = strings.TrimSpace(n.Name)
	n.Color = strings.TrimSpace(n.Color)
	n.Currency = CurrencyCode(strings.ToUpper(strings.TrimSpace(string(n.Currency))))
	return n
}

// Validate checks a stored subscription. Currency is not checked here:
// stored records with unknown codes are still readable.
func (s Subscription) Validate() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	if err := s.Cost.Validate(); err != nil {
		return err
	}
	if !s.Cycle.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCycle, s.Cycle)
	}
	if !s.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, s.Category)
	}
	return s.NextBillingDate.Validate()
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyUserID
	}
	return nil
}
