package core

// Vibe is a coarse spending label derived from the monthly total.
type Vibe string

const (
	VibeLow    Vibe = "low"
	VibeMedium Vibe = "medium"
	VibeHigh   Vibe = "high"
)

// CategoryAmount is a reference-currency amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
}

// Summary aggregates a subscription set in the reference currency.
type Summary struct {
	View         ViewMode         `json:"view"`
	Total        float64          `json:"total"`
	MonthlyTotal float64          `json:"monthly_total"`
	ByCategory   []CategoryAmount `json:"by_category"`
	Vibe         Vibe             `json:"vibe"`
	Count        int              `json:"count"`
}
