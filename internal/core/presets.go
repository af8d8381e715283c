package core

// ServicePreset pre-fills the add form for a well known service.
type ServicePreset struct {
	Name     string       `json:"name"`
	Cost     Money        `json:"-"`
	Currency CurrencyCode `json:"currency"`
	Category Category     `json:"category"`
	Color    string       `json:"color"`
	Icon     string       `json:"icon"`
}

var presets = []ServicePreset{
	{Name: "Netflix", Cost: Money{Cents: 1549}, Currency: USD, Category: Entertainment, Color: "#E50914", Icon: "fa-brands fa-netflix"},
	{Name: "Spotify", Cost: Money{Cents: 1099}, Currency: USD, Category: Music, Color: "#1DB954", Icon: "fa-brands fa-spotify"},
	{Name: "YouTube", Cost: Money{Cents: 1399}, Currency: USD, Category: Entertainment, Color: "#FF0000", Icon: "fa-brands fa-youtube"},
	{Name: "Amazon Prime", Cost: Money{Cents: 1499}, Currency: USD, Category: Shopping, Color: "#00A8E1", Icon: "fa-brands fa-amazon"},
	{Name: "Steam", Cost: Money{Cents: 1000}, Currency: USD, Category: Entertainment, Color: "#171A21", Icon: "fa-brands fa-steam"},
	{Name: "Apple", Cost: Money{Cents: 1099}, Currency: USD, Category: Utilities, Color: "#A2AAAD", Icon: "fa-brands fa-apple"},
}

func Presets() []ServicePreset {
	out := make([]ServicePreset, len(presets))
	copy(out, presets)
	return out
}

// Template returns a monthly subscription input for the preset starting on start.
func (p ServicePreset) Template(start Date) NewSubscription {
	return NewSubscription{
		Name:      p.Name,
		Cost:      p.Cost,
		Currency:  p.Currency,
		Cycle:     Monthly,
		Category:  p.Category,
		StartDate: start,
		Color:     p.Color,
	}
}
