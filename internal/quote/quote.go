package quote

import "context"

// TokenStat is one market-data row for a token, as returned by a quote
// provider. MarketCap may be absent upstream; providers normalize a missing
// value to 0 so downstream risk checks stay conservative.
type TokenStat struct {
	ID              int64   `json:"coinmarketcap_id"`
	Symbol          string  `json:"symbol"`
	PriceUSD        float64 `json:"price_usd"`
	Volume24h       float64 `json:"volume_24h"`
	VolumeChange24h float64 `json:"volume_change_24h"`
	PercentChange1h float64 `json:"percent_change_1h"`
	PercentChange24 float64 `json:"percent_change_24h"`
	PercentChange7d float64 `json:"percent_change_7d"`
	PercentChange30 float64 `json:"percent_change_30d"`
	MarketCap       float64 `json:"marketcap"`
	TokenAddress    string  `json:"token_address"`
}

// Provider resolves token market data from an external quote service.
// A failed or empty lookup is reported as an error; callers treat the
// affected tokens as unresolved and continue.
type Provider interface {
	// QuotesByID fetches stats for a batch of numeric token ids in one call.
	QuotesByID(ctx context.Context, ids []int64) ([]TokenStat, error)
	// QuotesBySymbol fetches stats for a batch of ticker symbols.
	QuotesBySymbol(ctx context.Context, symbols []string) ([]TokenStat, error)
	// IDsBySymbol resolves a ticker symbol to its numeric ids.
	IDsBySymbol(ctx context.Context, symbol string) ([]int64, error)
}
