package risk

import (
	"math"

	"ica/internal/quote"
)

// Default thresholds used when the config leaves them unset.
const (
	DefaultVolatilityThreshold = 20
	DefaultMarketCapMin        = 1_000_000
	DefaultVolumeThreshold     = 500_000
)

// Candidate is the slice of a market-data row the trading path cares about
// once a token has been vetted.
type Candidate struct {
	Symbol          string  `json:"symbol"`
	CoinMarketCapID int64   `json:"coinmarketcap_id"`
	PriceUSD        float64 `json:"price_usd"`
	MarketCap       float64 `json:"market_cap"`
	TokenAddress    string  `json:"token_address"`
}

// Classification partitions candidates into the two risk buckets. It is
// recomputed per signal and never persisted.
type Classification struct {
	Safe  []Candidate `json:"safe"`
	Risky []Candidate `json:"risky"`
}

// Classifier decides whether a token is tradeable. A row is risky when its
// 24h move exceeds VolatilityThreshold, its market cap is below MarketCapMin,
// or its 24h volume is below VolumeThreshold. A zero-valued classifier
// rejects everything; use New for sensible defaults.
type Classifier struct {
	VolatilityThreshold float64
	MarketCapMin        float64
	VolumeThreshold     float64
}

func New(volatilityThreshold, marketCapMin, volumeThreshold float64) Classifier {
	if volatilityThreshold <= 0 {
		volatilityThreshold = DefaultVolatilityThreshold
	}
	if marketCapMin <= 0 {
		marketCapMin = DefaultMarketCapMin
	}
	if volumeThreshold <= 0 {
		volumeThreshold = DefaultVolumeThreshold
	}
	return Classifier{
		VolatilityThreshold: volatilityThreshold,
		MarketCapMin:        marketCapMin,
		VolumeThreshold:     volumeThreshold,
	}
}

// Classify partitions rows into safe and risky buckets. A missing market cap
// arrives as 0 and lands the row in the risky bucket, so incomplete data
// can never qualify a token.
func (c Classifier) Classify(rows []quote.TokenStat) Classification {
	var out Classification
	for _, row := range rows {
		cand := Candidate{
			Symbol:          row.Symbol,
			CoinMarketCapID: row.ID,
			PriceUSD:        row.PriceUSD,
			MarketCap:       row.MarketCap,
			TokenAddress:    row.TokenAddress,
		}
		if math.Abs(row.PercentChange24) > c.VolatilityThreshold ||
			row.MarketCap < c.MarketCapMin ||
			row.Volume24h < c.VolumeThreshold {
			out.Risky = append(out.Risky, cand)
		} else {
			out.Safe = append(out.Safe, cand)
		}
	}
	return out
}

// Evaluate classifies rows and picks the safe candidate with the lowest
// market cap; ties keep the first row encountered. Returns false when no
// row qualifies, which means "do not trade".
//
// Lowest cap is a deliberate product choice here, not an oversight: the
// agent hunts the smallest token that still clears every risk gate.
func (c Classifier) Evaluate(rows []quote.TokenStat) (Candidate, bool) {
	classified := c.Classify(rows)
	if len(classified.Safe) == 0 {
		return Candidate{}, false
	}
	best := classified.Safe[0]
	for _, cand := range classified.Safe[1:] {
		if cand.MarketCap < best.MarketCap {
			best = cand
		}
	}
	return best, true
}
