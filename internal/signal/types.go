package signal

import "context"

// Direction is the action a signal requests for a token.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
	DirectionHold Direction = "hold"
)

// Valid reports whether d is one of the recognized directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionBuy, DirectionSell, DirectionHold:
		return true
	}
	return false
}

// Signal is one trading instruction: a ticker symbol and what to do with it.
type Signal struct {
	Symbol    string    `json:"token_symbol"`
	Direction Direction `json:"direction"`
}

// Generator produces fresh signals, typically by prompting a model.
type Generator interface {
	Generate(ctx context.Context, watchlist []string) ([]Signal, error)
}

// Retriever yields signals from an external queue or feed.
type Retriever interface {
	Next(ctx context.Context) ([]Signal, error)
}
