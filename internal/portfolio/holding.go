package portfolio

import "time"

// Holding is one ledger row. Amount is signed: positive is a long position,
// negative a short, zero a closed position whose row is retained so its
// signal history stays queryable.
//
// SignalPrice is the cost basis and moves only on weighted-average
// accumulation or a basis reset; LastPrice always tracks the most recent
// observed market price, independently of the basis.
type Holding struct {
	Symbol          string    `json:"symbol"`
	TokenAddress    string    `json:"token_address"`
	Amount          float64   `json:"amount"`
	SignalPrice     float64   `json:"signal_price"`
	SignalTimestamp time.Time `json:"signal_timestamp"`
	LastPrice       float64   `json:"last_price"`
	TokenID         int64     `json:"token_id"`
}

// MetricsRow is the per-symbol performance snapshot derived each metrics
// cycle. Rows are recomputed from scratch every cycle and replace the
// previous set on the stored document.
type MetricsRow struct {
	Symbol              string  `json:"symbol"`
	SignalPrice         float64 `json:"signal_price"`
	LastPrice           float64 `json:"last_price"`
	Amount              float64 `json:"token_amount"`
	PnL                 float64 `json:"pnl"`
	CumulativeReturn    float64 `json:"cumulative_return"`
	DailyReturn         float64 `json:"daily_return"`
	Volatility          float64 `json:"volatility"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	HoldingDurationDays int     `json:"holding_duration_days"`
}
