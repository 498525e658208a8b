package portfolio

import (
	"context"
	"time"

	"ica/internal/logger"
	"ica/internal/quote"
)

// MetricsEngine derives per-symbol performance rows from a ledger and fresh
// quotes. It has no state beyond the clock, which is injectable for tests.
type MetricsEngine struct {
	Now func() time.Time
}

func NewMetricsEngine() *MetricsEngine {
	return &MetricsEngine{Now: time.Now}
}

// ComputeAll produces one row per holding whose token id resolved a quote,
// in ledger insertion order. Token ids are batched into a single provider
// call; a symbol the provider cannot price is skipped and logged, never
// fatal. A provider error unresolves the entire batch and yields zero rows.
func (e *MetricsEngine) ComputeAll(ctx context.Context, ledger *Ledger, quotes quote.Provider) ([]MetricsRow, error) {
	if ledger == nil || ledger.Len() == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	holdings := ledger.Holdings()
	ids := make([]int64, 0, len(holdings))
	for _, h := range holdings {
		if h.TokenID != 0 {
			ids = append(ids, h.TokenID)
		}
	}

	statsByID := make(map[int64]quote.TokenStat, len(ids))
	if len(ids) > 0 {
		stats, err := quotes.QuotesByID(ctx, ids)
		if err != nil {
			logger.Warnf("metrics: quote batch failed, all %d symbols unresolved: %v", len(ids), err)
		} else {
			for _, st := range stats {
				statsByID[st.ID] = st
			}
		}
	}

	now := e.now()
	rows := make([]MetricsRow, 0, len(holdings))
	for _, h := range holdings {
		st, ok := statsByID[h.TokenID]
		if !ok {
			logger.Warnf("metrics: no quote for %s (token_id=%d), skipping", h.Symbol, h.TokenID)
			continue
		}
		rows = append(rows, computeRow(h, st, now))
	}
	return rows, nil
}

func computeRow(h Holding, st quote.TokenStat, now time.Time) MetricsRow {
	series := SyntheticWeekSeries(st.PriceUSD, st.PercentChange7d)
	returns := periodReturns(series)
	volatility := stddev(returns)
	meanReturn := mean(returns)

	sharpe := 0.0
	if volatility != 0 {
		sharpe = meanReturn / volatility
	}

	cumulativeReturn := 0.0
	if h.SignalPrice != 0 {
		cumulativeReturn = ((h.LastPrice - h.SignalPrice) / h.SignalPrice) * sign(h.Amount)
	}

	holdingDays := int(now.Sub(h.SignalTimestamp).Hours() / 24)
	if holdingDays < 1 {
		holdingDays = 1
	}
	dailyReturn := cumulativeReturn / float64(holdingDays)

	maxPrice := h.SignalPrice
	minPrice := h.LastPrice
	if h.LastPrice > h.SignalPrice {
		maxPrice, minPrice = h.LastPrice, h.SignalPrice
	}
	maxDrawdown := 0.0
	if maxPrice != 0 {
		maxDrawdown = (maxPrice - minPrice) / maxPrice
	}

	// PnL carries its own direction through the signed amount; it is kept
	// separate from the sign-corrected cumulative return above because the
	// two values feed independent consumers.
	pnl := (h.LastPrice - h.SignalPrice) * h.Amount

	return MetricsRow{
		Symbol:              h.Symbol,
		SignalPrice:         h.SignalPrice,
		LastPrice:           h.LastPrice,
		Amount:              h.Amount,
		PnL:                 pnl,
		CumulativeReturn:    cumulativeReturn,
		DailyReturn:         dailyReturn,
		Volatility:          volatility,
		SharpeRatio:         sharpe,
		MaxDrawdown:         maxDrawdown,
		HoldingDurationDays: holdingDays,
	}
}

func (e *MetricsEngine) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
