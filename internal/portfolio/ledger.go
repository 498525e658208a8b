package portfolio

import (
	"sort"
	"time"
)

// Ledger maps symbol to holding for one agent, preserving insertion order.
// It assumes single-writer semantics per agent: the host serializes signal
// processing and metrics refresh for the same agent id.
type Ledger struct {
	holdings map[string]Holding
	order    []string
}

func NewLedger() *Ledger {
	return &Ledger{holdings: make(map[string]Holding)}
}

// LedgerFromDetails rebuilds a ledger from a stored details map. Map order
// is not meaningful, so symbols are sorted for a stable iteration order.
func LedgerFromDetails(details map[string]Holding) *Ledger {
	l := NewLedger()
	symbols := make([]string, 0, len(details))
	for sym := range details {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		l.set(sym, details[sym])
	}
	return l
}

func (l *Ledger) set(symbol string, h Holding) {
	if _, ok := l.holdings[symbol]; !ok {
		l.order = append(l.order, symbol)
	}
	l.holdings[symbol] = h
}

func (l *Ledger) Get(symbol string) (Holding, bool) {
	h, ok := l.holdings[symbol]
	return h, ok
}

// Len reports the number of rows, closed positions included.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Symbols returns the symbols in insertion order.
func (l *Ledger) Symbols() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Holdings returns the rows in insertion order.
func (l *Ledger) Holdings() []Holding {
	out := make([]Holding, 0, len(l.order))
	for _, sym := range l.order {
		out = append(out, l.holdings[sym])
	}
	return out
}

// Details exports the ledger as a symbol-keyed map for persistence.
func (l *Ledger) Details() map[string]Holding {
	out := make(map[string]Holding, len(l.holdings))
	for sym, h := range l.holdings {
		out[sym] = h
	}
	return out
}

// ApplyOpenOrAdd opens a position or accumulates into an existing one.
// Accumulating while the running total stays positive moves the cost basis
// to the amount-weighted average of the old position and the incoming
// trade; LastPrice is marked at that blended basis rather than the raw
// fill. A total at or below zero is a flip or close-out and resets the
// basis to the incoming price.
func (l *Ledger) ApplyOpenOrAdd(symbol, tokenAddress string, amountDelta, price float64, ts time.Time, tokenID int64) {
	existing, ok := l.holdings[symbol]
	if !ok {
		l.set(symbol, Holding{
			Symbol:          symbol,
			TokenAddress:    tokenAddress,
			Amount:          amountDelta,
			SignalPrice:     price,
			SignalTimestamp: ts,
			LastPrice:       price,
			TokenID:         tokenID,
		})
		return
	}

	newTotal := existing.Amount + amountDelta
	averagePrice := price
	if newTotal > 0 {
		averagePrice = (existing.Amount*existing.SignalPrice + amountDelta*price) / newTotal
	}
	existing.TokenAddress = tokenAddress
	existing.Amount = newTotal
	existing.SignalPrice = averagePrice
	existing.LastPrice = averagePrice
	existing.TokenID = tokenID
	l.holdings[symbol] = existing
}

// ApplyClose flattens a position. The row stays in the ledger with a zero
// amount; the signal price and timestamp are overwritten with the closing
// trade so the basis does not survive a close-then-reopen.
func (l *Ledger) ApplyClose(symbol, tokenAddress string, price float64, ts time.Time, tokenID int64) {
	l.set(symbol, Holding{
		Symbol:          symbol,
		TokenAddress:    tokenAddress,
		Amount:          0,
		SignalPrice:     price,
		SignalTimestamp: ts,
		LastPrice:       price,
		TokenID:         tokenID,
	})
}

// Merge folds an incoming update into this (stored) ledger. For symbols
// already present the incoming amount and last observed price win outright;
// the signal price and timestamp only move when the incoming holding
// carries non-default values. Unknown symbols are inserted verbatim.
func (l *Ledger) Merge(incoming map[string]Holding) {
	symbols := make([]string, 0, len(incoming))
	for sym := range incoming {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		in := incoming[sym]
		stored, ok := l.holdings[sym]
		if !ok {
			l.set(sym, in)
			continue
		}
		stored.Amount = in.Amount
		stored.LastPrice = in.LastPrice
		if in.SignalPrice != 0 {
			stored.SignalPrice = in.SignalPrice
		}
		if !in.SignalTimestamp.IsZero() {
			stored.SignalTimestamp = in.SignalTimestamp
		}
		if in.TokenAddress != "" {
			stored.TokenAddress = in.TokenAddress
		}
		if in.TokenID != 0 {
			stored.TokenID = in.TokenID
		}
		l.holdings[sym] = stored
	}
}

// SetLastPrice updates only the last observed price for a symbol.
func (l *Ledger) SetLastPrice(symbol string, price float64) bool {
	h, ok := l.holdings[symbol]
	if !ok {
		return false
	}
	h.LastPrice = price
	l.holdings[symbol] = h
	return true
}
