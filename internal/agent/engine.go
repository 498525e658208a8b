package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ica/internal/gateway/notifier"
	"ica/internal/logger"
	"ica/internal/portfolio"
	"ica/internal/quote"
	"ica/internal/risk"
	"ica/internal/signal"
	"ica/internal/store"

	"github.com/google/uuid"
)

// DefaultTradeSize is the position delta applied per executed signal when the
// config leaves trading.trade_size unset.
const DefaultTradeSize = 0.1

// TradeStatus summarizes what a processed signal did.
type TradeStatus string

const (
	StatusExecuted    TradeStatus = "executed"
	StatusHold        TradeStatus = "hold"
	StatusUnresolved  TradeStatus = "unresolved"
	StatusNoSafeToken TradeStatus = "no_safe_token"
)

// TradeResult reports the outcome of one signal.
type TradeResult struct {
	TraceID   string           `json:"trace_id"`
	AgentID   string           `json:"agent_id"`
	Symbol    string           `json:"symbol"`
	Direction signal.Direction `json:"direction"`
	Status    TradeStatus      `json:"status"`
	Amount    float64          `json:"amount,omitempty"`
	Price     float64          `json:"price,omitempty"`
	MarketCap float64          `json:"market_cap,omitempty"`
	TokenID   int64            `json:"token_id,omitempty"`
}

// Config carries the engine's tunables.
type Config struct {
	AgentID   string
	TradeSize float64
}

// Engine executes trading signals and maintains one agent's portfolio.
// It is a single writer per agent id; the host serializes calls.
type Engine struct {
	agentID   string
	tradeSize float64

	risk     risk.Classifier
	quotes   quote.Provider
	store    store.PortfolioStore
	notifier notifier.TextNotifier
	metrics  *portfolio.MetricsEngine

	now func() time.Time
}

func NewEngine(cfg Config, classifier risk.Classifier, quotes quote.Provider, st store.PortfolioStore, notify notifier.TextNotifier) *Engine {
	size := cfg.TradeSize
	if size <= 0 {
		size = DefaultTradeSize
	}
	return &Engine{
		agentID:   strings.TrimSpace(cfg.AgentID),
		tradeSize: size,
		risk:      classifier,
		quotes:    quotes,
		store:     st,
		notifier:  notify,
		metrics:   portfolio.NewMetricsEngine(),
		now:       time.Now,
	}
}

// ProcessSignal turns one signal into a ledger mutation. Hold signals, an
// unresolvable symbol, and a risk rejection are all no-ops; only the latter
// two also surface a sentinel error so callers can tell the cases apart.
func (e *Engine) ProcessSignal(ctx context.Context, sig signal.Signal) (TradeResult, error) {
	result := TradeResult{
		TraceID:   uuid.NewString(),
		AgentID:   e.agentID,
		Symbol:    strings.ToUpper(strings.TrimSpace(sig.Symbol)),
		Direction: sig.Direction,
	}
	if result.Symbol == "" {
		return result, fmt.Errorf("signal has no symbol")
	}
	if !sig.Direction.Valid() {
		return result, fmt.Errorf("unknown signal direction %q", sig.Direction)
	}
	if sig.Direction == signal.DirectionHold {
		result.Status = StatusHold
		logger.Infof("[agent %s] trace=%s hold signal for %s, nothing to do", e.agentID, result.TraceID, result.Symbol)
		return result, nil
	}

	doc, _, err := e.store.FindByAgent(ctx, e.agentID)
	if err != nil {
		return result, fmt.Errorf("loading portfolio failed: %w", err)
	}
	stored := portfolio.LedgerFromDetails(doc.Details)

	ids, err := e.resolveTokenIDs(ctx, stored, result.Symbol)
	if err != nil {
		return result, err
	}
	if len(ids) == 0 {
		result.Status = StatusUnresolved
		logger.Warnf("[agent %s] trace=%s symbol %s resolved to no token ids", e.agentID, result.TraceID, result.Symbol)
		return result, ErrSymbolUnresolved
	}

	stats, err := e.quotes.QuotesByID(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("fetching quotes for %s failed: %w", result.Symbol, err)
	}
	cand, ok := e.risk.Evaluate(stats)
	if !ok {
		result.Status = StatusNoSafeToken
		logger.Infof("[agent %s] trace=%s no listing of %s passed the risk gates", e.agentID, result.TraceID, result.Symbol)
		return result, ErrNoSafeToken
	}

	amount := e.tradeSize
	if sig.Direction == signal.DirectionSell {
		amount = -amount
	}

	working := portfolio.LedgerFromDetails(stored.Details())
	working.ApplyOpenOrAdd(result.Symbol, cand.TokenAddress, amount, cand.PriceUSD, e.now(), cand.CoinMarketCapID)
	stored.Merge(working.Details())

	if err := e.store.Upsert(ctx, e.agentID, stored.Details(), nil); err != nil {
		return result, fmt.Errorf("persisting portfolio failed: %w", err)
	}

	result.Status = StatusExecuted
	result.Amount = amount
	result.Price = cand.PriceUSD
	result.MarketCap = cand.MarketCap
	result.TokenID = cand.CoinMarketCapID
	logger.Infof("[agent %s] trace=%s %s %s amount=%.4f price=%.6f token_id=%d",
		e.agentID, result.TraceID, sig.Direction, result.Symbol, amount, cand.PriceUSD, cand.CoinMarketCapID)

	e.notify(result)
	return result, nil
}

// resolveTokenIDs prefers the token id already stored on the holding and only
// falls back to a symbol lookup for unseen tokens.
func (e *Engine) resolveTokenIDs(ctx context.Context, stored *portfolio.Ledger, symbol string) ([]int64, error) {
	if h, ok := stored.Get(symbol); ok && h.TokenID != 0 {
		return []int64{h.TokenID}, nil
	}
	ids, err := e.quotes.IDsBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("resolving %s failed: %w", symbol, err)
	}
	return ids, nil
}

// RefreshMetrics re-marks every holding at the latest quote and recomputes
// the derived metrics. A quote outage degrades to stale prices and empty
// metrics rather than an error.
func (e *Engine) RefreshMetrics(ctx context.Context) error {
	doc, ok, err := e.store.FindByAgent(ctx, e.agentID)
	if err != nil {
		return fmt.Errorf("loading portfolio failed: %w", err)
	}
	if !ok || len(doc.Details) == 0 {
		return nil
	}
	ledger := portfolio.LedgerFromDetails(doc.Details)

	e.refreshLastPrices(ctx, ledger)
	if err := e.store.Upsert(ctx, e.agentID, ledger.Details(), nil); err != nil {
		return fmt.Errorf("persisting refreshed prices failed: %w", err)
	}

	rows, err := e.metrics.ComputeAll(ctx, ledger, e.quotes)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []portfolio.MetricsRow{}
	}
	if err := e.store.Upsert(ctx, e.agentID, ledger.Details(), rows); err != nil {
		return fmt.Errorf("persisting metrics failed: %w", err)
	}
	logger.Infof("[agent %s] metrics refreshed for %d holdings, %d rows", e.agentID, ledger.Len(), len(rows))
	return nil
}

func (e *Engine) refreshLastPrices(ctx context.Context, ledger *portfolio.Ledger) {
	var ids []int64
	for _, h := range ledger.Holdings() {
		if h.TokenID != 0 {
			ids = append(ids, h.TokenID)
		}
	}
	if len(ids) == 0 {
		return
	}
	stats, err := e.quotes.QuotesByID(ctx, ids)
	if err != nil {
		logger.Warnf("[agent %s] price refresh failed, keeping stale prices: %v", e.agentID, err)
		return
	}
	byID := make(map[int64]quote.TokenStat, len(stats))
	for _, st := range stats {
		byID[st.ID] = st
	}
	for _, h := range ledger.Holdings() {
		st, ok := byID[h.TokenID]
		if !ok {
			continue
		}
		ledger.SetLastPrice(h.Symbol, st.PriceUSD)
	}
}

func (e *Engine) notify(res TradeResult) {
	if e.notifier == nil {
		return
	}
	text := fmt.Sprintf("*%s* %s %s\namount=%.4f price=%.6f\ntrace=%s",
		res.AgentID, res.Direction, res.Symbol, res.Amount, res.Price, res.TraceID)
	if err := e.notifier.SendText(text); err != nil {
		logger.Warnf("[agent %s] notify failed: %v", e.agentID, err)
	}
}
