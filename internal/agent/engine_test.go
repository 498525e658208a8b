package agent

import (
	"context"
	"errors"
	"testing"

	"ica/internal/quote"
	"ica/internal/risk"
	"ica/internal/signal"
	"ica/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotes struct {
	statsByID   map[int64]quote.TokenStat
	idsBySymbol map[string][]int64
	quotesErr   error
	idsErr      error
	quoteCalls  int
}

func (f *fakeQuotes) QuotesByID(_ context.Context, ids []int64) ([]quote.TokenStat, error) {
	f.quoteCalls++
	if f.quotesErr != nil {
		return nil, f.quotesErr
	}
	var out []quote.TokenStat
	for _, id := range ids {
		if st, ok := f.statsByID[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeQuotes) QuotesBySymbol(context.Context, []string) ([]quote.TokenStat, error) {
	return nil, nil
}

func (f *fakeQuotes) IDsBySymbol(_ context.Context, symbol string) ([]int64, error) {
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	return f.idsBySymbol[symbol], nil
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) SendText(text string) error {
	n.sent = append(n.sent, text)
	return n.err
}

func safeStat(id int64, symbol string, price float64) quote.TokenStat {
	return quote.TokenStat{
		ID: id, Symbol: symbol, PriceUSD: price,
		Volume24h: 900_000, PercentChange24: 3, MarketCap: 5_000_000,
		TokenAddress: "0x0",
	}
}

func newTestEngine(quotes quote.Provider, st *memstore.Store, n *recordingNotifier) *Engine {
	if n == nil {
		return NewEngine(Config{AgentID: "agent-1"}, risk.New(0, 0, 0), quotes, st, nil)
	}
	return NewEngine(Config{AgentID: "agent-1"}, risk.New(0, 0, 0), quotes, st, n)
}

func TestProcessSignal_BuyOpensPosition(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"LINK": {1975}},
		statsByID:   map[int64]quote.TokenStat{1975: safeStat(1975, "LINK", 12.5)},
	}
	notify := &recordingNotifier{}
	eng := newTestEngine(quotes, st, notify)

	res, err := eng.ProcessSignal(context.Background(), signal.Signal{Symbol: "link", Direction: signal.DirectionBuy})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, res.Status)
	assert.Equal(t, "LINK", res.Symbol)
	assert.InDelta(t, DefaultTradeSize, res.Amount, 1e-12)
	assert.NotEmpty(t, res.TraceID)

	doc, ok, err := st.FindByAgent(context.Background(), "agent-1")
	require.NoError(t, err)
	require.True(t, ok)
	h := doc.Details["LINK"]
	assert.InDelta(t, 0.1, h.Amount, 1e-12)
	assert.Equal(t, 12.5, h.SignalPrice)
	assert.Equal(t, int64(1975), h.TokenID)
	require.Len(t, notify.sent, 1)
	assert.Contains(t, notify.sent[0], "LINK")
}

func TestProcessSignal_SellIsNegative(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"SOL": {5426}},
		statsByID:   map[int64]quote.TokenStat{5426: safeStat(5426, "SOL", 140)},
	}
	eng := newTestEngine(quotes, st, nil)

	res, err := eng.ProcessSignal(context.Background(), signal.Signal{Symbol: "SOL", Direction: signal.DirectionSell})
	require.NoError(t, err)
	assert.InDelta(t, -DefaultTradeSize, res.Amount, 1e-12)

	doc, _, _ := st.FindByAgent(context.Background(), "agent-1")
	assert.InDelta(t, -0.1, doc.Details["SOL"].Amount, 1e-12)
}

func TestProcessSignal_AccumulatesAveragesBasis(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"LINK": {1975}},
		statsByID:   map[int64]quote.TokenStat{1975: safeStat(1975, "LINK", 100)},
	}
	eng := newTestEngine(quotes, st, nil)
	ctx := context.Background()

	_, err := eng.ProcessSignal(ctx, signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.NoError(t, err)

	quotes.statsByID[1975] = safeStat(1975, "LINK", 200)
	_, err = eng.ProcessSignal(ctx, signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.NoError(t, err)

	doc, _, _ := st.FindByAgent(ctx, "agent-1")
	h := doc.Details["LINK"]
	assert.InDelta(t, 0.2, h.Amount, 1e-12)
	assert.InDelta(t, 150, h.SignalPrice, 1e-9)
}

func TestProcessSignal_Hold(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{}
	eng := newTestEngine(quotes, st, nil)

	res, err := eng.ProcessSignal(context.Background(), signal.Signal{Symbol: "LINK", Direction: signal.DirectionHold})
	require.NoError(t, err)
	assert.Equal(t, StatusHold, res.Status)
	assert.Zero(t, quotes.quoteCalls)
	_, ok, _ := st.FindByAgent(context.Background(), "agent-1")
	assert.False(t, ok, "hold must not touch the store")
}

func TestProcessSignal_UnresolvedSymbol(t *testing.T) {
	st := memstore.New()
	eng := newTestEngine(&fakeQuotes{}, st, nil)

	res, err := eng.ProcessSignal(context.Background(), signal.Signal{Symbol: "NOPE", Direction: signal.DirectionBuy})
	require.ErrorIs(t, err, ErrSymbolUnresolved)
	assert.Equal(t, StatusUnresolved, res.Status)
	_, ok, _ := st.FindByAgent(context.Background(), "agent-1")
	assert.False(t, ok)
}

func TestProcessSignal_NoSafeToken(t *testing.T) {
	st := memstore.New()
	risky := safeStat(1975, "LINK", 12.5)
	risky.MarketCap = 10_000
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"LINK": {1975}},
		statsByID:   map[int64]quote.TokenStat{1975: risky},
	}
	eng := newTestEngine(quotes, st, nil)

	res, err := eng.ProcessSignal(context.Background(), signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.ErrorIs(t, err, ErrNoSafeToken)
	assert.Equal(t, StatusNoSafeToken, res.Status)
	_, ok, _ := st.FindByAgent(context.Background(), "agent-1")
	assert.False(t, ok)
}

func TestProcessSignal_KnownTokenSkipsSymbolLookup(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"LINK": {1975}},
		statsByID:   map[int64]quote.TokenStat{1975: safeStat(1975, "LINK", 100)},
	}
	eng := newTestEngine(quotes, st, nil)
	ctx := context.Background()

	_, err := eng.ProcessSignal(ctx, signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.NoError(t, err)

	// The second signal must resolve from the stored holding, not the API.
	quotes.idsErr = errors.New("symbol lookup must not be called")
	_, err = eng.ProcessSignal(ctx, signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.NoError(t, err)
}

func TestProcessSignal_NotifierFailureIsNotFatal(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"LINK": {1975}},
		statsByID:   map[int64]quote.TokenStat{1975: safeStat(1975, "LINK", 12.5)},
	}
	notify := &recordingNotifier{err: errors.New("telegram down")}
	eng := newTestEngine(quotes, st, notify)

	res, err := eng.ProcessSignal(context.Background(), signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, res.Status)
}

func TestRefreshMetrics(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"LINK": {1975}},
		statsByID:   map[int64]quote.TokenStat{1975: safeStat(1975, "LINK", 100)},
	}
	eng := newTestEngine(quotes, st, nil)
	ctx := context.Background()

	_, err := eng.ProcessSignal(ctx, signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.NoError(t, err)

	stat := safeStat(1975, "LINK", 120)
	stat.PercentChange7d = 5
	quotes.statsByID[1975] = stat

	require.NoError(t, eng.RefreshMetrics(ctx))

	doc, ok, err := st.FindByAgent(ctx, "agent-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 120.0, doc.Details["LINK"].LastPrice)
	require.Len(t, doc.Metrics, 1)
	assert.Equal(t, "LINK", doc.Metrics[0].Symbol)
	assert.InDelta(t, (120.0-100.0)*0.1, doc.Metrics[0].PnL, 1e-9)
}

func TestRefreshMetrics_EmptyPortfolio(t *testing.T) {
	eng := newTestEngine(&fakeQuotes{}, memstore.New(), nil)
	require.NoError(t, eng.RefreshMetrics(context.Background()))
}

func TestRefreshMetrics_QuoteOutageKeepsStalePrices(t *testing.T) {
	st := memstore.New()
	quotes := &fakeQuotes{
		idsBySymbol: map[string][]int64{"LINK": {1975}},
		statsByID:   map[int64]quote.TokenStat{1975: safeStat(1975, "LINK", 100)},
	}
	eng := newTestEngine(quotes, st, nil)
	ctx := context.Background()

	_, err := eng.ProcessSignal(ctx, signal.Signal{Symbol: "LINK", Direction: signal.DirectionBuy})
	require.NoError(t, err)

	quotes.quotesErr = errors.New("upstream down")
	require.NoError(t, eng.RefreshMetrics(ctx))

	doc, _, _ := st.FindByAgent(ctx, "agent-1")
	assert.Equal(t, 100.0, doc.Details["LINK"].LastPrice)
	assert.Empty(t, doc.Metrics)
}
