package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ica/internal/logger"
	"ica/internal/quote"
)

const quotesLatestPath = "/v2/cryptocurrency/quotes/latest"

// CMC quotes carry no chain address; the metadata source fills this in later.
const tokenAddressPlaceholder = "0x0"

// Client implements quote.Provider against the CoinMarketCap v2 API.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ quote.Provider = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	final := cfg.withDefaults()
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.ProxyURL != "" {
		proxyURL, err := url.Parse(final.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid cmc proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	return &Client{cfg: final, http: httpClient}, nil
}

type quoteUSD struct {
	Price           float64  `json:"price"`
	Volume24h       float64  `json:"volume_24h"`
	VolumeChange24h float64  `json:"volume_change_24h"`
	PercentChange1h float64  `json:"percent_change_1h"`
	PercentChange24 float64  `json:"percent_change_24h"`
	PercentChange7d float64  `json:"percent_change_7d"`
	PercentChange30 float64  `json:"percent_change_30d"`
	MarketCap       *float64 `json:"market_cap"`
}

type tokenEntry struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
	Quote  struct {
		USD quoteUSD `json:"USD"`
	} `json:"quote"`
}

type envelope struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data json.RawMessage `json:"data"`
}

// QuotesByID fetches latest stats for a batch of numeric token ids in a
// single request. A non-zero envelope error code means no data for the whole
// batch; every requested id is then unresolved.
func (c *Client) QuotesByID(ctx context.Context, ids []int64) ([]quote.TokenStat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	env, err := c.quotesLatest(ctx, url.Values{"id": {strings.Join(parts, ",")}})
	if err != nil {
		return nil, err
	}

	var data map[string]tokenEntry
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("cmc: decoding quotes payload failed: %w", err)
	}
	out := make([]quote.TokenStat, 0, len(data))
	for _, id := range ids {
		entry, ok := data[strconv.FormatInt(id, 10)]
		if !ok {
			logger.Warnf("[cmc] no entry for id=%d in quotes response", id)
			continue
		}
		out = append(out, entry.toStat())
	}
	return out, nil
}

// QuotesBySymbol fetches latest stats for ticker symbols. Symbols may map to
// several listings; every listing is returned.
func (c *Client) QuotesBySymbol(ctx context.Context, symbols []string) ([]quote.TokenStat, error) {
	cleaned := cleanSymbols(symbols)
	if len(cleaned) == 0 {
		return nil, nil
	}
	env, err := c.quotesLatest(ctx, url.Values{"symbol": {strings.Join(cleaned, ",")}})
	if err != nil {
		return nil, err
	}

	var data map[string][]tokenEntry
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("cmc: decoding symbol quotes payload failed: %w", err)
	}
	var out []quote.TokenStat
	for _, sym := range cleaned {
		for _, entry := range data[sym] {
			out = append(out, entry.toStat())
		}
	}
	return out, nil
}

// IDsBySymbol resolves a ticker symbol to its numeric ids. Used as a
// fallback when the primary metadata source does not know the symbol.
func (c *Client) IDsBySymbol(ctx context.Context, symbol string) ([]int64, error) {
	stats, err := c.QuotesBySymbol(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.ID)
	}
	return ids, nil
}

func (c *Client) quotesLatest(ctx context.Context, params url.Values) (*envelope, error) {
	endpoint := c.cfg.BaseURL + quotesLatestPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cmc: quotes/latest request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("cmc: decoding quotes/latest response failed: %w", err)
	}
	if env.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("cmc: quotes/latest error_code=%d: %s", env.Status.ErrorCode, env.Status.ErrorMessage)
	}
	return &env, nil
}

func (e tokenEntry) toStat() quote.TokenStat {
	usd := e.Quote.USD
	marketCap := 0.0
	if usd.MarketCap != nil {
		marketCap = *usd.MarketCap
	}
	return quote.TokenStat{
		ID:              e.ID,
		Symbol:          e.Symbol,
		PriceUSD:        usd.Price,
		Volume24h:       usd.Volume24h,
		VolumeChange24h: usd.VolumeChange24h,
		PercentChange1h: usd.PercentChange1h,
		PercentChange24: usd.PercentChange24,
		PercentChange7d: usd.PercentChange7d,
		PercentChange30: usd.PercentChange30,
		MarketCap:       marketCap,
		TokenAddress:    tokenAddressPlaceholder,
	}
}

func cleanSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
