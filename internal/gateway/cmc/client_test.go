package cmc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quotesByIDPayload = `{
  "status": {"error_code": 0, "error_message": null},
  "data": {
    "1975": {
      "id": 1975,
      "symbol": "LINK",
      "quote": {"USD": {
        "price": 12.5,
        "volume_24h": 800000,
        "percent_change_24h": 4.2,
        "percent_change_7d": 7.0,
        "market_cap": 7500000
      }}
    },
    "5426": {
      "id": 5426,
      "symbol": "SOL",
      "quote": {"USD": {
        "price": 140.0,
        "volume_24h": 900000,
        "percent_change_24h": -2.0,
        "percent_change_7d": -3.5,
        "market_cap": null
      }}
    }
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return client, srv
}

func TestQuotesByID(t *testing.T) {
	var gotKey, gotIDs string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-CMC_PRO_API_KEY")
		gotIDs = r.URL.Query().Get("id")
		fmt.Fprint(w, quotesByIDPayload)
	})

	stats, err := client.QuotesByID(context.Background(), []int64{1975, 5426})
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "1975,5426", gotIDs)

	require.Len(t, stats, 2)
	assert.Equal(t, "LINK", stats[0].Symbol)
	assert.Equal(t, 12.5, stats[0].PriceUSD)
	assert.Equal(t, 7.0, stats[0].PercentChange7d)
	assert.Equal(t, 7_500_000.0, stats[0].MarketCap)
	// Null market cap normalizes to 0, the conservative default.
	assert.Equal(t, "SOL", stats[1].Symbol)
	assert.Zero(t, stats[1].MarketCap)
}

func TestQuotesByID_EnvelopeError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": {"error_code": 1002, "error_message": "API key missing."}, "data": {}}`)
	})

	stats, err := client.QuotesByID(context.Background(), []int64{1975})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1002")
	assert.Nil(t, stats, "a non-zero error code unresolves the whole batch")
}

func TestQuotesByID_PartialData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotesByIDPayload)
	})

	// Ask for an id the payload does not carry; it is skipped, not fatal.
	stats, err := client.QuotesByID(context.Background(), []int64{1975, 9999})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1975), stats[0].ID)
}

func TestQuotesByID_EmptyInput(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty id batch")
	})
	stats, err := client.QuotesByID(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestIDsBySymbol(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "LINK", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{
  "status": {"error_code": 0},
  "data": {"LINK": [
    {"id": 1975, "symbol": "LINK", "quote": {"USD": {"price": 12.5}}},
    {"id": 30001, "symbol": "LINK", "quote": {"USD": {"price": 0.004}}}
  ]}
}`)
	})

	ids, err := client.IDsBySymbol(context.Background(), "link")
	require.NoError(t, err)
	assert.Equal(t, []int64{1975, 30001}, ids)
}

func TestQuotesByID_MalformedPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": {"error_code": 0}, "data": "not-an-object"}`)
	})
	_, err := client.QuotesByID(context.Background(), []int64{1})
	assert.Error(t, err)
}
