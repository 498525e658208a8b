package cmc

import (
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://pro-api.coinmarketcap.com"
	defaultHTTPTimeout = 15 * time.Second
)

// Config describes how to reach the CoinMarketCap REST API.
type Config struct {
	APIKey       string
	BaseURL      string
	HTTPTimeout  time.Duration
	ProxyEnabled bool
	ProxyURL     string
}

func (c Config) withDefaults() Config {
	out := c
	out.BaseURL = strings.TrimRight(strings.TrimSpace(out.BaseURL), "/")
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = defaultHTTPTimeout
	}
	out.ProxyURL = strings.TrimSpace(out.ProxyURL)
	return out
}
