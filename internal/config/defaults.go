package config

import "strings"

const (
	defaultLogLevel        = "info"
	defaultHTTPAddr        = ":8391"
	defaultMetricsInterval = "15m"
	defaultStorePath       = "data/portfolio.db"
	defaultTradeSize       = 0.1
)

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = defaultLogLevel
	}
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		c.App.HTTPAddr = defaultHTTPAddr
	}
	if strings.TrimSpace(c.Agent.MetricsInterval) == "" {
		c.Agent.MetricsInterval = defaultMetricsInterval
	}
	if strings.TrimSpace(c.Agent.SignalInterval) == "" {
		c.Agent.SignalInterval = c.Agent.MetricsInterval
	}
	if c.Trading.TradeSize == 0 {
		c.Trading.TradeSize = defaultTradeSize
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = defaultStorePath
	}
}
