package config

// Config is the main configuration carrier.
type Config struct {
	App     AppConfig     `toml:"app"`
	Agent   AgentConfig   `toml:"agent"`
	Trading TradingConfig `toml:"trading"`
	Risk    RiskConfig    `toml:"risk"`
	CMC     CMCConfig     `toml:"cmc"`
	Store   StoreConfig   `toml:"store"`
	Notify  NotifyConfig  `toml:"notify"`
	Signal  SignalConfig  `toml:"signal"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

type AgentConfig struct {
	ID              string `toml:"id"`
	MetricsInterval string `toml:"metrics_interval"`
	SignalInterval  string `toml:"signal_interval"`
}

type TradingConfig struct {
	TradeSize float64 `toml:"trade_size"`
}

type RiskConfig struct {
	VolatilityThreshold float64 `toml:"volatility_threshold"`
	MarketCapMin        float64 `toml:"market_cap_min"`
	VolumeThreshold     float64 `toml:"volume_threshold"`
}

type CMCConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ProxyEnabled   bool   `toml:"proxy_enabled"`
	ProxyURL       string `toml:"proxy_url"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// SignalConfig controls the model-driven signal generator. Disabled means the
// agent only accepts signals over the HTTP API.
type SignalConfig struct {
	Enabled     bool     `toml:"enabled"`
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	Model       string   `toml:"model"`
	PersonaFile string   `toml:"persona_file"`
	Persona     string   `toml:"persona"`
	Watchlist   []string `toml:"watchlist"`
}
