package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Agent.ID) == "" {
		return fmt.Errorf("agent.id is required")
	}
	if strings.TrimSpace(cfg.CMC.APIKey) == "" {
		return fmt.Errorf("cmc.api_key is required")
	}
	if cfg.Trading.TradeSize < 0 {
		return fmt.Errorf("trading.trade_size cannot be negative")
	}
	if cfg.Signal.Enabled {
		if strings.TrimSpace(cfg.Signal.Model) == "" {
			return fmt.Errorf("signal.model is required when signal.enabled")
		}
		if len(cfg.Signal.Watchlist) == 0 && strings.TrimSpace(cfg.Signal.PersonaFile) == "" {
			return fmt.Errorf("signal needs a watchlist or a persona_file")
		}
	}
	if cfg.Notify.Telegram.Enabled {
		if cfg.Notify.Telegram.BotToken == "" || cfg.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram needs bot_token and chat_id when enabled")
		}
	}
	return nil
}
