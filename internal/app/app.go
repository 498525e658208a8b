package app

import (
	"context"
	"fmt"
	"time"

	"ica/internal/agent"
	"ica/internal/config"
	"ica/internal/gateway/cmc"
	"ica/internal/gateway/notifier"
	"ica/internal/logger"
	"ica/internal/quote"
	"ica/internal/risk"
	"ica/internal/scheduler"
	"ica/internal/signal"
	"ica/internal/store/gormstore"
	transporthttp "ica/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App wires the engine, gateways, scheduler, and HTTP surface.
type App struct {
	cfg    *config.Config
	store  *gormstore.Store
	quotes quote.Provider
	engine *agent.Engine
	gen    signal.Generator
	http   *transporthttp.Server

	metricsInterval time.Duration
	signalInterval  time.Duration
}

func New(cfg *config.Config) (*App, error) {
	st, err := gormstore.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening portfolio store failed: %w", err)
	}

	quotes, err := cmc.New(cmc.Config{
		APIKey:       cfg.CMC.APIKey,
		BaseURL:      cfg.CMC.BaseURL,
		HTTPTimeout:  time.Duration(cfg.CMC.TimeoutSeconds) * time.Second,
		ProxyEnabled: cfg.CMC.ProxyEnabled,
		ProxyURL:     cfg.CMC.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	var notify notifier.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	classifier := risk.New(cfg.Risk.VolatilityThreshold, cfg.Risk.MarketCapMin, cfg.Risk.VolumeThreshold)
	engine := agent.NewEngine(agent.Config{
		AgentID:   cfg.Agent.ID,
		TradeSize: cfg.Trading.TradeSize,
	}, classifier, quotes, st, notify)

	var gen signal.Generator
	if cfg.Signal.Enabled {
		var personas *signal.PersonaRegistry
		if cfg.Signal.PersonaFile != "" {
			personas, err = signal.NewPersonaRegistry(cfg.Signal.PersonaFile)
			if err != nil {
				return nil, err
			}
		}
		chat := &signal.ChatClient{
			BaseURL: cfg.Signal.BaseURL,
			APIKey:  cfg.Signal.APIKey,
			Model:   cfg.Signal.Model,
		}
		gen = signal.NewModelGenerator(chat, personas, cfg.Signal.Persona)
	}

	httpSrv, err := transporthttp.NewServer(transporthttp.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		AgentID:   cfg.Agent.ID,
		Store:     st,
		Processor: engine,
	})
	if err != nil {
		return nil, err
	}

	metricsInterval, ok := scheduler.ParseIntervalDuration(cfg.Agent.MetricsInterval)
	if !ok {
		return nil, fmt.Errorf("invalid agent.metrics_interval %q", cfg.Agent.MetricsInterval)
	}
	signalInterval, ok := scheduler.ParseIntervalDuration(cfg.Agent.SignalInterval)
	if !ok {
		return nil, fmt.Errorf("invalid agent.signal_interval %q", cfg.Agent.SignalInterval)
	}

	return &App{
		cfg:             cfg,
		store:           st,
		quotes:          quotes,
		engine:          engine,
		gen:             gen,
		http:            httpSrv,
		metricsInterval: metricsInterval,
		signalInterval:  signalInterval,
	}, nil
}

// Run serves HTTP and the periodic loops until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", a.http.Addr())
		return a.http.Start(ctx)
	})

	g.Go(func() error {
		s := scheduler.NewIntervalScheduler(ctx, "metrics", a.metricsInterval)
		s.RunImmediately = true
		s.Start(func(tctx context.Context) {
			if err := a.engine.RefreshMetrics(tctx); err != nil {
				logger.Errorf("metrics refresh failed: %v", err)
			}
		})
		return nil
	})

	if a.gen != nil {
		g.Go(func() error {
			s := scheduler.NewIntervalScheduler(ctx, "signals", a.signalInterval)
			s.Start(func(tctx context.Context) {
				a.runSignalCycle(tctx)
			})
			return nil
		})
	}

	return g.Wait()
}

func (a *App) runSignalCycle(ctx context.Context) {
	signals, err := a.gen.Generate(ctx, a.cfg.Signal.Watchlist)
	if err != nil {
		logger.Errorf("signal generation failed: %v", err)
		return
	}
	for _, sig := range signals {
		res, err := a.engine.ProcessSignal(ctx, sig)
		if err != nil {
			// No-trade outcomes carry their own status; anything else is a
			// real failure worth surfacing.
			switch res.Status {
			case agent.StatusUnresolved, agent.StatusNoSafeToken:
				continue
			}
			logger.Errorf("processing signal %s %s failed: %v", sig.Direction, sig.Symbol, err)
		}
	}
}
