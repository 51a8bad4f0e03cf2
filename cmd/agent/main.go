package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/adapters/kalshi"
	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/adapters/storage"
	"github.com/alejandrodnm/kalshibot/internal/agent"
	"github.com/alejandrodnm/kalshibot/internal/analysis"
	"github.com/alejandrodnm/kalshibot/internal/executor"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	baseURL := cfg.API.BaseURL
	if baseURL == "" && !cfg.API.Demo {
		baseURL = kalshi.ProdBaseURL()
	}

	slog.Info("kalshibot starting",
		"config", *configPath,
		"interval", cfg.CheckInterval(),
		"demo", cfg.API.Demo,
		"once", *once,
		"strategies", len(cfg.Strategies),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := kalshi.NewClient(baseURL, kalshi.Credentials{
		Email:    cfg.API.Email,
		Password: cfg.API.Password,
	})
	if err := client.Login(ctx); err != nil {
		slog.Error("kalshi login failed", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	logger := slog.Default()

	strategies := strategy.NewProcessor(logger)
	for _, strat := range cfg.Strategies {
		if err := strategies.Load(strat); err != nil {
			slog.Error("failed to load strategy", "strategy", strat.ID, "err", err)
			os.Exit(1)
		}
	}

	provider := kalshi.NewProvider(client)
	trader := kalshi.NewTrader(client)
	exec := executor.NewManager(trader, store, logger)
	detector := analysis.NewDetector(logger)
	notifier := notify.NewConsole()

	agentCfg := agent.DefaultConfig()
	agentCfg.CheckInterval = cfg.CheckInterval()
	agentCfg.MaxMarkets = cfg.Agent.MaxMarkets
	agentCfg.RunOnce = *once

	a := agent.New(agentCfg, provider, notifier, detector, strategies, exec)

	if err := a.Run(ctx); err != nil {
		slog.Error("agent exited with error", "err", err)
		os.Exit(1)
	}

	notifier.PrintPerformance(a.Metrics())
	slog.Info("kalshibot stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
