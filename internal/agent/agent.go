// Package agent orquesta el ciclo de trading: descubre mercados por
// estrategia, los analiza, genera recomendaciones y gestiona las
// posiciones abiertas hasta su salida.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/analysis"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/executor"
	"github.com/alejandrodnm/kalshibot/internal/ports"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

// Config contiene la configuración del loop del agente.
type Config struct {
	CheckInterval time.Duration
	MaxMarkets    int // mercados analizados por estrategia y ciclo
	RunOnce       bool
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		CheckInterval: 60 * time.Second,
		MaxMarkets:    10,
	}
}

// Agent es el orquestador principal del loop de trading.
type Agent struct {
	cfg        Config
	markets    ports.MarketProvider
	notifier   ports.Notifier
	detector   *analysis.Detector
	strategies *strategy.Processor
	executor   *executor.Manager
	now        func() time.Time
}

// New crea un Agent con todas las dependencias inyectadas.
func New(
	cfg Config,
	markets ports.MarketProvider,
	notifier ports.Notifier,
	detector *analysis.Detector,
	strategies *strategy.Processor,
	exec *executor.Manager,
) *Agent {
	if cfg.MaxMarkets <= 0 {
		cfg.MaxMarkets = 10
	}
	return &Agent{
		cfg:        cfg,
		markets:    markets,
		notifier:   notifier,
		detector:   detector,
		strategies: strategies,
		executor:   exec,
		now:        time.Now,
	}
}

// Run ejecuta el loop de trading hasta que el contexto se cancele.
// Si cfg.RunOnce está activo, solo ejecuta un ciclo.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("agent starting",
		"interval", a.cfg.CheckInterval,
		"run_once", a.cfg.RunOnce,
		"strategies", len(a.strategies.List()),
	)

	if err := a.runCycle(ctx); err != nil {
		slog.Error("trading cycle failed", "err", err)
		if a.cfg.RunOnce {
			return err
		}
	}

	if a.cfg.RunOnce {
		return nil
	}

	ticker := time.NewTicker(a.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("agent stopped")
			return nil
		case <-ticker.C:
			if err := a.runCycle(ctx); err != nil {
				slog.Error("trading cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve las recomendaciones.
func (a *Agent) RunOnce(ctx context.Context) ([]domain.Recommendation, error) {
	return a.cycle(ctx)
}

// runCycle ejecuta un ciclo completo: recomendaciones, notificación,
// ejecución automática donde aplique, y monitoreo de posiciones.
func (a *Agent) runCycle(ctx context.Context) error {
	start := time.Now()

	recs, err := a.cycle(ctx)
	if err != nil {
		return err
	}

	if len(recs) > 0 {
		if err := a.notifier.Notify(ctx, recs); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	a.executeAutomatic(ctx, recs)
	a.monitorPositions(ctx)

	slog.Info("trading cycle complete",
		"recommendations", len(recs),
		"active_positions", len(a.executor.ActivePositions()),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle genera las recomendaciones de todas las estrategias registradas.
// El fallo de una estrategia no tumba a las demás.
func (a *Agent) cycle(ctx context.Context) ([]domain.Recommendation, error) {
	var all []domain.Recommendation
	for _, info := range a.strategies.List() {
		recs, err := a.recommendForStrategy(ctx, info.Config)
		if err != nil {
			slog.Error("strategy cycle failed", "strategy", info.Config.ID, "err", err)
			continue
		}
		all = append(all, recs...)
	}
	return all, nil
}

// recommendForStrategy corre el pipeline completo de una estrategia:
// descubrimiento de mercados, análisis, filtrado/sizing, y generación
// de recomendaciones priorizadas.
func (a *Agent) recommendForStrategy(ctx context.Context, cfg domain.StrategyConfig) ([]domain.Recommendation, error) {
	markets, err := a.discoverMarkets(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("agent: discover markets for %s: %w", cfg.ID, err)
	}
	if len(markets) > a.cfg.MaxMarkets {
		markets = markets[:a.cfg.MaxMarkets]
	}

	var opps []domain.Opportunity
	snapshots := make(map[string]domain.MarketSnapshot, len(markets))
	for _, market := range markets {
		snap, err := a.markets.GetMarketDataBundle(ctx, market.Ticker)
		if err != nil {
			slog.Debug("market bundle fetch failed", "ticker", market.Ticker, "err", err)
			continue
		}
		snapshots[snap.Ticker] = snap
		opps = append(opps, a.detector.Detect(snap)...)
	}

	selected, err := a.strategies.Apply(cfg.ID, opps)
	if err != nil {
		return nil, fmt.Errorf("agent: apply strategy %s: %w", cfg.ID, err)
	}

	now := a.now()
	recs := make([]domain.Recommendation, 0, len(selected))
	for _, opp := range selected {
		recs = append(recs, buildRecommendation(cfg.ID, opp, snapshots[opp.Ticker], now))
	}
	return prioritizeRecommendations(recs), nil
}

// discoverMarkets obtiene los mercados candidatos de una estrategia:
// por categorías si las tiene, y si no (o si no producen nada), por
// horizonte temporal.
func (a *Agent) discoverMarkets(ctx context.Context, cfg domain.StrategyConfig) ([]domain.MarketSummary, error) {
	var markets []domain.MarketSummary
	for _, category := range cfg.Categories {
		found, err := a.markets.GetMarketsByCategory(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("markets by category %s: %w", category, err)
		}
		markets = append(markets, found...)
	}

	if len(markets) == 0 {
		horizon, err := domain.ParseTimeHorizon(cfg.TimeHorizon)
		if err != nil {
			return nil, err
		}
		markets, err = a.markets.GetMarketsByTimeHorizon(ctx, horizon.Hours())
		if err != nil {
			return nil, fmt.Errorf("markets by time horizon: %w", err)
		}
	}
	return markets, nil
}

// executeAutomatic ejecuta las recomendaciones de las estrategias en
// modo yolo y registra las posiciones resultantes en su estrategia.
func (a *Agent) executeAutomatic(ctx context.Context, recs []domain.Recommendation) {
	for _, rec := range recs {
		cfg, err := a.strategies.Get(rec.StrategyID)
		if err != nil || cfg.Mode() != domain.ModeYolo {
			continue
		}

		result, err := a.executor.Execute(ctx, rec, domain.ModeYolo)
		if err != nil {
			slog.Error("automatic execution failed",
				"strategy", rec.StrategyID, "ticker", rec.Ticker, "err", err)
			continue
		}

		for _, pos := range a.executor.ActivePositions() {
			if pos.ID != result.PositionID {
				continue
			}
			if err := a.strategies.RecordPosition(rec.StrategyID, pos); err != nil {
				slog.Warn("recording position failed",
					"strategy", rec.StrategyID, "position", pos.ID, "err", err)
			}
		}
	}
}

// monitorPositions refresca los precios de las posiciones activas y
// deja que el executor aplique las salidas. Las salidas completas se
// reflejan también en el estado de su estrategia.
func (a *Agent) monitorPositions(ctx context.Context) {
	positions := a.executor.ActivePositions()
	if len(positions) == 0 {
		return
	}

	prices := make(map[string]executor.MarketPrice, len(positions))
	for _, pos := range positions {
		if _, ok := prices[pos.Ticker]; ok {
			continue
		}
		snap, err := a.markets.GetMarketDataBundle(ctx, pos.Ticker)
		if err != nil {
			slog.Warn("price refresh failed", "ticker", pos.Ticker, "err", err)
			continue
		}
		prices[pos.Ticker] = executor.MarketPrice{
			YesPrice:  snap.YesBid,
			NoPrice:   snap.NoBid,
			CloseTime: snap.CloseTime,
		}
	}

	for _, action := range a.executor.Monitor(ctx, prices) {
		slog.Info("position action",
			"type", action.Type,
			"position", action.PositionID,
			"reason", action.Reason,
		)
		if action.Type != domain.ExecExit {
			continue
		}
		if err := a.strategies.ClosePosition(action.StrategyID, action.PositionID,
			action.Price, action.Timestamp, action.ProfitLoss); err != nil {
			slog.Debug("strategy close bookkeeping", "position", action.PositionID, "err", err)
		}
	}
}

// Metrics expone las métricas de rendimiento del executor.
func (a *Agent) Metrics() domain.PerformanceMetrics {
	return a.executor.Metrics()
}
