// Package strategy mantiene el registro de estrategias activas y aplica
// sus parámetros a las oportunidades detectadas: filtrado, sizing,
// priorización y bookkeeping de posiciones por estrategia.
package strategy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Processor es el registro de estrategias activas. Seguro para uso
// concurrente; cada estrategia lleva su propio estado de posiciones
// y contadores de rendimiento.
type Processor struct {
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	strategies map[string]*strategyState
}

// strategyState es el estado mutable de una estrategia cargada.
type strategyState struct {
	cfg       domain.StrategyConfig
	createdAt time.Time
	active    []domain.Position
	completed []domain.Position
	perf      perfCounters
}

type perfCounters struct {
	winCount        int
	lossCount       int
	totalProfit     float64
	totalInvestment float64
}

// StrategyPerformance resume los resultados acumulados de una estrategia.
type StrategyPerformance struct {
	WinCount        int
	LossCount       int
	TotalTrades     int
	WinRate         float64 // porcentaje
	TotalProfit     float64
	TotalInvestment float64
	ROI             float64 // porcentaje
}

// StrategyInfo es la vista de solo lectura que devuelve List.
type StrategyInfo struct {
	Config         domain.StrategyConfig
	CreatedAt      time.Time
	ActiveCount    int
	CompletedCount int
	Performance    StrategyPerformance
}

// NewProcessor crea un Processor vacío.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger:     logger,
		now:        time.Now,
		strategies: make(map[string]*strategyState),
	}
}

// Load valida y registra una estrategia. Falla cerrado: si cualquier
// parámetro es inválido la estrategia no queda registrada.
func (p *Processor) Load(cfg domain.StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("strategy.Load: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.strategies[cfg.ID] = &strategyState{
		cfg:       cfg,
		createdAt: p.now(),
	}
	p.logger.Info("strategy loaded",
		"strategy", cfg.ID,
		"budget", cfg.Budget,
		"risk", cfg.RiskLevel,
		"mode", cfg.Mode(),
	)
	return nil
}

// Update reemplaza los parámetros de una estrategia existente
// conservando sus posiciones y su rendimiento acumulado.
func (p *Processor) Update(cfg domain.StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("strategy.Update: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[cfg.ID]
	if !ok {
		return fmt.Errorf("strategy.Update: strategy %s not found", cfg.ID)
	}
	st.cfg = cfg
	p.logger.Info("strategy updated", "strategy", cfg.ID)
	return nil
}

// Delete elimina una estrategia del registro. Si tiene posiciones
// activas lo avisa pero borra igual; cerrarlas es cosa del caller.
func (p *Processor) Delete(strategyID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return fmt.Errorf("strategy.Delete: strategy %s not found", strategyID)
	}
	if len(st.active) > 0 {
		p.logger.Warn("deleting strategy with active positions",
			"strategy", strategyID, "active", len(st.active))
	}
	delete(p.strategies, strategyID)
	return nil
}

// Get devuelve la configuración de una estrategia.
func (p *Processor) Get(strategyID string) (domain.StrategyConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return domain.StrategyConfig{}, fmt.Errorf("strategy.Get: strategy %s not found", strategyID)
	}
	return st.cfg, nil
}

// List devuelve un resumen de todas las estrategias registradas,
// ordenado por id para que la salida sea estable.
func (p *Processor) List() []StrategyInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	infos := make([]StrategyInfo, 0, len(p.strategies))
	for _, st := range p.strategies {
		infos = append(infos, StrategyInfo{
			Config:         st.cfg,
			CreatedAt:      st.createdAt,
			ActiveCount:    len(st.active),
			CompletedCount: len(st.completed),
			Performance:    st.perf.summary(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Config.ID < infos[j].Config.ID })
	return infos
}

// Apply pasa las oportunidades por el pipeline de la estrategia:
// filtro, sizing, priorización, y recorte a los slots disponibles
// (máximo de posiciones simultáneas menos las ya activas).
func (p *Processor) Apply(strategyID string, opps []domain.Opportunity) ([]domain.Opportunity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return nil, fmt.Errorf("strategy.Apply: strategy %s not found", strategyID)
	}
	cfg := st.cfg

	filtered := filterOpportunities(opps, cfg, p.now())
	sized := sizeOpportunities(filtered, cfg)
	prioritized := prioritizeOpportunities(sized, cfg)

	slots := cfg.MaxPositions - len(st.active)
	if slots < 0 {
		slots = 0
	}
	if len(prioritized) > slots {
		prioritized = prioritized[:slots]
	}

	p.logger.Debug("strategy applied",
		"strategy", strategyID,
		"in", len(opps),
		"filtered", len(filtered),
		"selected", len(prioritized),
	)
	return prioritized, nil
}

// RecordPosition añade una posición activa al estado de la estrategia.
func (p *Processor) RecordPosition(strategyID string, pos domain.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return fmt.Errorf("strategy.RecordPosition: strategy %s not found", strategyID)
	}
	st.active = append(st.active, pos)
	return nil
}

// ClosePosition mueve una posición de activas a completadas y acumula
// su resultado en los contadores de la estrategia. El P/L lo aporta el
// caller, que es quien conoce el precio de salida real.
func (p *Processor) ClosePosition(strategyID, positionID string, exitPrice int, exitTime time.Time, profitLoss float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return fmt.Errorf("strategy.ClosePosition: strategy %s not found", strategyID)
	}

	idx := -1
	for i, pos := range st.active {
		if pos.ID == positionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("strategy.ClosePosition: position %s not found in strategy %s", positionID, strategyID)
	}

	pos := st.active[idx]
	pos.ExitPrice = exitPrice
	pos.ExitTime = exitTime
	pos.ProfitLoss = profitLoss
	pos.Status = domain.StatusClosed

	if profitLoss > 0 {
		st.perf.winCount++
	} else {
		st.perf.lossCount++
	}
	st.perf.totalProfit += profitLoss
	st.perf.totalInvestment += float64(pos.Contracts*pos.EntryPrice) / 100

	st.completed = append(st.completed, pos)
	st.active = append(st.active[:idx], st.active[idx+1:]...)

	p.logger.Info("position closed",
		"strategy", strategyID,
		"position", positionID,
		"pl", fmt.Sprintf("%.2f", profitLoss),
	)
	return nil
}

// ActivePositions devuelve una copia de las posiciones activas.
func (p *Processor) ActivePositions(strategyID string) []domain.Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return nil
	}
	out := make([]domain.Position, len(st.active))
	copy(out, st.active)
	return out
}

// CompletedPositions devuelve una copia de las posiciones cerradas.
func (p *Processor) CompletedPositions(strategyID string) []domain.Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return nil
	}
	out := make([]domain.Position, len(st.completed))
	copy(out, st.completed)
	return out
}

// Performance devuelve las métricas acumuladas de una estrategia.
func (p *Processor) Performance(strategyID string) (StrategyPerformance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return StrategyPerformance{}, fmt.Errorf("strategy.Performance: strategy %s not found", strategyID)
	}
	return st.perf.summary(), nil
}

func (c perfCounters) summary() StrategyPerformance {
	perf := StrategyPerformance{
		WinCount:        c.winCount,
		LossCount:       c.lossCount,
		TotalTrades:     c.winCount + c.lossCount,
		TotalProfit:     c.totalProfit,
		TotalInvestment: c.totalInvestment,
	}
	if perf.TotalTrades > 0 {
		perf.WinRate = float64(c.winCount) / float64(perf.TotalTrades) * 100
	}
	if c.totalInvestment > 0 {
		perf.ROI = c.totalProfit / c.totalInvestment * 100
	}
	return perf
}
