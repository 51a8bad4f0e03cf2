// Package executor gestiona la ejecución de trades, el monitoreo de
// posiciones activas y las estrategias de salida, con ajustes de tamaño
// basados en un modelo simple de psicología de mercado.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const (
	dynamicStopPct   = 0.15 // movimiento adverso que dispara el stop dinámico
	partialProfitPct = 0.25 // movimiento favorable que dispara la toma parcial
	expirationWindow = 5 * time.Minute
)

// MarketPrice son los precios actuales de un mercado para el monitor.
type MarketPrice struct {
	YesPrice  int
	NoPrice   int
	CloseTime time.Time
}

// TradeStatus es el resultado de ejecutar una recomendación.
type TradeStatus string

const (
	TradePendingApproval TradeStatus = "pending_approval"
	TradeExecuted        TradeStatus = "executed"
	TradeFailed          TradeStatus = "failed"
)

// TradeResult describe qué pasó con una recomendación ejecutada.
type TradeResult struct {
	Status           TradeStatus
	RecommendationID string
	PositionID       string
	OrderID          string
	Timestamp        time.Time
}

// Manager ejecuta recomendaciones y vigila las posiciones resultantes.
// Mantiene el estado psicológico que modula los tamaños de entrada.
// Seguro para uso concurrente.
type Manager struct {
	orders  ports.OrderExecutor
	storage ports.ExecutionStorage
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	mu      sync.Mutex
	active  map[string]*domain.Position
	history []domain.ExecutionRecord
	psych   domain.PsychState
}

// NewManager crea un Manager con estado psicológico neutro.
// storage puede ser nil; entonces solo se registra en memoria.
func NewManager(orders ports.OrderExecutor, storage ports.ExecutionStorage, logger *slog.Logger) *Manager {
	return &Manager{
		orders:  orders,
		storage: storage,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.New().String()[:8] },
		active:  make(map[string]*domain.Position),
		psych:   domain.DefaultPsychState(),
	}
}

// Execute procesa una recomendación según el modo de ejecución.
// En modo manual no toca el mercado: devuelve pending_approval y la
// posición nunca entra al mapa activo. En modo yolo ajusta el tamaño
// por psicología, coloca la orden y registra la posición.
func (m *Manager) Execute(ctx context.Context, rec domain.Recommendation, mode domain.ExecutionMode) (TradeResult, error) {
	if mode != domain.ModeYolo {
		m.logger.Info("recommendation pending approval",
			"recommendation", rec.ID, "ticker", rec.Ticker)
		return TradeResult{
			Status:           TradePendingApproval,
			RecommendationID: rec.ID,
			Timestamp:        m.now(),
		}, nil
	}

	m.mu.Lock()
	contracts := adjustPositionSize(rec, m.psych)
	m.mu.Unlock()

	order := domain.OrderRequest{
		Ticker: rec.Ticker,
		Side:   domain.OrderBuy,
		Type:   rec.Side,
		Price:  rec.EntryPrice,
		Size:   contracts,
	}
	result, err := m.orders.PlaceOrder(ctx, order)
	if err != nil {
		m.logger.Error("trade execution failed",
			"recommendation", rec.ID, "ticker", rec.Ticker, "error", err)
		return TradeResult{
			Status:           TradeFailed,
			RecommendationID: rec.ID,
			Timestamp:        m.now(),
		}, fmt.Errorf("executor.Execute: place order for %s: %w", rec.Ticker, err)
	}

	now := m.now()
	pos := &domain.Position{
		ID:               m.newID(),
		RecommendationID: rec.ID,
		StrategyID:       rec.StrategyID,
		Ticker:           rec.Ticker,
		Side:             rec.Side,
		Contracts:        contracts,
		EntryPrice:       rec.EntryPrice,
		EntryTime:        now,
		TargetExitLow:    rec.TargetExitLow,
		TargetExitHigh:   rec.TargetExitHigh,
		StopLoss:         rec.StopLoss,
		Status:           domain.StatusActive,
		OrderID:          result.OrderID,
	}

	record := domain.ExecutionRecord{
		Type:       domain.ExecEntry,
		PositionID: pos.ID,
		StrategyID: pos.StrategyID,
		Ticker:     pos.Ticker,
		Side:       pos.Side,
		Contracts:  contracts,
		Price:      pos.EntryPrice,
		Timestamp:  now,
	}

	m.mu.Lock()
	m.active[pos.ID] = pos
	m.history = append(m.history, record)
	m.mu.Unlock()

	m.persistRecord(ctx, record)

	m.logger.Info("trade executed",
		"position", pos.ID,
		"ticker", pos.Ticker,
		"side", pos.Side,
		"contracts", contracts,
		"price", pos.EntryPrice,
	)
	return TradeResult{
		Status:           TradeExecuted,
		RecommendationID: rec.ID,
		PositionID:       pos.ID,
		OrderID:          result.OrderID,
		Timestamp:        now,
	}, nil
}

// adjustPositionSize modula los contratos según el estado psicológico.
// El sentiment empuja YES con codicia y NO con miedo; el crowd factor
// amplifica la confianza por encima de 50. Nunca baja de 1 contrato.
func adjustPositionSize(rec domain.Recommendation, psych domain.PsychState) int {
	confidence := float64(rec.Confidence) / 100

	var sentimentAdj float64
	if rec.Side == domain.SideYes {
		sentimentAdj = 1 + (psych.MarketSentiment - 0.5)
	} else {
		sentimentAdj = 1 + (0.5 - psych.MarketSentiment)
	}
	crowdAdj := 1 + 0.2*(confidence-0.5)*psych.CrowdBehavior

	adjusted := int(float64(rec.Contracts) * sentimentAdj * crowdAdj)
	if adjusted < 1 {
		return 1
	}
	return adjusted
}

// Monitor revisa todas las posiciones activas contra los precios dados
// y ejecuta las salidas que correspondan. Las condiciones se evalúan
// siempre en el mismo orden; la primera que se cumple gana:
// target, stop loss, expiración, stop dinámico, toma parcial.
// Devuelve los registros de las salidas ejecutadas en esta pasada.
func (m *Manager) Monitor(ctx context.Context, prices map[string]MarketPrice) []domain.ExecutionRecord {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var actions []domain.ExecutionRecord
	for _, id := range ids {
		m.mu.Lock()
		pos, ok := m.active[id]
		if !ok {
			m.mu.Unlock()
			continue
		}
		snapshot := *pos
		m.mu.Unlock()

		price, ok := prices[snapshot.Ticker]
		if !ok {
			continue
		}

		current := price.YesPrice
		if snapshot.Side == domain.SideNo {
			current = price.NoPrice
		}

		if rec, ok := m.checkExits(ctx, snapshot, current, price.CloseTime); ok {
			actions = append(actions, rec)
		}
	}
	return actions
}

// checkExits aplica las condiciones de salida en orden fijo sobre una
// posición. Devuelve el registro de la salida ejecutada, si hubo.
func (m *Manager) checkExits(ctx context.Context, pos domain.Position, current int, closeTime time.Time) (domain.ExecutionRecord, bool) {
	if pos.TargetExitLow <= current && current <= pos.TargetExitHigh && pos.TargetExitHigh > 0 {
		return m.exit(ctx, pos.ID, current, domain.ExitTargetReached)
	}

	if (pos.Side == domain.SideYes && current <= pos.StopLoss) ||
		(pos.Side == domain.SideNo && current >= pos.StopLoss) {
		return m.exit(ctx, pos.ID, current, domain.ExitStopLoss)
	}

	if !closeTime.IsZero() && closeTime.Sub(m.now()) <= expirationWindow {
		return m.exit(ctx, pos.ID, current, domain.ExitExpiration)
	}

	if pos.EntryPrice > 0 {
		change := float64(current-pos.EntryPrice) / float64(pos.EntryPrice)

		if (pos.Side == domain.SideYes && change < -dynamicStopPct) ||
			(pos.Side == domain.SideNo && change > dynamicStopPct) {
			return m.exit(ctx, pos.ID, current, domain.ExitDynamicStop)
		}

		if ((pos.Side == domain.SideYes && change > partialProfitPct) ||
			(pos.Side == domain.SideNo && change < -partialProfitPct)) &&
			pos.Contracts > 2 {
			return m.partialExit(ctx, pos.ID, current, pos.Contracts/2)
		}
	}

	return domain.ExecutionRecord{}, false
}

// exit cierra una posición completa: coloca la orden de venta, calcula
// el P/L, mueve la posición fuera del mapa activo y actualiza la
// psicología. Si la orden falla la posición queda activa para el
// siguiente ciclo.
func (m *Manager) exit(ctx context.Context, positionID string, price int, reason domain.ExitReason) (domain.ExecutionRecord, bool) {
	m.mu.Lock()
	pos, ok := m.active[positionID]
	if !ok {
		m.mu.Unlock()
		return domain.ExecutionRecord{}, false
	}
	order := domain.OrderRequest{
		Ticker: pos.Ticker,
		Side:   domain.OrderSell,
		Type:   pos.Side,
		Price:  price,
		Size:   pos.Contracts,
	}
	m.mu.Unlock()

	if _, err := m.orders.PlaceOrder(ctx, order); err != nil {
		m.logger.Error("exit execution failed",
			"position", positionID, "reason", reason, "error", err)
		return domain.ExecutionRecord{}, false
	}

	m.mu.Lock()
	pos, ok = m.active[positionID]
	if !ok {
		m.mu.Unlock()
		return domain.ExecutionRecord{}, false
	}

	now := m.now()
	profitLoss := domain.ProfitLoss(pos.Side, pos.EntryPrice, price, pos.Contracts)

	pos.Status = domain.StatusClosed
	pos.ExitPrice = price
	pos.ExitTime = now
	pos.ExitReason = reason
	pos.ProfitLoss = profitLoss

	record := domain.ExecutionRecord{
		Type:       domain.ExecExit,
		PositionID: pos.ID,
		StrategyID: pos.StrategyID,
		Ticker:     pos.Ticker,
		Side:       pos.Side,
		Contracts:  pos.Contracts,
		Price:      price,
		Reason:     reason,
		ProfitLoss: profitLoss,
		Timestamp:  now,
	}
	m.history = append(m.history, record)

	closed := *pos
	delete(m.active, positionID)
	m.updatePsychology(profitLoss > 0)
	m.mu.Unlock()

	m.persistRecord(ctx, record)
	m.persistClosed(ctx, closed)

	m.logger.Info("position closed",
		"position", positionID,
		"reason", reason,
		"exit_price", price,
		"pl", fmt.Sprintf("%.2f", profitLoss),
	)
	return record, true
}

// partialExit vende la mitad de la posición y la deja activa con los
// contratos restantes.
func (m *Manager) partialExit(ctx context.Context, positionID string, price, contracts int) (domain.ExecutionRecord, bool) {
	m.mu.Lock()
	pos, ok := m.active[positionID]
	if !ok {
		m.mu.Unlock()
		return domain.ExecutionRecord{}, false
	}
	order := domain.OrderRequest{
		Ticker: pos.Ticker,
		Side:   domain.OrderSell,
		Type:   pos.Side,
		Price:  price,
		Size:   contracts,
	}
	m.mu.Unlock()

	if _, err := m.orders.PlaceOrder(ctx, order); err != nil {
		m.logger.Error("partial exit execution failed",
			"position", positionID, "error", err)
		return domain.ExecutionRecord{}, false
	}

	m.mu.Lock()
	pos, ok = m.active[positionID]
	if !ok {
		m.mu.Unlock()
		return domain.ExecutionRecord{}, false
	}

	now := m.now()
	profitLoss := domain.ProfitLoss(pos.Side, pos.EntryPrice, price, contracts)

	pos.Contracts -= contracts
	pos.Status = domain.StatusPartiallyExited

	record := domain.ExecutionRecord{
		Type:       domain.ExecPartialExit,
		PositionID: pos.ID,
		StrategyID: pos.StrategyID,
		Ticker:     pos.Ticker,
		Side:       pos.Side,
		Contracts:  contracts,
		Price:      price,
		Reason:     domain.ExitPartialProfit,
		ProfitLoss: profitLoss,
		Remaining:  pos.Contracts,
		Timestamp:  now,
	}
	m.history = append(m.history, record)
	m.updatePsychology(profitLoss > 0)
	m.mu.Unlock()

	m.persistRecord(ctx, record)

	m.logger.Info("partial exit executed",
		"position", positionID,
		"contracts", contracts,
		"remaining", record.Remaining,
		"pl", fmt.Sprintf("%.2f", profitLoss),
	)
	return record, true
}

// updatePsychology ajusta el estado tras cada cierre. Ganar empuja el
// sentiment hacia la codicia, perder hacia el miedo. El recency bias
// solo crece; nunca decae. Es una limitación conocida del modelo.
// Debe llamarse con el lock tomado.
func (m *Manager) updatePsychology(win bool) {
	if win {
		m.psych.MarketSentiment = clamp01(m.psych.MarketSentiment + 0.05)
	} else {
		m.psych.MarketSentiment = clamp01(m.psych.MarketSentiment - 0.05)
	}
	m.psych.RecencyBias = clamp01(m.psych.RecencyBias + 0.1)
}

// ActivePositions devuelve una copia de las posiciones activas.
func (m *Manager) ActivePositions() []domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Position, 0, len(m.active))
	for _, pos := range m.active {
		out = append(out, *pos)
	}
	return out
}

// History devuelve una copia del log de ejecución en memoria.
func (m *Manager) History() []domain.ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.ExecutionRecord, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Manager) persistRecord(ctx context.Context, rec domain.ExecutionRecord) {
	if m.storage == nil {
		return
	}
	if err := m.storage.SaveExecution(ctx, rec); err != nil {
		m.logger.Error("persisting execution record failed",
			"position", rec.PositionID, "type", rec.Type, "error", err)
	}
}

func (m *Manager) persistClosed(ctx context.Context, pos domain.Position) {
	if m.storage == nil {
		return
	}
	if err := m.storage.SaveClosedPosition(ctx, pos); err != nil {
		m.logger.Error("persisting closed position failed",
			"position", pos.ID, "error", err)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
