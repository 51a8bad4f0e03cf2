package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrders registra las órdenes recibidas y puede fallar bajo demanda.
type fakeOrders struct {
	placed  []domain.OrderRequest
	failing bool
}

func (f *fakeOrders) PlaceOrder(_ context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if f.failing {
		return domain.OrderResult{}, errors.New("venue rejected order")
	}
	f.placed = append(f.placed, req)
	return domain.OrderResult{OrderID: "order-1", Status: "filled"}, nil
}

var testTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testManager(orders *fakeOrders) *Manager {
	m := NewManager(orders, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = func() time.Time { return testTime }
	n := 0
	m.newID = func() string {
		n++
		return string(rune('a'+n-1)) + "-pos"
	}
	return m
}

func rec(ticker string, side domain.Side, contracts, entry int) domain.Recommendation {
	return domain.Recommendation{
		ID:             "rec-1",
		StrategyID:     "s1",
		Ticker:         ticker,
		Side:           side,
		EntryPrice:     entry,
		Contracts:      contracts,
		TargetExitLow:  entry + 8,
		TargetExitHigh: entry + 12,
		StopLoss:       entry - 5,
		Confidence:     50,
	}
}

func TestManager_Execute_ManualPendingApproval(t *testing.T) {
	orders := &fakeOrders{}
	m := testManager(orders)

	result, err := m.Execute(context.Background(), rec("MKT", domain.SideYes, 10, 40), domain.ModeManual)

	require.NoError(t, err)
	assert.Equal(t, TradePendingApproval, result.Status)
	// En manual no se toca el mercado ni se crea posición.
	assert.Empty(t, orders.placed)
	assert.Empty(t, m.ActivePositions())
	assert.Empty(t, m.History())
}

func TestManager_Execute_YoloPlacesOrder(t *testing.T) {
	orders := &fakeOrders{}
	m := testManager(orders)

	result, err := m.Execute(context.Background(), rec("MKT", domain.SideYes, 10, 40), domain.ModeYolo)

	require.NoError(t, err)
	assert.Equal(t, TradeExecuted, result.Status)
	assert.Equal(t, "order-1", result.OrderID)

	require.Len(t, orders.placed, 1)
	order := orders.placed[0]
	assert.Equal(t, domain.OrderBuy, order.Side)
	assert.Equal(t, domain.SideYes, order.Type)
	assert.Equal(t, 40, order.Price)
	// Psicología neutra y confianza 50: sin ajuste de tamaño.
	assert.Equal(t, 10, order.Size)

	positions := m.ActivePositions()
	require.Len(t, positions, 1)
	assert.Equal(t, domain.StatusActive, positions[0].Status)
	assert.Equal(t, result.PositionID, positions[0].ID)

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, domain.ExecEntry, history[0].Type)
}

func TestManager_Execute_FailedEntryCreatesNoPosition(t *testing.T) {
	orders := &fakeOrders{failing: true}
	m := testManager(orders)

	result, err := m.Execute(context.Background(), rec("MKT", domain.SideYes, 10, 40), domain.ModeYolo)

	require.Error(t, err)
	assert.Equal(t, TradeFailed, result.Status)
	assert.Empty(t, m.ActivePositions())
	assert.Empty(t, m.History())
}

func TestAdjustPositionSize_GreedBoostsYes(t *testing.T) {
	r := rec("MKT", domain.SideYes, 100, 40)
	psych := domain.PsychState{MarketSentiment: 0.8, CrowdBehavior: 0.5, RecencyBias: 0.5}

	// sentimiento 0.8 → ajuste 1.3; confianza 50 → crowd neutro.
	assert.Equal(t, 130, adjustPositionSize(r, psych))
}

func TestAdjustPositionSize_FearBoostsNo(t *testing.T) {
	r := rec("MKT", domain.SideNo, 100, 40)
	psych := domain.PsychState{MarketSentiment: 0.2, CrowdBehavior: 0.5, RecencyBias: 0.5}

	assert.Equal(t, 130, adjustPositionSize(r, psych))
}

func TestAdjustPositionSize_CrowdAmplifiesConfidence(t *testing.T) {
	r := rec("MKT", domain.SideYes, 100, 40)
	r.Confidence = 100
	psych := domain.PsychState{MarketSentiment: 0.5, CrowdBehavior: 1.0, RecencyBias: 0.5}

	// crowd = 1 + 0.2*0.5*1.0 = 1.1
	assert.Equal(t, 110, adjustPositionSize(r, psych))
}

func TestAdjustPositionSize_NeverBelowOne(t *testing.T) {
	r := rec("MKT", domain.SideYes, 1, 40)
	r.Confidence = 0
	psych := domain.PsychState{MarketSentiment: 0.0, CrowdBehavior: 1.0, RecencyBias: 0.5}

	assert.Equal(t, 1, adjustPositionSize(r, psych))
}

// enterPosition ejecuta una entrada yolo y devuelve el id de la posición.
func enterPosition(t *testing.T, m *Manager, r domain.Recommendation) string {
	t.Helper()
	result, err := m.Execute(context.Background(), r, domain.ModeYolo)
	require.NoError(t, err)
	return result.PositionID
}

func TestManager_Monitor_TargetReached(t *testing.T) {
	orders := &fakeOrders{}
	m := testManager(orders)
	id := enterPosition(t, m, rec("MKT", domain.SideYes, 10, 40)) // target 48-52

	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 50, NoPrice: 52},
	})

	require.Len(t, actions, 1)
	action := actions[0]
	assert.Equal(t, domain.ExecExit, action.Type)
	assert.Equal(t, domain.ExitTargetReached, action.Reason)
	assert.Equal(t, id, action.PositionID)
	// P/L = (50-40)/100 * 10 = 1.00
	assert.InDelta(t, 1.0, action.ProfitLoss, 0.001)
	assert.Empty(t, m.ActivePositions())

	// La orden de salida es una venta del lado YES.
	require.Len(t, orders.placed, 2)
	assert.Equal(t, domain.OrderSell, orders.placed[1].Side)
	assert.Equal(t, 10, orders.placed[1].Size)
}

func TestManager_Monitor_StopLossYes(t *testing.T) {
	m := testManager(&fakeOrders{})
	enterPosition(t, m, rec("MKT", domain.SideYes, 10, 40)) // stop 35

	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 34, NoPrice: 68},
	})

	require.Len(t, actions, 1)
	assert.Equal(t, domain.ExitStopLoss, actions[0].Reason)
	// P/L = (34-40)/100 * 10 = -0.60
	assert.InDelta(t, -0.60, actions[0].ProfitLoss, 0.001)
}

func TestManager_Monitor_StopLossNoDirectionInverted(t *testing.T) {
	m := testManager(&fakeOrders{})
	enterPosition(t, m, rec("MKT", domain.SideNo, 10, 40)) // stop 35

	// Para NO el stop dispara cuando el precio NO sube por encima del stop.
	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 60, NoPrice: 36},
	})

	require.Len(t, actions, 1)
	assert.Equal(t, domain.ExitStopLoss, actions[0].Reason)
	// P/L invertido: (40-36)/100 * 10 = 0.40
	assert.InDelta(t, 0.40, actions[0].ProfitLoss, 0.001)
}

func TestManager_Monitor_TargetBeatsDynamicStop(t *testing.T) {
	m := testManager(&fakeOrders{})
	r := rec("MKT", domain.SideYes, 10, 40)
	r.TargetExitLow = 30
	r.TargetExitHigh = 34
	r.StopLoss = 1
	enterPosition(t, m, r)

	// 32 está en el rango objetivo Y es una caída del 20% (stop dinámico).
	// El orden fijo de evaluación hace ganar al target.
	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 32, NoPrice: 70},
	})

	require.Len(t, actions, 1)
	assert.Equal(t, domain.ExitTargetReached, actions[0].Reason)
}

func TestManager_Monitor_Expiration(t *testing.T) {
	m := testManager(&fakeOrders{})
	enterPosition(t, m, rec("MKT", domain.SideYes, 10, 40))

	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 42, NoPrice: 60, CloseTime: testTime.Add(3 * time.Minute)},
	})

	require.Len(t, actions, 1)
	assert.Equal(t, domain.ExitExpiration, actions[0].Reason)
}

func TestManager_Monitor_DynamicStop(t *testing.T) {
	m := testManager(&fakeOrders{})
	r := rec("MKT", domain.SideYes, 10, 40)
	r.StopLoss = 1 // fuera de alcance para aislar el stop dinámico
	enterPosition(t, m, r)

	// Caída del 20% sin tocar stop ni target.
	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 32, NoPrice: 70},
	})

	require.Len(t, actions, 1)
	assert.Equal(t, domain.ExitDynamicStop, actions[0].Reason)
}

func TestManager_Monitor_PartialProfit(t *testing.T) {
	m := testManager(&fakeOrders{})
	r := rec("MKT", domain.SideYes, 9, 40)
	r.TargetExitLow = 90
	r.TargetExitHigh = 95
	enterPosition(t, m, r)

	// +30% favorable, fuera del target: toma parcial de la mitad (floor).
	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 52, NoPrice: 50},
	})

	require.Len(t, actions, 1)
	action := actions[0]
	assert.Equal(t, domain.ExecPartialExit, action.Type)
	assert.Equal(t, domain.ExitPartialProfit, action.Reason)
	assert.Equal(t, 4, action.Contracts)
	assert.Equal(t, 5, action.Remaining)
	// P/L parcial = (52-40)/100 * 4 = 0.48
	assert.InDelta(t, 0.48, action.ProfitLoss, 0.001)

	positions := m.ActivePositions()
	require.Len(t, positions, 1)
	assert.Equal(t, 5, positions[0].Contracts)
	assert.Equal(t, domain.StatusPartiallyExited, positions[0].Status)
}

func TestManager_Monitor_NoPartialWithTwoContracts(t *testing.T) {
	m := testManager(&fakeOrders{})
	r := rec("MKT", domain.SideYes, 2, 40)
	r.TargetExitLow = 90
	r.TargetExitHigh = 95
	enterPosition(t, m, r)

	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 52, NoPrice: 50},
	})

	assert.Empty(t, actions)
	assert.Len(t, m.ActivePositions(), 1)
}

func TestManager_Monitor_UnknownTickerSkipped(t *testing.T) {
	m := testManager(&fakeOrders{})
	enterPosition(t, m, rec("MKT", domain.SideYes, 10, 40))

	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"OTHER": {YesPrice: 1, NoPrice: 99},
	})

	assert.Empty(t, actions)
	assert.Len(t, m.ActivePositions(), 1)
}

func TestManager_Monitor_FailedExitKeepsPosition(t *testing.T) {
	orders := &fakeOrders{}
	m := testManager(orders)
	enterPosition(t, m, rec("MKT", domain.SideYes, 10, 40))
	orders.failing = true

	actions := m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 50, NoPrice: 52},
	})

	assert.Empty(t, actions)
	// La posición sigue viva para el siguiente ciclo.
	positions := m.ActivePositions()
	require.Len(t, positions, 1)
	assert.Equal(t, domain.StatusActive, positions[0].Status)
}

func TestManager_Psychology_WinsAndLosses(t *testing.T) {
	m := testManager(&fakeOrders{})

	// Una ganancia y una pérdida.
	enterPosition(t, m, rec("WIN", domain.SideYes, 10, 40))
	m.Monitor(context.Background(), map[string]MarketPrice{
		"WIN": {YesPrice: 50, NoPrice: 52},
	})
	enterPosition(t, m, rec("LOSS", domain.SideYes, 10, 40))
	m.Monitor(context.Background(), map[string]MarketPrice{
		"LOSS": {YesPrice: 34, NoPrice: 68},
	})

	psych := m.Psychology()
	// +0.05 por la ganancia, -0.05 por la pérdida.
	assert.InDelta(t, 0.5, psych.MarketSentiment, 0.001)
	// El recency bias solo sube: 0.5 + 0.1 + 0.1.
	assert.InDelta(t, 0.7, psych.RecencyBias, 0.001)
}

func TestManager_Metrics_FromExitsOnly(t *testing.T) {
	m := testManager(&fakeOrders{})

	// Entrada + salida parcial + salida completa.
	r := rec("MKT", domain.SideYes, 9, 40)
	r.TargetExitLow = 90
	r.TargetExitHigh = 95
	enterPosition(t, m, r)

	m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 52, NoPrice: 50}, // parcial
	})
	m.Monitor(context.Background(), map[string]MarketPrice{
		"MKT": {YesPrice: 30, NoPrice: 72}, // stop: 30 <= 35
	})

	metrics := m.Metrics()
	// Solo la salida completa cuenta como trade.
	assert.Equal(t, 1, metrics.TotalTrades)
	assert.Equal(t, 0, metrics.WinningTrades)
	assert.Equal(t, 1, metrics.LosingTrades)
	// P/L de la salida completa: (30-40)/100 * 5 = -0.50
	assert.InDelta(t, -0.50, metrics.TotalProfit, 0.001)
	assert.InDelta(t, -0.50, metrics.AverageProfit, 0.001)
	assert.InDelta(t, 0.0, metrics.WinRate, 0.001)
}

func TestManager_Metrics_Empty(t *testing.T) {
	m := testManager(&fakeOrders{})
	metrics := m.Metrics()

	assert.Zero(t, metrics.TotalTrades)
	assert.Zero(t, metrics.WinRate)
	assert.Equal(t, domain.DefaultPsychState(), metrics.Psychology)
}
