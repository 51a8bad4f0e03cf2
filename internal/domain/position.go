package domain

import "time"

// PositionStatus es el estado del ciclo de vida de una posición.
type PositionStatus string

const (
	StatusPendingApproval PositionStatus = "pending_approval" // modo manual, fuera del mapa activo
	StatusActive          PositionStatus = "active"
	StatusPartiallyExited PositionStatus = "partially_exited" // contratos reducidos, sigue activa
	StatusClosed          PositionStatus = "closed"           // terminal
	StatusFailed          PositionStatus = "failed"           // terminal, la entrada falló
)

// ExitReason clasifica por qué se cerró (total o parcialmente) una posición.
// El orden de evaluación en el monitor es fijo: target > stop > expiración >
// stop dinámico > toma parcial de beneficios.
type ExitReason string

const (
	ExitTargetReached ExitReason = "target_reached"
	ExitStopLoss      ExitReason = "stop_loss"
	ExitExpiration    ExitReason = "expiration"
	ExitDynamicStop   ExitReason = "dynamic_stop"
	ExitPartialProfit ExitReason = "partial_profit"
)

// Recommendation es una oportunidad ya dimensionada y priorizada,
// lista para entrar (con aprobación manual o ejecución automática).
type Recommendation struct {
	ID         string
	StrategyID string
	Ticker     string
	Title      string
	Side       Side

	EntryPrice int // centavos
	Contracts  int // >= 1
	Cost       float64

	TargetExitLow  int // rango de salida objetivo, centavos
	TargetExitHigh int
	StopLoss       int

	Confidence     int
	ExpectedReturn float64 // porcentaje
	TimeWindow     string
	Reasoning      string

	CreatedAt time.Time
	Status    PositionStatus
}

// Position es una posición viva resultante de ejecutar una recomendación.
// Solo el PositionManager la muta.
type Position struct {
	ID               string
	RecommendationID string
	StrategyID       string
	Ticker           string
	Side             Side

	Contracts  int
	EntryPrice int
	EntryTime  time.Time

	TargetExitLow  int
	TargetExitHigh int
	StopLoss       int

	Status  PositionStatus
	OrderID string

	// Rellenados al cerrar.
	ExitPrice  int
	ExitTime   time.Time
	ExitReason ExitReason
	ProfitLoss float64
}

// ExecutionType es el tipo de registro en el histórico de ejecución.
type ExecutionType string

const (
	ExecEntry       ExecutionType = "entry"
	ExecExit        ExecutionType = "exit"
	ExecPartialExit ExecutionType = "partial_exit"
)

// ExecutionRecord es una entrada inmutable del log de ejecución.
// Es la fuente de verdad para las métricas de rendimiento.
type ExecutionRecord struct {
	Type       ExecutionType
	PositionID string
	StrategyID string
	Ticker     string
	Side       Side
	Contracts  int
	Price      int
	Reason     ExitReason // vacío en entries
	ProfitLoss float64    // 0 en entries
	Remaining  int        // contratos restantes tras un partial_exit
	Timestamp  time.Time
}

// ProfitLoss calcula el P/L en dólares de cerrar contracts a exitPrice
// habiendo entrado a entryPrice. Para NO la dirección se invierte.
func ProfitLoss(side Side, entryPrice, exitPrice, contracts int) float64 {
	if side == SideYes {
		return float64(exitPrice-entryPrice) / 100 * float64(contracts)
	}
	return float64(entryPrice-exitPrice) / 100 * float64(contracts)
}

// PsychState es el modelo de sesgos psicológicos del gestor de posiciones.
// Escalares acotados en [0, 1]; solo se mutan al cerrar una posición.
type PsychState struct {
	MarketSentiment float64 // 0 = miedo, 1 = codicia
	CrowdBehavior   float64 // 0 = contrarian, 1 = momentum
	RecencyBias     float64 // 0 = débil, 1 = fuerte
}

// DefaultPsychState es el estado neutro con el que arranca cada manager.
func DefaultPsychState() PsychState {
	return PsychState{MarketSentiment: 0.5, CrowdBehavior: 0.5, RecencyBias: 0.5}
}

// PerformanceMetrics resume los resultados realizados de un manager.
// Derivadas exclusivamente de los ExecutionRecord de tipo exit.
type PerformanceMetrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // porcentaje
	TotalProfit   float64
	AverageProfit float64
	Psychology    PsychState
}
