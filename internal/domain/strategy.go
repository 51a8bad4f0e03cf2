package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScalingMode controla cómo se escala el tamaño de posición por oportunidad.
type ScalingMode string

const (
	ScalingEqual      ScalingMode = "equal"
	ScalingConfidence ScalingMode = "confidence"
	ScalingRisk       ScalingMode = "risk"
)

// ExecutionMode controla si las recomendaciones se ejecutan solas.
type ExecutionMode string

const (
	ModeManual ExecutionMode = "manual" // emite recomendación, espera aprobación
	ModeYolo   ExecutionMode = "yolo"   // ejecuta automáticamente
)

// PositionSizing es la política de tamaño de posición de una estrategia.
type PositionSizing struct {
	// MaxPerTrade es el porcentaje máximo del budget por trade, en (0, 100].
	MaxPerTrade float64     `yaml:"max_per_trade"`
	Scaling     ScalingMode `yaml:"scaling"`
}

// StrategyConfig define el comportamiento de una estrategia de usuario.
// Se valida al cargar; una config inválida nunca llega a estar activa.
type StrategyConfig struct {
	ID            string        `yaml:"id"`
	Budget        float64       `yaml:"budget"`         // dólares, > 0
	TargetProfit  float64       `yaml:"target_profit"`  // porcentaje, > 0
	Categories    []string      `yaml:"categories"`     // allowlist; vacío = todas
	TimeHorizon   string        `yaml:"time_horizon"`   // "30m" | "2h" | "1d" | "4" (horas)
	MaxPositions  int           `yaml:"max_positions"`  // > 0
	RiskLevel     int           `yaml:"risk_level"`     // 1-10
	MinConfidence float64       `yaml:"min_confidence"` // 0-100
	Sizing        PositionSizing `yaml:"position_sizing"`
	ExecutionMode ExecutionMode `yaml:"execution_mode"`
}

const defaultMaxPerTrade = 20.0

// Validate comprueba todos los parámetros de la estrategia.
// Falla cerrado: cualquier violación devuelve error y nada se aplica.
func (c StrategyConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("strategy: id is required")
	}
	if c.Budget <= 0 {
		return fmt.Errorf("strategy %s: budget must be positive, got %.2f", c.ID, c.Budget)
	}
	if c.TargetProfit <= 0 {
		return fmt.Errorf("strategy %s: target_profit must be positive, got %.2f", c.ID, c.TargetProfit)
	}
	if _, err := ParseTimeHorizon(c.TimeHorizon); err != nil {
		return fmt.Errorf("strategy %s: %w", c.ID, err)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("strategy %s: max_positions must be positive, got %d", c.ID, c.MaxPositions)
	}
	if c.RiskLevel < 1 || c.RiskLevel > 10 {
		return fmt.Errorf("strategy %s: risk_level must be 1-10, got %d", c.ID, c.RiskLevel)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("strategy %s: min_confidence must be 0-100, got %.1f", c.ID, c.MinConfidence)
	}
	if c.Sizing.MaxPerTrade != 0 && (c.Sizing.MaxPerTrade <= 0 || c.Sizing.MaxPerTrade > 100) {
		return fmt.Errorf("strategy %s: max_per_trade must be in (0, 100], got %.1f", c.ID, c.Sizing.MaxPerTrade)
	}
	switch c.Sizing.Scaling {
	case "", ScalingEqual, ScalingConfidence, ScalingRisk:
	default:
		return fmt.Errorf("strategy %s: unknown scaling mode %q", c.ID, c.Sizing.Scaling)
	}
	switch c.ExecutionMode {
	case "", ModeManual, ModeYolo:
	default:
		return fmt.Errorf("strategy %s: execution_mode must be manual or yolo, got %q", c.ID, c.ExecutionMode)
	}
	return nil
}

// MaxPerTrade devuelve el porcentaje por trade con el default aplicado.
func (c StrategyConfig) MaxPerTrade() float64 {
	if c.Sizing.MaxPerTrade <= 0 {
		return defaultMaxPerTrade
	}
	return c.Sizing.MaxPerTrade
}

// Scaling devuelve el modo de escalado con el default aplicado.
func (c StrategyConfig) Scaling() ScalingMode {
	if c.Sizing.Scaling == "" {
		return ScalingEqual
	}
	return c.Sizing.Scaling
}

// Mode devuelve el modo de ejecución con el default aplicado.
func (c StrategyConfig) Mode() ExecutionMode {
	if c.ExecutionMode == "" {
		return ModeManual
	}
	return c.ExecutionMode
}

// AllowsCategory devuelve true si la categoría pasa el allowlist.
// Un allowlist vacío permite todas las categorías.
func (c StrategyConfig) AllowsCategory(category string) bool {
	if len(c.Categories) == 0 || category == "" {
		return true
	}
	for _, cat := range c.Categories {
		if cat == category {
			return true
		}
	}
	return false
}

// ParseTimeHorizon parsea un horizonte temporal tipo "30m", "2h", "1d".
// Un número sin unidad se interpreta como horas.
func ParseTimeHorizon(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("time horizon is empty")
	}

	unit := time.Hour
	num := s
	switch {
	case strings.HasSuffix(s, "m"):
		unit = time.Minute
		num = s[:len(s)-1]
	case strings.HasSuffix(s, "h"):
		num = s[:len(s)-1]
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
		num = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time horizon %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("time horizon must be positive, got %q", s)
	}
	return time.Duration(v * float64(unit)), nil
}

// MarketConditions son los indicadores externos que disparan la adaptación
// de una estrategia. Todos en escala 0-1.
type MarketConditions struct {
	Volatility    float64
	TrendStrength float64
	Liquidity     float64
}
