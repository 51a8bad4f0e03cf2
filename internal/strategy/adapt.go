package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Adapt ajusta los parámetros de una estrategia según las condiciones
// de mercado y devuelve la configuración resultante. Las posiciones y
// el rendimiento acumulado se conservan.
//
// Reglas:
//   - volatilidad alta baja el riesgo (-2, mínimo 1); baja lo sube (+1, máximo 10)
//   - tendencia fuerte agranda posiciones (×1.2, tope 50%); débil las encoge (×0.8, suelo 5%)
//   - liquidez baja exige más confianza (+10, tope 90); alta relaja (-5, suelo 50)
func (p *Processor) Adapt(strategyID string, cond domain.MarketConditions) (domain.StrategyConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.strategies[strategyID]
	if !ok {
		return domain.StrategyConfig{}, fmt.Errorf("strategy.Adapt: strategy %s not found", strategyID)
	}

	cfg := st.cfg

	if cond.Volatility > 0.7 {
		cfg.RiskLevel = max(1, cfg.RiskLevel-2)
	} else if cond.Volatility < 0.3 {
		cfg.RiskLevel = min(10, cfg.RiskLevel+1)
	}

	maxPerTrade := cfg.MaxPerTrade()
	if cond.TrendStrength > 0.7 {
		maxPerTrade = math.Min(50, maxPerTrade*1.2)
	} else if cond.TrendStrength < 0.3 {
		maxPerTrade = math.Max(5, maxPerTrade*0.8)
	}
	cfg.Sizing.MaxPerTrade = maxPerTrade

	if cond.Liquidity < 0.3 {
		cfg.MinConfidence = math.Min(90, cfg.MinConfidence+10)
	} else if cond.Liquidity > 0.7 {
		cfg.MinConfidence = math.Max(50, cfg.MinConfidence-5)
	}

	st.cfg = cfg
	p.logger.Info("strategy adapted",
		"strategy", strategyID,
		"risk", cfg.RiskLevel,
		"max_per_trade", maxPerTrade,
		"min_confidence", cfg.MinConfidence,
	)
	return cfg, nil
}
