package strategy

import (
	"math"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// riskScalingDampen atenúa cuánto reduce el riesgo el tamaño de posición
// en modo "risk": una oportunidad de riesgo máximo conserva el 20%.
const riskScalingDampen = 0.8

// sizeOpportunities decora cada oportunidad con contratos, coste y
// retorno esperado en dólares según la política de sizing.
func sizeOpportunities(opps []domain.Opportunity, cfg domain.StrategyConfig) []domain.Opportunity {
	maxAmount := cfg.Budget * cfg.MaxPerTrade() / 100

	out := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		size := maxAmount
		switch cfg.Scaling() {
		case domain.ScalingConfidence:
			size = maxAmount * float64(opp.Confidence) / 100
		case domain.ScalingRisk:
			riskScore := 1 - float64(opp.Confidence)/100
			size = maxAmount * (1 - riskScore*riskScalingDampen)
		}

		// contracts = floor(size / precio en dólares), nunca menos de 1:
		// una oportunidad que pasó el filtro siempre compra algo.
		contracts := 0
		if opp.EntryPrice > 0 {
			contracts = int(math.Floor(size / (float64(opp.EntryPrice) / 100)))
		}
		if contracts < 1 {
			contracts = 1
		}

		opp.Contracts = contracts
		opp.Cost = float64(contracts*opp.EntryPrice) / 100

		if pct, ok := domain.ExpectedReturnPct(opp.EntryPrice, opp.TargetPrice); ok {
			opp.ExpectedReturn = pct
			opp.ExpectedAmount = opp.Cost * pct / 100
		}

		out = append(out, opp)
	}
	return out
}
