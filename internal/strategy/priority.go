package strategy

import (
	"math"
	"sort"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// targetProfitBand es la distancia (en puntos porcentuales) al target
// de la estrategia dentro de la cual el score recibe el bonus.
const targetProfitBand = 5.0

// prioritizeOpportunities puntúa y ordena de mayor a menor score.
// El nivel de riesgo reparte el peso entre confianza y retorno:
// riesgo alto favorece retorno, riesgo bajo favorece confianza.
func prioritizeOpportunities(opps []domain.Opportunity, cfg domain.StrategyConfig) []domain.Opportunity {
	returnWeight := float64(cfg.RiskLevel) / 10
	confidenceWeight := 1 - returnWeight

	out := make([]domain.Opportunity, len(opps))
	copy(out, opps)

	for i := range out {
		score := float64(out[i].Confidence)*confidenceWeight + out[i].ExpectedReturn*returnWeight
		if math.Abs(out[i].ExpectedReturn-cfg.TargetProfit) < targetProfitBand {
			score *= 1.2
		}
		out[i].PriorityScore = score
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})
	return out
}
