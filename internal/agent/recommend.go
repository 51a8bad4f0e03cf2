package agent

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// stopLossFraction coloca el stop al 33% de la ganancia esperada,
// en dirección contraria a la posición.
const stopLossFraction = 0.33

// maxRecommendations limita cuántas recomendaciones salen por ciclo.
const maxRecommendations = 10

// buildRecommendation convierte una oportunidad ya dimensionada en una
// recomendación estructurada lista para presentar o ejecutar.
func buildRecommendation(strategyID string, opp domain.Opportunity, snap domain.MarketSnapshot, now time.Time) domain.Recommendation {
	priceDiff := math.Abs(float64(opp.TargetPrice - opp.EntryPrice))

	var stop float64
	if opp.Side == domain.SideYes {
		stop = float64(opp.EntryPrice) - priceDiff*stopLossFraction
	} else {
		stop = float64(opp.EntryPrice) + priceDiff*stopLossFraction
	}
	stopLoss := domain.ClampPrice(int(math.Round(stop)))

	expectedReturn := 0.0
	if pct, ok := domain.ExpectedReturnPct(opp.EntryPrice, opp.TargetPrice); ok {
		expectedReturn = pct
	}

	timeWindow := opp.TimeWindow
	if timeWindow == "" && !snap.CloseTime.IsZero() {
		timeWindow = fmt.Sprintf("%s-%s", now.Format("15:04"), snap.CloseTime.Format("15:04"))
	}

	return domain.Recommendation{
		ID:             uuid.New().String()[:8],
		StrategyID:     strategyID,
		Ticker:         opp.Ticker,
		Title:          opp.Title,
		Side:           opp.Side,
		EntryPrice:     opp.EntryPrice,
		Contracts:      opp.Contracts,
		Cost:           opp.Cost,
		TargetExitLow:  domain.ClampPrice(opp.TargetPrice - 2),
		TargetExitHigh: domain.ClampPrice(opp.TargetPrice + 2),
		StopLoss:       stopLoss,
		Confidence:     opp.Confidence,
		ExpectedReturn: expectedReturn,
		TimeWindow:     timeWindow,
		Reasoning:      buildReasoning(opp, snap),
		CreatedAt:      now,
		Status:         domain.StatusPendingApproval,
	}
}

// buildReasoning compone la explicación textual de la recomendación a
// partir del razonamiento del detector, el patrón, la presión del
// order book y el objetivo de salida. La misma información que usó el
// análisis, en prosa.
func buildReasoning(opp domain.Opportunity, snap domain.MarketSnapshot) string {
	var parts []string

	if opp.Reasoning != "" {
		parts = append(parts, opp.Reasoning)
	}

	direction := "upward"
	if opp.Side == domain.SideNo {
		direction = "downward"
	}
	switch opp.Pattern {
	case domain.PatternMomentum:
		parts = append(parts, fmt.Sprintf("Market showing strong %s momentum.", direction))
	case domain.PatternMeanReversion:
		parts = append(parts, fmt.Sprintf("Price deviation suggests %s reversion toward the historical mean.", direction))
	case domain.PatternSentiment:
		parts = append(parts, fmt.Sprintf("Market sentiment and order book analysis suggest %s price movement.", direction))
	}

	bidVol := snap.Book.YesBidVolume()
	askVol := snap.Book.YesAskVolume()
	if bidVol > 0 && askVol > 0 {
		if opp.Side == domain.SideYes && bidVol > askVol {
			parts = append(parts, fmt.Sprintf("Order book shows %d/%d bid/ask volume ratio, indicating buying pressure.", bidVol, askVol))
		} else if opp.Side == domain.SideNo && askVol > bidVol {
			parts = append(parts, fmt.Sprintf("Order book shows %d/%d bid/ask volume ratio, indicating selling pressure.", bidVol, askVol))
		}
	}

	if pct, ok := domain.ExpectedReturnPct(opp.EntryPrice, opp.TargetPrice); ok {
		change := "increase"
		if opp.TargetPrice < opp.EntryPrice {
			change = "decrease"
		}
		parts = append(parts, fmt.Sprintf("Target exit at %d¢ represents a %.1f%% %s from current price.",
			opp.TargetPrice, math.Abs(pct), change))
	}

	return strings.Join(parts, " ")
}

// prioritizeRecommendations ordena por score con la confianza pesando
// más que el retorno (0.7/0.3) y recorta al máximo por ciclo.
func prioritizeRecommendations(recs []domain.Recommendation) []domain.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return recScore(recs[i]) > recScore(recs[j])
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func recScore(r domain.Recommendation) float64 {
	return float64(r.Confidence)*0.7 + r.ExpectedReturn*0.3
}
