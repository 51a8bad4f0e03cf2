package analysis

import (
	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	minHistoryPoints  = 5
	trendPoints       = 10
	meanRevPoints     = 20
	momentumWindow    = 5
	meanRevZThreshold = 1.5
)

// analyzePricePatterns detecta tendencia y patrones sobre el histórico.
// Con menos de 5 puntos degrada a {unknown, 0, sin patrones}.
func analyzePricePatterns(snap domain.MarketSnapshot) domain.PriceAnalysis {
	prices := snap.YesPrices()
	if len(prices) < minHistoryPoints {
		return domain.PriceAnalysis{Trend: domain.TrendUnknown}
	}

	analysis := domain.PriceAnalysis{Trend: domain.TrendNeutral}

	if len(prices) >= trendPoints {
		sma5 := domain.SMA(prices, 5)
		sma10 := domain.SMA(prices, 10)
		switch {
		case sma5 > sma10:
			analysis.Trend = domain.TrendBullish
			analysis.Strength = capStrength((sma5 - sma10) / sma10 * 1000)
		case sma5 < sma10:
			analysis.Trend = domain.TrendBearish
			analysis.Strength = capStrength((sma10 - sma5) / sma10 * 1000)
		}
	}

	if p, ok := momentumPattern(prices); ok {
		analysis.Patterns = append(analysis.Patterns, p)
	}
	if p, ok := meanReversionPattern(prices, snap.YesBid); ok {
		analysis.Patterns = append(analysis.Patterns, p)
	}

	return analysis
}

// momentumPattern detecta una racha estrictamente monótona en los últimos
// 5 precios. Strength = |Δ| relativo al primer precio de la ventana.
func momentumPattern(prices []int) (domain.Pattern, bool) {
	if len(prices) < momentumWindow {
		return domain.Pattern{}, false
	}
	window := prices[len(prices)-momentumWindow:]
	first, last := window[0], window[len(window)-1]
	if first == 0 {
		return domain.Pattern{}, false
	}

	if strictlyIncreasing(window) {
		return domain.Pattern{
			Name:      domain.PatternMomentum,
			Direction: "up",
			Strength:  capStrength(float64(last-first) / float64(first) * 100),
		}, true
	}
	if strictlyDecreasing(window) {
		return domain.Pattern{
			Name:      domain.PatternMomentum,
			Direction: "down",
			Strength:  capStrength(float64(first-last) / float64(first) * 100),
		}, true
	}
	return domain.Pattern{}, false
}

// meanReversionPattern calcula el z-score del bid actual contra los últimos
// 20 precios. |z| > 1.5 emite un patrón en dirección contraria a la desviación.
func meanReversionPattern(prices []int, currentBid int) (domain.Pattern, bool) {
	if len(prices) < meanRevPoints {
		return domain.Pattern{}, false
	}
	mean, stddev := domain.MeanStdDev(prices[len(prices)-meanRevPoints:])
	if stddev == 0 {
		return domain.Pattern{}, false
	}

	z := (float64(currentBid) - mean) / stddev
	switch {
	case z > meanRevZThreshold:
		return domain.Pattern{
			Name:      domain.PatternMeanReversion,
			Direction: "down",
			Strength:  capStrength(abs(z) * 20),
		}, true
	case z < -meanRevZThreshold:
		return domain.Pattern{
			Name:      domain.PatternMeanReversion,
			Direction: "up",
			Strength:  capStrength(abs(z) * 20),
		}, true
	}
	return domain.Pattern{}, false
}

func strictlyIncreasing(prices []int) bool {
	for i := 0; i < len(prices)-1; i++ {
		if prices[i] >= prices[i+1] {
			return false
		}
	}
	return true
}

func strictlyDecreasing(prices []int) bool {
	for i := 0; i < len(prices)-1; i++ {
		if prices[i] <= prices[i+1] {
			return false
		}
	}
	return true
}

// capStrength trunca a entero y acota a 100, como el resto de strengths.
func capStrength(v float64) int {
	n := int(v)
	if n > 100 {
		return 100
	}
	return n
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
