package domain

import "math"

// Trend es la dirección general del precio según las medias móviles.
type Trend string

const (
	TrendUnknown Trend = "unknown" // historia insuficiente
	TrendNeutral Trend = "neutral"
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
)

// Sentiment resume la psicología del mercado (order book + trade flow).
type Sentiment string

const (
	SentimentNeutral Sentiment = "neutral"
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
)

// PriceAnalysis es el resultado del análisis de patrones de precio.
type PriceAnalysis struct {
	Trend    Trend
	Strength int // 0-100
	Patterns []Pattern
}

// Pattern es un patrón detectado en la serie de precios.
type Pattern struct {
	Name      string // "momentum" | "mean_reversion"
	Direction string // "up" | "down"
	Strength  int    // 0-100
}

const (
	PatternMomentum      = "momentum"
	PatternMeanReversion = "mean_reversion"
	PatternSentiment     = "sentiment"
)

// Psychology es el resultado del análisis de psicología de mercado.
type Psychology struct {
	Sentiment  Sentiment
	Confidence int // 0-100, siempre acotado
	Factors    []Factor
}

// Factor es una señal individual que contribuye al sentiment.
// La misma lista alimenta el reasoning de las recomendaciones,
// para que la explicación textual coincida con los números.
type Factor struct {
	Name      string // "order_imbalance" | "trade_flow" | "trade_acceleration" | "high_volatility"
	Direction string // "bullish" | "bearish" | "neutral"
	Strength  int    // 0-100
}

// NeutralPsychology es el resultado por defecto cuando no hay datos suficientes.
func NeutralPsychology() Psychology {
	return Psychology{Sentiment: SentimentNeutral, Confidence: 50}
}

// SMA devuelve la media simple de los últimos n precios.
// Devuelve 0 si no hay suficientes puntos.
func SMA(prices []int, n int) float64 {
	if n <= 0 || len(prices) < n {
		return 0
	}
	sum := 0
	for _, p := range prices[len(prices)-n:] {
		sum += p
	}
	return float64(sum) / float64(n)
}

// MeanStdDev devuelve media y desviación estándar (poblacional) de la serie.
func MeanStdDev(prices []int) (mean, stddev float64) {
	if len(prices) == 0 {
		return 0, 0
	}
	sum := 0
	for _, p := range prices {
		sum += p
	}
	mean = float64(sum) / float64(len(prices))

	var sq float64
	for _, p := range prices {
		d := float64(p) - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(prices)))
	return mean, stddev
}

// ClampConfidence acota un valor de confianza al rango [0, 100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// ClampPrice acota un precio al rango válido de contratos [1, 99].
func ClampPrice(p int) int {
	if p < 1 {
		return 1
	}
	if p > 99 {
		return 99
	}
	return p
}
