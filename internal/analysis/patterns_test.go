package analysis

import (
	"testing"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapWithPrices(prices []int) domain.MarketSnapshot {
	history := make([]domain.PricePoint, 0, len(prices))
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range prices {
		history = append(history, domain.PricePoint{
			YesPrice: p,
			Time:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	return domain.MarketSnapshot{
		Ticker:  "TEST-MARKET",
		History: history,
	}
}

func TestAnalyzePricePatterns_InsufficientHistory(t *testing.T) {
	pa := analyzePricePatterns(snapWithPrices([]int{40, 42, 44}))

	assert.Equal(t, domain.TrendUnknown, pa.Trend)
	assert.Zero(t, pa.Strength)
	assert.Empty(t, pa.Patterns)
}

func TestAnalyzePricePatterns_MomentumUp(t *testing.T) {
	// Subida estricta: (18-10)/10*100 = 80
	pa := analyzePricePatterns(snapWithPrices([]int{10, 12, 14, 16, 18}))

	require.Len(t, pa.Patterns, 1)
	p := pa.Patterns[0]
	assert.Equal(t, domain.PatternMomentum, p.Name)
	assert.Equal(t, "up", p.Direction)
	assert.Equal(t, 80, p.Strength)

	// Con solo 5 puntos no hay SMAs de 10: tendencia neutral.
	assert.Equal(t, domain.TrendNeutral, pa.Trend)
}

func TestAnalyzePricePatterns_MomentumDown(t *testing.T) {
	pa := analyzePricePatterns(snapWithPrices([]int{50, 45, 40, 35, 30}))

	require.Len(t, pa.Patterns, 1)
	p := pa.Patterns[0]
	assert.Equal(t, domain.PatternMomentum, p.Name)
	assert.Equal(t, "down", p.Direction)
	assert.Equal(t, 40, p.Strength)
}

func TestAnalyzePricePatterns_NoMomentumOnPlateau(t *testing.T) {
	// Un empate rompe la monotonía estricta.
	pa := analyzePricePatterns(snapWithPrices([]int{10, 12, 12, 16, 18}))
	assert.Empty(t, pa.Patterns)
}

func TestAnalyzePricePatterns_MeanReversionDown(t *testing.T) {
	// 10x45 + 10x55: media 50, desviación 5. Bid 60 → z = 2 → down, strength 40.
	prices := make([]int, 0, 20)
	for i := 0; i < 10; i++ {
		prices = append(prices, 45)
	}
	for i := 0; i < 10; i++ {
		prices = append(prices, 55)
	}
	snap := snapWithPrices(prices)
	snap.YesBid = 60

	pa := analyzePricePatterns(snap)

	require.Len(t, pa.Patterns, 1)
	p := pa.Patterns[0]
	assert.Equal(t, domain.PatternMeanReversion, p.Name)
	assert.Equal(t, "down", p.Direction)
	assert.Equal(t, 40, p.Strength)
}

func TestAnalyzePricePatterns_MeanReversionUp(t *testing.T) {
	prices := make([]int, 0, 20)
	for i := 0; i < 10; i++ {
		prices = append(prices, 45)
	}
	for i := 0; i < 10; i++ {
		prices = append(prices, 55)
	}
	snap := snapWithPrices(prices)
	snap.YesBid = 40 // z = -2

	pa := analyzePricePatterns(snap)

	require.Len(t, pa.Patterns, 1)
	assert.Equal(t, "up", pa.Patterns[0].Direction)
	assert.Equal(t, 40, pa.Patterns[0].Strength)
}

func TestAnalyzePricePatterns_MeanReversionWithinBand(t *testing.T) {
	prices := make([]int, 0, 20)
	for i := 0; i < 10; i++ {
		prices = append(prices, 45, 55)
	}
	snap := snapWithPrices(prices[:20])
	snap.YesBid = 52 // |z| = 0.4, dentro de la banda

	pa := analyzePricePatterns(snap)
	assert.Empty(t, pa.Patterns)
}

func TestAnalyzePricePatterns_TrendFromSMAs(t *testing.T) {
	// Diez puntos crecientes pero con un empate para no disparar momentum.
	pa := analyzePricePatterns(snapWithPrices([]int{40, 41, 42, 43, 44, 45, 46, 47, 47, 48}))

	assert.Equal(t, domain.TrendBullish, pa.Trend)
	assert.Greater(t, pa.Strength, 0)
}

func TestAnalyzePricePatterns_ConstantSeries(t *testing.T) {
	prices := make([]int, 20)
	for i := range prices {
		prices[i] = 50
	}
	snap := snapWithPrices(prices)
	snap.YesBid = 50

	pa := analyzePricePatterns(snap)

	// Desviación cero: sin z-score, sin patrones, tendencia neutral.
	assert.Equal(t, domain.TrendNeutral, pa.Trend)
	assert.Empty(t, pa.Patterns)
}
