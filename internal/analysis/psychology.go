package analysis

import (
	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	imbalanceBullish = 0.6
	imbalanceBearish = 0.4
	minTradesForFlow = 5
	minTradesForRate = 10
	hotTradesPerMin  = 5.0
	highVolatilityCV = 0.1
)

// analyzeMarketPsychology deriva el sentiment del order book y los trades
// recientes. Cada señal suma o resta confianza; el resultado queda acotado
// a [0, 100]. Sin datos suficientes devuelve neutral/50.
func analyzeMarketPsychology(snap domain.MarketSnapshot) domain.Psychology {
	psych := domain.NeutralPsychology()

	// Desequilibrio del order book: presión compradora vs vendedora en YES.
	bidVol := snap.Book.YesBidVolume()
	askVol := snap.Book.YesAskVolume()
	if bidVol > 0 && askVol > 0 {
		ratio := float64(bidVol) / float64(bidVol+askVol)
		if ratio > imbalanceBullish {
			psych.Factors = append(psych.Factors, domain.Factor{
				Name:      "order_imbalance",
				Direction: "bullish",
				Strength:  capStrength(ratio * 100),
			})
			psych.Sentiment = domain.SentimentBullish
			psych.Confidence += 10
		} else if ratio < imbalanceBearish {
			psych.Factors = append(psych.Factors, domain.Factor{
				Name:      "order_imbalance",
				Direction: "bearish",
				Strength:  capStrength((1 - ratio) * 100),
			})
			psych.Sentiment = domain.SentimentBearish
			psych.Confidence += 10
		}
	}

	if len(snap.RecentTrades) >= minTradesForFlow {
		analyzeTradeFlow(snap.RecentTrades, &psych)
		analyzeTradeRate(snap.RecentTrades, &psych)
	}

	// Volatilidad alta resta confianza: las demás señales son menos fiables.
	if prices := snap.YesPrices(); len(prices) >= 10 {
		mean, stddev := domain.MeanStdDev(prices)
		if mean > 0 {
			cv := stddev / mean
			if cv > highVolatilityCV {
				psych.Factors = append(psych.Factors, domain.Factor{
					Name:      "high_volatility",
					Direction: "neutral",
					Strength:  capStrength(cv * 500),
				})
				psych.Confidence -= 5
			}
		}
	}

	psych.Confidence = domain.ClampConfidence(psych.Confidence)
	return psych
}

// analyzeTradeFlow compara volumen comprado vs vendido del lado YES.
// Si el flujo confirma el sentiment del order book suma +15; si lo
// contradice, el flujo manda pero solo suma +5.
func analyzeTradeFlow(trades []domain.Trade, psych *domain.Psychology) {
	var buyVol, sellVol int
	for _, t := range trades {
		if t.Type != domain.SideYes {
			continue
		}
		switch t.Side {
		case "buy":
			buyVol += t.Count
		case "sell":
			sellVol += t.Count
		}
	}
	if buyVol == 0 || sellVol == 0 {
		return
	}

	ratio := float64(buyVol) / float64(buyVol+sellVol)
	switch {
	case ratio > imbalanceBullish:
		psych.Factors = append(psych.Factors, domain.Factor{
			Name:      "trade_flow",
			Direction: "bullish",
			Strength:  capStrength(ratio * 100),
		})
		if psych.Sentiment == domain.SentimentBullish {
			psych.Confidence += 15
		} else {
			psych.Sentiment = domain.SentimentBullish
			psych.Confidence += 5
		}
	case ratio < imbalanceBearish:
		psych.Factors = append(psych.Factors, domain.Factor{
			Name:      "trade_flow",
			Direction: "bearish",
			Strength:  capStrength((1 - ratio) * 100),
		})
		if psych.Sentiment == domain.SentimentBearish {
			psych.Confidence += 15
		} else {
			psych.Sentiment = domain.SentimentBearish
			psych.Confidence += 5
		}
	}
}

// analyzeTradeRate detecta aceleración en la frecuencia de trades.
// Los trades llegan con el más reciente primero, así que el span va
// del último elemento al primero.
func analyzeTradeRate(trades []domain.Trade, psych *domain.Psychology) {
	if len(trades) < minTradesForRate {
		return
	}
	newest := trades[0].Time
	oldest := trades[len(trades)-1].Time
	if newest.IsZero() || oldest.IsZero() {
		return
	}

	span := newest.Sub(oldest).Seconds()
	if span <= 0 {
		return
	}
	perMinute := float64(len(trades)) / (span / 60)
	if perMinute > hotTradesPerMin {
		psych.Factors = append(psych.Factors, domain.Factor{
			Name:      "trade_acceleration",
			Direction: string(psych.Sentiment),
			Strength:  capStrength(perMinute * 10),
		})
		psych.Confidence += 5
	}
}
