package analysis

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	momentumThreshold  = 60
	meanRevThreshold   = 70
	sentimentThreshold = 70
)

// Detector analiza un snapshot de mercado y produce las oportunidades
// de trading que encuentre: momentum, reversión a la media, o puro
// sentiment cuando no hay patrones de precio.
type Detector struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewDetector crea un Detector con el logger dado.
func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{
		logger: logger,
		now:    time.Now,
	}
}

// Detect corre el pipeline completo de análisis sobre un snapshot:
// patrones de precio, psicología de mercado, y síntesis de oportunidades.
// Puede devolver una lista vacía; eso no es un error.
func (d *Detector) Detect(snap domain.MarketSnapshot) []domain.Opportunity {
	priceAnalysis := analyzePricePatterns(snap)
	psych := analyzeMarketPsychology(snap)

	opps := d.identify(snap, priceAnalysis, psych)
	if len(opps) > 0 {
		d.logger.Debug("opportunities detected",
			"ticker", snap.Ticker,
			"count", len(opps),
			"trend", priceAnalysis.Trend,
			"sentiment", psych.Sentiment,
		)
	}
	return opps
}

// identify sintetiza oportunidades a partir de los patrones y el sentiment.
// Sin ask válido (≤ 0) no hay oportunidad: nunca se dividen retornos por cero.
func (d *Detector) identify(snap domain.MarketSnapshot, pa domain.PriceAnalysis, psych domain.Psychology) []domain.Opportunity {
	var opps []domain.Opportunity

	hoursToClose := snap.HoursToClose(d.now())
	nearClose := hoursToClose < 1

	for _, p := range pa.Patterns {
		switch {
		case p.Name == domain.PatternMomentum && p.Strength > momentumThreshold:
			if opp, ok := d.momentumOpportunity(snap, p, psych, nearClose); ok {
				opps = append(opps, opp)
			}
		case p.Name == domain.PatternMeanReversion && p.Strength > meanRevThreshold:
			if opp, ok := d.meanRevOpportunity(snap, p, psych); ok {
				opps = append(opps, opp)
			}
		}
	}

	// Solo sentiment si ningún patrón de precio produjo nada.
	if len(opps) == 0 && psych.Confidence > sentimentThreshold {
		if opp, ok := d.sentimentOpportunity(snap, psych); ok {
			opps = append(opps, opp)
		}
	}

	return opps
}

func (d *Detector) momentumOpportunity(snap domain.MarketSnapshot, p domain.Pattern, psych domain.Psychology, nearClose bool) (domain.Opportunity, bool) {
	side := domain.SideYes
	aligned := domain.SentimentBullish
	contrary := domain.SentimentBearish
	if p.Direction == "down" {
		side = domain.SideNo
		aligned, contrary = contrary, aligned
	}

	ask := askFor(snap, side)
	if ask <= 0 {
		return domain.Opportunity{}, false
	}

	confidence := min(95, 50+p.Strength/2)
	switch psych.Sentiment {
	case aligned:
		confidence = min(95, confidence+psych.Confidence/4)
	case contrary:
		confidence = max(5, confidence-psych.Confidence/4)
	}
	if nearClose {
		confidence = min(95, confidence+10)
	}

	target := domain.ClampPrice(ask + 10)
	stop := domain.ClampPrice(ask - 5)
	er, _ := domain.ExpectedReturnPct(ask, target)

	word := "upward"
	if p.Direction == "down" {
		word = "downward"
	}

	return domain.Opportunity{
		Ticker:          snap.Ticker,
		Title:           snap.Title,
		Category:        snap.Category,
		Side:            side,
		EntryPrice:      ask,
		TargetPrice:     target,
		StopLoss:        stop,
		Confidence:      confidence,
		ExpectedReturn:  er,
		TimeSensitivity: sensitivity(nearClose),
		Reasoning: fmt.Sprintf("Strong %s momentum detected with %d%% strength. Market sentiment is %s with %d%% confidence.",
			word, p.Strength, psych.Sentiment, psych.Confidence),
		Pattern: p.Name,
		Factors: psych.Factors,
	}, true
}

func (d *Detector) meanRevOpportunity(snap domain.MarketSnapshot, p domain.Pattern, psych domain.Psychology) (domain.Opportunity, bool) {
	side := domain.SideYes
	aligned := domain.SentimentBullish
	reasoning := "Price significantly below historical average, potential upward reversion."
	if p.Direction == "down" {
		side = domain.SideNo
		aligned = domain.SentimentBearish
		reasoning = "Price significantly above historical average, potential downward reversion."
	}

	ask := askFor(snap, side)
	if ask <= 0 {
		return domain.Opportunity{}, false
	}

	// En reversión solo suma el sentiment que está de acuerdo; el
	// contrario no resta. El patrón ya apuesta contra el precio actual.
	confidence := min(90, 40+p.Strength/2)
	if psych.Sentiment == aligned {
		confidence = min(90, confidence+psych.Confidence/5)
	}

	target := domain.ClampPrice(ask + 15)
	stop := domain.ClampPrice(ask - 7)
	er, _ := domain.ExpectedReturnPct(ask, target)

	return domain.Opportunity{
		Ticker:          snap.Ticker,
		Title:           snap.Title,
		Category:        snap.Category,
		Side:            side,
		EntryPrice:      ask,
		TargetPrice:     target,
		StopLoss:        stop,
		Confidence:      confidence,
		ExpectedReturn:  er,
		TimeSensitivity: domain.SensitivityMedium,
		Reasoning: fmt.Sprintf("%s Strength: %d%%. Market sentiment: %s.",
			reasoning, p.Strength, psych.Sentiment),
		Pattern: p.Name,
		Factors: psych.Factors,
	}, true
}

func (d *Detector) sentimentOpportunity(snap domain.MarketSnapshot, psych domain.Psychology) (domain.Opportunity, bool) {
	var side domain.Side
	var pressure string
	switch psych.Sentiment {
	case domain.SentimentBullish:
		side = domain.SideYes
		pressure = "buying"
	case domain.SentimentBearish:
		side = domain.SideNo
		pressure = "selling"
	default:
		return domain.Opportunity{}, false
	}

	ask := askFor(snap, side)
	if ask <= 0 {
		return domain.Opportunity{}, false
	}

	target := domain.ClampPrice(ask + 8)
	stop := domain.ClampPrice(ask - 4)
	er, _ := domain.ExpectedReturnPct(ask, target)

	return domain.Opportunity{
		Ticker:          snap.Ticker,
		Title:           snap.Title,
		Category:        snap.Category,
		Side:            side,
		EntryPrice:      ask,
		TargetPrice:     target,
		StopLoss:        stop,
		Confidence:      min(85, psych.Confidence),
		ExpectedReturn:  er,
		TimeSensitivity: domain.SensitivityMedium,
		Reasoning: fmt.Sprintf("Strong %s market sentiment with %d%% confidence. Order book and trade flow indicate %s pressure.",
			psych.Sentiment, psych.Confidence, pressure),
		Pattern: domain.PatternSentiment,
		Factors: psych.Factors,
	}, true
}

// askFor devuelve el precio de entrada (ask) del lado correspondiente.
func askFor(snap domain.MarketSnapshot, side domain.Side) int {
	if side == domain.SideYes {
		return snap.YesAsk
	}
	return snap.NoAsk
}

func sensitivity(nearClose bool) domain.TimeSensitivity {
	if nearClose {
		return domain.SensitivityHigh
	}
	return domain.SensitivityMedium
}
