package strategy

import (
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// filterOpportunities descarta las oportunidades que no pasan los
// criterios de la estrategia: confianza mínima, categoría permitida
// y ventana temporal dentro del horizonte.
func filterOpportunities(opps []domain.Opportunity, cfg domain.StrategyConfig, now time.Time) []domain.Opportunity {
	horizon, _ := domain.ParseTimeHorizon(cfg.TimeHorizon)
	horizonHours := horizon.Hours()

	var out []domain.Opportunity
	for _, opp := range opps {
		if float64(opp.Confidence) < cfg.MinConfidence {
			continue
		}
		if !cfg.AllowsCategory(opp.Category) {
			continue
		}
		if !withinTimeHorizon(opp.TimeWindow, horizonHours, now) {
			continue
		}
		out = append(out, opp)
	}
	return out
}

// withinTimeHorizon comprueba si el final de la ventana "HH:MM-HH:MM"
// cae dentro del horizonte de la estrategia. La distancia se mide en
// horas enteras módulo 24 (la ventana no lleva fecha). Una ventana
// ausente o no parseable no filtra.
func withinTimeHorizon(window string, horizonHours float64, now time.Time) bool {
	if window == "" || horizonHours <= 0 {
		return true
	}
	endHour, ok := windowEndHour(window)
	if !ok {
		return true
	}
	hoursDiff := (endHour - now.Hour() + 24) % 24
	return float64(hoursDiff) <= horizonHours
}

// windowEndHour extrae la hora de cierre de una ventana "HH:MM-HH:MM".
// Tolera sufijos tipo " EDT" tras la hora final.
func windowEndHour(window string) (int, bool) {
	parts := strings.SplitN(window, "-", 2)
	if len(parts) != 2 {
		return 0, false
	}
	end := strings.TrimSpace(parts[1])
	if i := strings.IndexByte(end, ' '); i >= 0 {
		end = end[:i]
	}
	hhmm := strings.SplitN(end, ":", 2)
	if len(hhmm) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(hhmm[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
