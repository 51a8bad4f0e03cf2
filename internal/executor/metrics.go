package executor

import "github.com/alejandrodnm/kalshibot/internal/domain"

// Metrics calcula las métricas de rendimiento a partir del log de
// ejecución. Solo cuentan las salidas completas; las parciales mueven
// la psicología pero no el recuento de trades.
func (m *Manager) Metrics() domain.PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var metrics domain.PerformanceMetrics
	for _, rec := range m.history {
		if rec.Type != domain.ExecExit {
			continue
		}
		metrics.TotalTrades++
		if rec.ProfitLoss > 0 {
			metrics.WinningTrades++
		} else {
			metrics.LosingTrades++
		}
		metrics.TotalProfit += rec.ProfitLoss
	}

	if metrics.TotalTrades > 0 {
		metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100
		metrics.AverageProfit = metrics.TotalProfit / float64(metrics.TotalTrades)
	}
	metrics.Psychology = m.psych
	return metrics
}

// Psychology devuelve una copia del estado psicológico actual.
func (m *Manager) Psychology() domain.PsychState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.psych
}
