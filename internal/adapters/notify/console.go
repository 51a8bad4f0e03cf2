// Package notify presenta recomendaciones y rendimiento por consola.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify imprime las recomendaciones como tabla, ordenadas por prioridad.
func (c *Console) Notify(_ context.Context, recs []domain.Recommendation) error {
	now := time.Now().Format("15:04:05")
	if len(recs) == 0 {
		fmt.Fprintf(c.out, "[%s] no recommendations this cycle\n", now)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d recommendations\n", now, len(recs))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Ticker", "Side", "Entry", "Qty", "Cost", "Target", "Stop", "Conf", "ER%", "Window")

	for i, rec := range recs {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(rec.Ticker, 20),
			string(rec.Side),
			fmt.Sprintf("%d¢", rec.EntryPrice),
			fmt.Sprintf("%d", rec.Contracts),
			fmt.Sprintf("$%.2f", rec.Cost),
			fmt.Sprintf("%d-%d¢", rec.TargetExitLow, rec.TargetExitHigh),
			fmt.Sprintf("%d¢", rec.StopLoss),
			fmt.Sprintf("%d%%", rec.Confidence),
			fmt.Sprintf("%.1f", rec.ExpectedReturn),
			rec.TimeWindow,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Entry = ask actual | Target = rango de salida | Stop = stop-loss")
	fmt.Fprintln(c.out, "  Conf = confianza de la señal | ER% = retorno esperado al target")

	for i, rec := range recs {
		fmt.Fprintf(c.out, "\n  #%d %s [%s]\n     %s\n", i+1, rec.Ticker, rec.ID, rec.Reasoning)
	}
	fmt.Fprintln(c.out)

	return nil
}

// PrintPerformance imprime el resumen de resultados realizados.
func (c *Console) PrintPerformance(m domain.PerformanceMetrics) {
	fmt.Fprintf(c.out, "\n=== PERFORMANCE ===\n")
	if m.TotalTrades == 0 {
		fmt.Fprintln(c.out, "  No completed trades yet.")
		return
	}

	fmt.Fprintf(c.out, "  Trades:       %d (%d W / %d L)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(c.out, "  Win rate:     %.1f%%\n", m.WinRate)
	fmt.Fprintf(c.out, "  Total P/L:    $%.2f\n", m.TotalProfit)
	fmt.Fprintf(c.out, "  Avg P/L:      $%.2f per trade\n", m.AverageProfit)
	fmt.Fprintf(c.out, "  Psychology:   sentiment %.2f | crowd %.2f | recency %.2f\n",
		m.Psychology.MarketSentiment, m.Psychology.CrowdBehavior, m.Psychology.RecencyBias)
	fmt.Fprintln(c.out)
}

// PrintPositions imprime las posiciones activas.
func (c *Console) PrintPositions(positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "  No active positions.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Ticker", "Side", "Qty", "Entry", "Target", "Stop", "Status")

	for _, pos := range positions {
		table.Append(
			pos.ID,
			truncate(pos.Ticker, 20),
			string(pos.Side),
			fmt.Sprintf("%d", pos.Contracts),
			fmt.Sprintf("%d¢", pos.EntryPrice),
			fmt.Sprintf("%d-%d¢", pos.TargetExitLow, pos.TargetExitHigh),
			fmt.Sprintf("%d¢", pos.StopLoss),
			string(pos.Status),
		)
	}
	table.Render()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
