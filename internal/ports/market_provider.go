package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// MarketProvider obtiene mercados y snapshots desde la API de Kalshi.
// Los resultados son snapshots eventualmente consistentes; la política
// de caché/TTL es responsabilidad del adapter, no del core.
type MarketProvider interface {
	// GetMarketsByCategory devuelve los mercados abiertos de una categoría.
	GetMarketsByCategory(ctx context.Context, category string) ([]domain.MarketSummary, error)

	// GetMarketsByTimeHorizon devuelve los mercados que cierran dentro
	// de las próximas horas indicadas.
	GetMarketsByTimeHorizon(ctx context.Context, hours float64) ([]domain.MarketSummary, error)

	// GetMarketDataBundle devuelve el snapshot completo de un mercado:
	// quotes, orderbook, trades recientes e histórico de precios.
	GetMarketDataBundle(ctx context.Context, ticker string) (domain.MarketSnapshot, error)
}
