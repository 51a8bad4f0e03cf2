package kalshi

import (
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

func toMarketSummary(dto marketDTO) domain.MarketSummary {
	return domain.MarketSummary{
		Ticker:    dto.Ticker,
		Title:     dto.Title,
		Category:  dto.Category,
		YesBid:    dto.YesBid,
		YesAsk:    dto.YesAsk,
		NoBid:     dto.NoBid,
		NoAsk:     dto.NoAsk,
		Volume:    dto.Volume,
		CloseTime: parseTime(dto.CloseTime),
	}
}

func toOrderBook(resp orderBookResponse) domain.OrderBook {
	return domain.OrderBook{
		YesBids: toLevels(resp.YesBids),
		YesAsks: toLevels(resp.YesAsks),
		NoBids:  toLevels(resp.NoBids),
		NoAsks:  toLevels(resp.NoAsks),
	}
}

func toLevels(dtos []bookLevelDTO) []domain.BookLevel {
	if len(dtos) == 0 {
		return nil
	}
	levels := make([]domain.BookLevel, 0, len(dtos))
	for _, dto := range dtos {
		levels = append(levels, domain.BookLevel{Price: dto.Price, Size: dto.Size})
	}
	return levels
}

// toHistory convierte el histórico al orden cronológico que espera el
// análisis (el punto más antiguo primero). La API lo devuelve con el
// más reciente primero.
func toHistory(dtos []historyPointDTO) []domain.PricePoint {
	if len(dtos) == 0 {
		return nil
	}
	points := make([]domain.PricePoint, 0, len(dtos))
	for i := len(dtos) - 1; i >= 0; i-- {
		points = append(points, domain.PricePoint{
			YesPrice: dtos[i].YesPrice,
			Volume:   dtos[i].Volume,
			Time:     parseTime(dtos[i].Time),
		})
	}
	return points
}

// toTrades conserva el orden de la API: el más reciente primero.
func toTrades(dtos []tradeDTO) []domain.Trade {
	if len(dtos) == 0 {
		return nil
	}
	trades := make([]domain.Trade, 0, len(dtos))
	for _, dto := range dtos {
		trades = append(trades, domain.Trade{
			Side:  dto.Side,
			Type:  domain.Side(dto.Type),
			Count: dto.Count,
			Time:  parseTime(dto.Time),
		})
	}
	return trades
}

// parseTime parsea un timestamp RFC 3339. Un valor ausente o inválido
// queda como zero time; los consumidores ya tratan ese caso.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
