package domain

import "time"

// MarketSummary es la vista ligera de un mercado que devuelve el listado de la API.
type MarketSummary struct {
	Ticker    string
	Title     string
	Category  string
	YesBid    int // centavos, 1-99
	YesAsk    int
	NoBid     int
	NoAsk     int
	Volume    float64
	CloseTime time.Time
}

// MarketSnapshot es el bundle completo de datos de un mercado en un instante.
// Lo produce el MarketProvider; el core lo trata como solo lectura.
type MarketSnapshot struct {
	Ticker    string
	Title     string
	Category  string
	YesBid    int
	YesAsk    int
	NoBid     int
	NoAsk     int
	CloseTime time.Time

	// History en orden cronológico (el punto más antiguo primero).
	History []PricePoint
	Book    OrderBook
	// RecentTrades con el más reciente primero, como los devuelve la API.
	RecentTrades []Trade

	FetchedAt time.Time
}

// PricePoint es un punto de la serie histórica de precios YES.
type PricePoint struct {
	YesPrice int
	Volume   int
	Time     time.Time
}

// Trade representa un trade reciente del mercado.
type Trade struct {
	Side  string // "buy" | "sell"
	Type  Side   // yes | no
	Count int
	Time  time.Time
}

// HoursToClose devuelve las horas hasta el cierre del mercado.
// Devuelve 24 si CloseTime no está definido (default conservador).
func (m MarketSnapshot) HoursToClose(now time.Time) float64 {
	if m.CloseTime.IsZero() {
		return 24
	}
	return m.CloseTime.Sub(now).Hours()
}

// MinutesToClose devuelve los minutos hasta el cierre del mercado.
func (m MarketSnapshot) MinutesToClose(now time.Time) float64 {
	if m.CloseTime.IsZero() {
		return 24 * 60
	}
	return m.CloseTime.Sub(now).Minutes()
}

// YesPrices extrae la serie de precios YES del history, en orden cronológico.
func (m MarketSnapshot) YesPrices() []int {
	prices := make([]int, 0, len(m.History))
	for _, p := range m.History {
		prices = append(prices, p.YesPrice)
	}
	return prices
}
