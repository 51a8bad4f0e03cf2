package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	defaultCacheTTL  = 60 * time.Second
	marketsPageLimit = 100
	historyLimit     = 100
	tradesLimit      = 100
)

// Provider implementa ports.MarketProvider sobre el Client, con una
// caché TTL por clave para no repetir requests dentro del mismo ciclo.
type Provider struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// NewProvider crea un Provider con el TTL por defecto de 60 segundos.
func NewProvider(client *Client) *Provider {
	return &Provider{
		client: client,
		ttl:    defaultCacheTTL,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// SetCacheTTL ajusta el TTL de la caché de datos de mercado.
func (p *Provider) SetCacheTTL(ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ttl = ttl
}

func (p *Provider) cached(key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.cache[key]
	if !ok || p.now().Sub(entry.fetchedAt) > p.ttl {
		return nil, false
	}
	return entry.value, true
}

func (p *Provider) store(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[key] = cacheEntry{value: value, fetchedAt: p.now()}
}

// GetMarketsByCategory devuelve los mercados abiertos de una categoría.
func (p *Provider) GetMarketsByCategory(ctx context.Context, category string) ([]domain.MarketSummary, error) {
	key := "category_" + category
	if v, ok := p.cached(key); ok {
		return v.([]domain.MarketSummary), nil
	}

	query := url.Values{
		"status":   {"open"},
		"limit":    {strconv.Itoa(marketsPageLimit)},
		"category": {category},
	}
	var resp marketsResponse
	if err := p.client.get(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("kalshi.GetMarketsByCategory %s: %w", category, err)
	}

	markets := make([]domain.MarketSummary, 0, len(resp.Markets))
	for _, dto := range resp.Markets {
		markets = append(markets, toMarketSummary(dto))
	}
	p.store(key, markets)
	return markets, nil
}

// GetMarketsByTimeHorizon devuelve los mercados abiertos que cierran
// dentro de las próximas horas indicadas. El filtro es local: la API
// no filtra por tiempo de cierre.
func (p *Provider) GetMarketsByTimeHorizon(ctx context.Context, hours float64) ([]domain.MarketSummary, error) {
	key := fmt.Sprintf("horizon_%.2f", hours)
	if v, ok := p.cached(key); ok {
		return v.([]domain.MarketSummary), nil
	}

	query := url.Values{
		"status": {"open"},
		"limit":  {strconv.Itoa(marketsPageLimit)},
	}
	var resp marketsResponse
	if err := p.client.get(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("kalshi.GetMarketsByTimeHorizon: %w", err)
	}

	cutoff := p.now().Add(time.Duration(hours * float64(time.Hour)))
	var markets []domain.MarketSummary
	for _, dto := range resp.Markets {
		summary := toMarketSummary(dto)
		if summary.CloseTime.IsZero() || summary.CloseTime.After(cutoff) {
			continue
		}
		markets = append(markets, summary)
	}
	p.store(key, markets)
	return markets, nil
}

// GetMarketDataBundle arma el snapshot completo de un mercado:
// detalles, orderbook, histórico y trades recientes.
func (p *Provider) GetMarketDataBundle(ctx context.Context, ticker string) (domain.MarketSnapshot, error) {
	key := "bundle_" + ticker
	if v, ok := p.cached(key); ok {
		return v.(domain.MarketSnapshot), nil
	}

	var market marketResponse
	if err := p.client.get(ctx, "/markets/"+ticker, nil, &market); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("kalshi.GetMarketDataBundle %s: market: %w", ticker, err)
	}

	var book orderBookResponse
	if err := p.client.get(ctx, "/markets/"+ticker+"/order_book", nil, &book); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("kalshi.GetMarketDataBundle %s: order book: %w", ticker, err)
	}

	histQuery := url.Values{"limit": {strconv.Itoa(historyLimit)}}
	var history historyResponse
	if err := p.client.get(ctx, "/markets/"+ticker+"/history", histQuery, &history); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("kalshi.GetMarketDataBundle %s: history: %w", ticker, err)
	}

	tradesQuery := url.Values{"limit": {strconv.Itoa(tradesLimit)}}
	var trades tradesResponse
	if err := p.client.get(ctx, "/markets/"+ticker+"/trades", tradesQuery, &trades); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("kalshi.GetMarketDataBundle %s: trades: %w", ticker, err)
	}

	dto := market.Market
	snap := domain.MarketSnapshot{
		Ticker:       dto.Ticker,
		Title:        dto.Title,
		Category:     dto.Category,
		YesBid:       dto.YesBid,
		YesAsk:       dto.YesAsk,
		NoBid:        dto.NoBid,
		NoAsk:        dto.NoAsk,
		CloseTime:    parseTime(dto.CloseTime),
		History:      toHistory(history.History),
		Book:         toOrderBook(book),
		RecentTrades: toTrades(trades.Trades),
		FetchedAt:    p.now(),
	}
	p.store(key, snap)
	return snap, nil
}
