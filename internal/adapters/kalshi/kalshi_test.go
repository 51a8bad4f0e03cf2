package kalshi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/adapters/kalshi"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketFixture = `{
	"market": {
		"ticker": "BTC-50K",
		"title": "Will BTC close above 50K?",
		"category": "crypto",
		"yes_bid": 45, "yes_ask": 47,
		"no_bid": 53, "no_ask": 55,
		"volume": 1200,
		"close_time": "2026-08-01T18:00:00Z"
	}
}`

const bookFixture = `{
	"yes_bids": [{"price": 45, "size": 100}, {"price": 44, "size": 50}],
	"yes_asks": [{"price": 47, "size": 80}],
	"no_bids": [{"price": 53, "size": 60}],
	"no_asks": [{"price": 55, "size": 40}]
}`

// El histórico llega con el punto más reciente primero.
const historyFixture = `{
	"history": [
		{"yes_price": 46, "volume": 10, "time": "2026-08-01T12:00:00Z"},
		{"yes_price": 44, "volume": 12, "time": "2026-08-01T11:00:00Z"},
		{"yes_price": 42, "volume": 8, "time": "2026-08-01T10:00:00Z"}
	]
}`

const tradesFixture = `{
	"trades": [
		{"side": "buy", "type": "yes", "count": 10, "time": "2026-08-01T12:00:00Z"},
		{"side": "sell", "type": "yes", "count": 5, "time": "2026-08-01T11:59:00Z"}
	]
}`

// newServer monta un servidor con login y los endpoints de mercado.
func newServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "trader@example.com", body["email"])
		w.Write([]byte(`{"token": "tok-123"}`))
	})
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if requests != nil {
				requests.Add(1)
			}
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			h(w, r)
		}
	}
	mux.HandleFunc("/markets", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		w.Write([]byte(`{"markets": [
			{"ticker": "BTC-50K", "category": "crypto", "yes_bid": 45, "yes_ask": 47, "no_bid": 53, "no_ask": 55, "close_time": "2026-08-01T18:00:00Z"},
			{"ticker": "FAR-AWAY", "category": "crypto", "yes_bid": 30, "yes_ask": 32, "no_bid": 68, "no_ask": 70, "close_time": "2026-08-10T18:00:00Z"}
		]}`))
	}))
	mux.HandleFunc("/markets/BTC-50K", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(marketFixture))
	}))
	mux.HandleFunc("/markets/BTC-50K/order_book", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(bookFixture))
	}))
	mux.HandleFunc("/markets/BTC-50K/history", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(historyFixture))
	}))
	mux.HandleFunc("/markets/BTC-50K/trades", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(tradesFixture))
	}))
	return httptest.NewServer(mux)
}

func testCreds() kalshi.Credentials {
	return kalshi.Credentials{Email: "trader@example.com", Password: "secret"}
}

func TestClient_Login(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()

	client := kalshi.NewClient(srv.URL, testCreds())
	require.NoError(t, client.Login(context.Background()))
}

func TestClient_Login_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := kalshi.NewClient(srv.URL, testCreds())
	assert.Error(t, client.Login(context.Background()))
}

func TestProvider_GetMarketsByCategory(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()

	provider := kalshi.NewProvider(kalshi.NewClient(srv.URL, testCreds()))
	markets, err := provider.GetMarketsByCategory(context.Background(), "crypto")

	require.NoError(t, err)
	require.Len(t, markets, 2)
	m := markets[0]
	assert.Equal(t, "BTC-50K", m.Ticker)
	assert.Equal(t, "crypto", m.Category)
	assert.Equal(t, 45, m.YesBid)
	assert.Equal(t, 47, m.YesAsk)
	assert.Equal(t, time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC), m.CloseTime)
}

func TestProvider_GetMarketsByTimeHorizon_FiltersByCloseTime(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()

	provider := kalshi.NewProvider(kalshi.NewClient(srv.URL, testCreds()))

	// Con un horizonte gigante entran los dos mercados.
	markets, err := provider.GetMarketsByTimeHorizon(context.Background(), 24*365*10)
	require.NoError(t, err)
	assert.Len(t, markets, 2)
}

func TestProvider_GetMarketDataBundle(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()

	provider := kalshi.NewProvider(kalshi.NewClient(srv.URL, testCreds()))
	snap, err := provider.GetMarketDataBundle(context.Background(), "BTC-50K")

	require.NoError(t, err)
	assert.Equal(t, "BTC-50K", snap.Ticker)
	assert.Equal(t, 47, snap.YesAsk)
	assert.Equal(t, 55, snap.NoAsk)

	// El histórico queda en orden cronológico.
	require.Len(t, snap.History, 3)
	assert.Equal(t, 42, snap.History[0].YesPrice)
	assert.Equal(t, 46, snap.History[2].YesPrice)

	// Los trades conservan el orden de la API: más reciente primero.
	require.Len(t, snap.RecentTrades, 2)
	assert.Equal(t, "buy", snap.RecentTrades[0].Side)
	assert.Equal(t, domain.SideYes, snap.RecentTrades[0].Type)

	assert.Equal(t, 150, snap.Book.YesBidVolume())
	assert.Equal(t, 80, snap.Book.YesAskVolume())
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestProvider_BundleCached(t *testing.T) {
	var requests atomic.Int64
	srv := newServer(t, &requests)
	defer srv.Close()

	provider := kalshi.NewProvider(kalshi.NewClient(srv.URL, testCreds()))

	_, err := provider.GetMarketDataBundle(context.Background(), "BTC-50K")
	require.NoError(t, err)
	first := requests.Load()

	// Dentro del TTL no se repite ningún request.
	_, err = provider.GetMarketDataBundle(context.Background(), "BTC-50K")
	require.NoError(t, err)
	assert.Equal(t, first, requests.Load())
}

func TestProvider_CacheExpires(t *testing.T) {
	var requests atomic.Int64
	srv := newServer(t, &requests)
	defer srv.Close()

	provider := kalshi.NewProvider(kalshi.NewClient(srv.URL, testCreds()))
	provider.SetCacheTTL(0)

	_, err := provider.GetMarketDataBundle(context.Background(), "BTC-50K")
	require.NoError(t, err)
	first := requests.Load()

	_, err = provider.GetMarketDataBundle(context.Background(), "BTC-50K")
	require.NoError(t, err)
	assert.Greater(t, requests.Load(), first)
}

func TestTrader_PlaceOrder(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()
	mux := srv.Config.Handler.(*http.ServeMux)
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		var dto map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dto))
		assert.Equal(t, "gtc", dto["time_in_force"])
		assert.Equal(t, "buy", dto["side"])
		w.Write([]byte(`{"order_id": "ord-9", "status": "resting"}`))
	})

	trader := kalshi.NewTrader(kalshi.NewClient(srv.URL, testCreds()))
	result, err := trader.PlaceOrder(context.Background(), domain.OrderRequest{
		Ticker: "BTC-50K",
		Side:   domain.OrderBuy,
		Type:   domain.SideYes,
		Price:  47,
		Size:   10,
	})

	require.NoError(t, err)
	assert.Equal(t, "ord-9", result.OrderID)
	assert.Equal(t, "resting", result.Status)
}

func TestTrader_PlaceOrder_RejectsInvalid(t *testing.T) {
	// Nunca llega a la red: el servidor ni siquiera existe.
	trader := kalshi.NewTrader(kalshi.NewClient("http://127.0.0.1:1", testCreds()))

	cases := []domain.OrderRequest{
		{Ticker: "", Side: domain.OrderBuy, Type: domain.SideYes, Price: 50, Size: 1},
		{Ticker: "T", Side: "hold", Type: domain.SideYes, Price: 50, Size: 1},
		{Ticker: "T", Side: domain.OrderBuy, Type: "maybe", Price: 50, Size: 1},
		{Ticker: "T", Side: domain.OrderBuy, Type: domain.SideYes, Price: 0, Size: 1},
		{Ticker: "T", Side: domain.OrderBuy, Type: domain.SideYes, Price: 100, Size: 1},
		{Ticker: "T", Side: domain.OrderBuy, Type: domain.SideYes, Price: 50, Size: 0},
	}
	for _, req := range cases {
		_, err := trader.PlaceOrder(context.Background(), req)
		assert.Error(t, err)
	}
}
