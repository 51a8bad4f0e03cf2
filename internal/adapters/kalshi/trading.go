package kalshi

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Trader implementa ports.OrderExecutor sobre el Client.
type Trader struct {
	client *Client
}

// NewTrader crea un Trader.
func NewTrader(client *Client) *Trader {
	return &Trader{client: client}
}

// PlaceOrder valida la orden y la envía como GTC. Los parámetros
// inválidos se rechazan antes de tocar la API.
func (t *Trader) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if err := req.Validate(); err != nil {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder: %w", err)
	}

	payload := orderRequestDTO{
		Ticker:      req.Ticker,
		Side:        string(req.Side),
		Type:        string(req.Type),
		Price:       req.Price,
		Size:        req.Size,
		TimeInForce: "gtc",
	}

	var resp orderResponseDTO
	if err := t.client.post(ctx, "/orders", payload, &resp, true); err != nil {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder %s: %w", req.Ticker, err)
	}
	return domain.OrderResult{OrderID: resp.OrderID, Status: resp.Status}, nil
}
