package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// OrderExecutor coloca órdenes reales en el venue de trading.
type OrderExecutor interface {
	// PlaceOrder envía una orden ya validada al venue.
	// El adapter valida los parámetros antes de la llamada HTTP.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
}
