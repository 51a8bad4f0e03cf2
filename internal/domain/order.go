package domain

import "fmt"

// OrderSide es la acción sobre el contrato.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// OrderRequest son los parámetros de una orden contra el venue.
type OrderRequest struct {
	Ticker string
	Side   OrderSide
	Type   Side // yes | no
	Price  int  // centavos, 1-99
	Size   int  // contratos, > 0
}

// Validate rechaza parámetros inválidos antes de tocar la API.
// Nunca se recorta en silencio: fuera de rango = error estructurado.
func (r OrderRequest) Validate() error {
	if r.Ticker == "" {
		return fmt.Errorf("order: ticker is required")
	}
	if r.Side != OrderBuy && r.Side != OrderSell {
		return fmt.Errorf("order %s: side must be buy or sell, got %q", r.Ticker, r.Side)
	}
	if r.Type != SideYes && r.Type != SideNo {
		return fmt.Errorf("order %s: type must be yes or no, got %q", r.Ticker, r.Type)
	}
	if r.Price < 1 || r.Price > 99 {
		return fmt.Errorf("order %s: price must be 1-99 cents, got %d", r.Ticker, r.Price)
	}
	if r.Size <= 0 {
		return fmt.Errorf("order %s: size must be positive, got %d", r.Ticker, r.Size)
	}
	return nil
}

// OrderResult es la respuesta del venue a una orden aceptada.
type OrderResult struct {
	OrderID string
	Status  string
}
