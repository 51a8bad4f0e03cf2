package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Notifier presenta las recomendaciones al usuario.
type Notifier interface {
	// Notify muestra las recomendaciones ordenadas por prioridad.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, recs []domain.Recommendation) error
}
