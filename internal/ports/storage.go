package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// ExecutionStorage persiste el histórico de ejecución y las posiciones cerradas.
type ExecutionStorage interface {
	// SaveExecution persiste un registro de ejecución (entry/exit/partial_exit).
	SaveExecution(ctx context.Context, rec domain.ExecutionRecord) error

	// SaveClosedPosition persiste una posición cerrada.
	SaveClosedPosition(ctx context.Context, pos domain.Position) error

	// GetExecutions devuelve los registros en el rango de tiempo dado,
	// más recientes primero.
	GetExecutions(ctx context.Context, from, to time.Time) ([]domain.ExecutionRecord, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
