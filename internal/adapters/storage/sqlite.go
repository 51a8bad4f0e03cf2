// Package storage persiste el histórico de ejecución en SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Log inmutable de ejecución: entries, exits y exits parciales
CREATE TABLE IF NOT EXISTS executions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    type        TEXT     NOT NULL,
    position_id TEXT     NOT NULL,
    strategy_id TEXT     NOT NULL,
    ticker      TEXT     NOT NULL,
    side        TEXT     NOT NULL,
    contracts   INTEGER  NOT NULL,
    price       INTEGER  NOT NULL,
    reason      TEXT     NOT NULL DEFAULT '',
    profit_loss REAL     NOT NULL DEFAULT 0,
    remaining   INTEGER  NOT NULL DEFAULT 0,
    executed_at DATETIME NOT NULL
);

-- Posiciones cerradas, una fila por posición
CREATE TABLE IF NOT EXISTS closed_positions (
    position_id TEXT PRIMARY KEY,
    strategy_id TEXT     NOT NULL,
    ticker      TEXT     NOT NULL,
    side        TEXT     NOT NULL,
    contracts   INTEGER  NOT NULL,
    entry_price INTEGER  NOT NULL,
    entry_time  DATETIME NOT NULL,
    exit_price  INTEGER  NOT NULL,
    exit_time   DATETIME NOT NULL,
    exit_reason TEXT     NOT NULL,
    profit_loss REAL     NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_exec_at       ON executions(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_exec_strategy ON executions(strategy_id);
CREATE INDEX IF NOT EXISTS idx_closed_exit   ON closed_positions(exit_time DESC);
`

// retentionExecutions mantiene la DB ligera: el log de ejecución solo
// sirve para métricas y auditoría reciente.
const retentionExecutions = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.ExecutionStorage usando SQLite
// (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia registros antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveExecution persiste un registro del log de ejecución.
func (s *SQLiteStorage) SaveExecution(ctx context.Context, rec domain.ExecutionRecord) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO executions
			(type, position_id, strategy_id, ticker, side, contracts,
			 price, reason, profit_loss, remaining, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Type),
		rec.PositionID,
		rec.StrategyID,
		rec.Ticker,
		string(rec.Side),
		rec.Contracts,
		rec.Price,
		string(rec.Reason),
		rec.ProfitLoss,
		rec.Remaining,
		rec.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveExecution %s: %w", rec.PositionID, err)
	}
	return nil
}

// SaveClosedPosition persiste una posición cerrada. Idempotente: un
// reintento sobre la misma posición reemplaza la fila.
func (s *SQLiteStorage) SaveClosedPosition(ctx context.Context, pos domain.Position) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO closed_positions
			(position_id, strategy_id, ticker, side, contracts,
			 entry_price, entry_time, exit_price, exit_time, exit_reason, profit_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(position_id) DO UPDATE SET
			exit_price  = excluded.exit_price,
			exit_time   = excluded.exit_time,
			exit_reason = excluded.exit_reason,
			profit_loss = excluded.profit_loss`,
		pos.ID,
		pos.StrategyID,
		pos.Ticker,
		string(pos.Side),
		pos.Contracts,
		pos.EntryPrice,
		pos.EntryTime.UTC(),
		pos.ExitPrice,
		pos.ExitTime.UTC(),
		string(pos.ExitReason),
		pos.ProfitLoss,
	); err != nil {
		return fmt.Errorf("storage.SaveClosedPosition %s: %w", pos.ID, err)
	}
	return nil
}

// GetExecutions devuelve los registros del rango dado, más recientes primero.
func (s *SQLiteStorage) GetExecutions(ctx context.Context, from, to time.Time) ([]domain.ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, position_id, strategy_id, ticker, side, contracts,
		       price, reason, profit_loss, remaining, executed_at
		FROM executions
		WHERE executed_at BETWEEN ? AND ?
		ORDER BY executed_at DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetExecutions: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.ExecutionRecord
	for rows.Next() {
		var rec domain.ExecutionRecord
		var typ, side, reason string
		var at time.Time

		if err := rows.Scan(
			&typ,
			&rec.PositionID,
			&rec.StrategyID,
			&rec.Ticker,
			&side,
			&rec.Contracts,
			&rec.Price,
			&reason,
			&rec.ProfitLoss,
			&rec.Remaining,
			&at,
		); err != nil {
			return nil, fmt.Errorf("storage.GetExecutions: scan row: %w", err)
		}

		rec.Type = domain.ExecutionType(typ)
		rec.Side = domain.Side(side)
		rec.Reason = domain.ExitReason(reason)
		rec.Timestamp = at
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina registros de ejecución antiguos al arrancar.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionExecutions)
	s.db.ExecContext(ctx, `DELETE FROM executions WHERE executed_at < ?`, cutoff)
}
