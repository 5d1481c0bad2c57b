package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo diario de movimientos (ledger_movements) sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, transaction_id, kind, product_id, COALESCE(location_id, ''), COALESCE(batch_number, ''),
	COALESCE(size, ''), delta, status, COALESCE(note, ''), created_at, updated_at`

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
		m.UpdatedAt = m.CreatedAt
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO ledger_movements (id, transaction_id, kind, product_id, location_id, batch_number, size, delta, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.TransactionID, m.Kind, m.ProductID, nullable(m.LocationID), nullable(m.BatchNumber),
		nullable(m.Size), m.Delta, m.Status, nullable(m.Note), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create ledger movement: %w", err)
	}
	return nil
}

// UpdateStatus cambia el estado de un movimiento.
func (r *MovementRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE ledger_movements SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update ledger movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByProduct lista movimientos del producto, más recientes primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM ledger_movements
		WHERE product_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger movements: %w", err)
	}
	return collectMovements(rows)
}

// ListPending lista los movimientos PENDING más antiguos primero.
func (r *MovementRepo) ListPending(ctx context.Context, limit int) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM ledger_movements
		WHERE status = $1 ORDER BY created_at LIMIT $2`, entity.MovementPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending movements: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.Kind, &m.ProductID, &m.LocationID, &m.BatchNumber,
			&m.Size, &m.Delta, &m.Status, &m.Note, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
