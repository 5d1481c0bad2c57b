package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q  Querier
	tx *TxRunner
}

// NewPurchaseOrderRepository construye el adaptador. db abre la transacción de Create.
func NewPurchaseOrderRepository(q Querier, db Beginner) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q, tx: NewTxRunner(db)}
}

// Create persiste la orden con sus líneas en una transacción (carga de datos y pruebas).
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	if po.ID == "" {
		po.ID = uuid.New().String()
	}
	if po.Status == "" {
		po.Status = entity.POStatusPending
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = time.Now()
	}
	return r.tx.Run(ctx, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO purchase_orders (id, supplier_id, status, created_at, completed_at)
			VALUES ($1, $2, $3, $4, $5)`,
			po.ID, nullable(po.SupplierID), string(po.Status), po.CreatedAt, po.CompletedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert purchase order: %w", err)
		}
		for i, l := range po.Lines {
			_, err := q.Exec(ctx, `
				INSERT INTO purchase_order_lines (purchase_order_id, line_no, product_id, quantity, size)
				VALUES ($1, $2, $3, $4, $5)`,
				po.ID, i, l.ProductID, l.Quantity, nullable(l.Size),
			)
			if err != nil {
				return fmt.Errorf("insert purchase order line: %w", err)
			}
		}
		return nil
	})
}

// GetByID obtiene la orden con sus líneas; nil si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	var supplier *string
	var status string
	err := r.q.QueryRow(ctx, `
		SELECT id, supplier_id, status, created_at, completed_at
		FROM purchase_orders WHERE id = $1`, id,
	).Scan(&po.ID, &supplier, &status, &po.CreatedAt, &po.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	po.SupplierID = deref(supplier)
	po.Status = entity.POStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT product_id, quantity, size FROM purchase_order_lines
		WHERE purchase_order_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.POLine
		var size *string
		if err := rows.Scan(&l.ProductID, &l.Quantity, &size); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		l.Size = deref(size)
		po.Lines = append(po.Lines, l)
	}
	return &po, rows.Err()
}

// TransitionStatus cambia el estado solo si el actual es from (compare-and-set).
func (r *PurchaseOrderRepo) TransitionStatus(ctx context.Context, id string, from, to entity.POStatus, completedAt *time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET status = $3, completed_at = COALESCE($4, completed_at)
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), completedAt,
	)
	if err != nil {
		return fmt.Errorf("transition purchase order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchase_orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check purchase order: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}
