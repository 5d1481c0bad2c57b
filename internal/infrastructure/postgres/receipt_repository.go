package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo progreso de recepción por orden de compra. Cabecera y líneas se reescriben juntas.
type ReceiptRepo struct {
	q  Querier
	tx *TxRunner
}

// NewReceiptRepository construye el adaptador.
func NewReceiptRepository(q Querier, db Beginner) *ReceiptRepo {
	return &ReceiptRepo{q: q, tx: NewTxRunner(db)}
}

// GetByPurchaseOrder obtiene la recepción de la orden; nil si nunca se intentó.
func (r *ReceiptRepo) GetByPurchaseOrder(ctx context.Context, purchaseOrderID string) (*entity.Receipt, error) {
	var rc entity.Receipt
	var location *string
	err := r.q.QueryRow(ctx, `
		SELECT id, purchase_order_id, batch_number, location_id, attempts, started_at, updated_at, completed_at
		FROM receipts WHERE purchase_order_id = $1`, purchaseOrderID,
	).Scan(&rc.ID, &rc.PurchaseOrderID, &rc.BatchNumber, &location, &rc.Attempts,
		&rc.StartedAt, &rc.UpdatedAt, &rc.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	rc.LocationID = deref(location)

	rows, err := r.q.Query(ctx, `
		SELECT product_id, quantity, expiry_date, sizes, status, COALESCE(error, '')
		FROM receipt_lines WHERE receipt_id = $1 ORDER BY line_no`, rc.ID)
	if err != nil {
		return nil, fmt.Errorf("list receipt lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.ReceiptLine
		var sizes []byte
		var status string
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.ExpiryDate, &sizes, &status, &l.Error); err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		if l.Sizes, err = decodeSizes(sizes); err != nil {
			return nil, err
		}
		l.Status = entity.ReceiptLineStatus(status)
		rc.Lines = append(rc.Lines, l)
	}
	return &rc, rows.Err()
}

// Save inserta o reemplaza la recepción y sus líneas en una transacción.
func (r *ReceiptRepo) Save(ctx context.Context, receipt *entity.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	return r.tx.Run(ctx, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO receipts (id, purchase_order_id, batch_number, location_id, attempts, started_at, updated_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				attempts = EXCLUDED.attempts,
				updated_at = EXCLUDED.updated_at,
				completed_at = EXCLUDED.completed_at`,
			receipt.ID, receipt.PurchaseOrderID, receipt.BatchNumber, nullable(receipt.LocationID),
			receipt.Attempts, receipt.StartedAt, receipt.UpdatedAt, receipt.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert receipt: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM receipt_lines WHERE receipt_id = $1`, receipt.ID); err != nil {
			return fmt.Errorf("clear receipt lines: %w", err)
		}
		for i, l := range receipt.Lines {
			sizes, err := encodeSizes(l.Sizes)
			if err != nil {
				return err
			}
			_, err = q.Exec(ctx, `
				INSERT INTO receipt_lines (receipt_id, line_no, product_id, quantity, expiry_date, sizes, status, error)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				receipt.ID, i, l.ProductID, l.Quantity, l.ExpiryDate, sizes, string(l.Status), nullable(l.Error),
			)
			if err != nil {
				return fmt.Errorf("insert receipt line: %w", err)
			}
		}
		return nil
	})
}
