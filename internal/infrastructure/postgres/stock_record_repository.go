package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo stock por (producto, ubicación) sobre PostgreSQL.
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

// Get obtiene el registro; nil si la ubicación nunca tuvo stock del producto.
func (r *StockRecordRepo) Get(ctx context.Context, productID, locationID string) (*entity.StockRecord, error) {
	query := `
		SELECT product_id, location_id, quantity, version, updated_at
		FROM stock_records WHERE product_id = $1 AND location_id = $2`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(
		&s.ProductID, &s.LocationID, &s.Quantity, &s.Version, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return &s, nil
}

// ListByProduct lista los registros del producto por ubicación.
func (r *StockRecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, location_id, quantity, version, updated_at
		FROM stock_records WHERE product_id = $1 ORDER BY location_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.Version, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// Create inserta el registro con versión 1. ErrConflict si ya existe.
func (r *StockRecordRepo) Create(ctx context.Context, record *entity.StockRecord) error {
	now := time.Now()
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_records (product_id, location_id, quantity, version, updated_at)
		VALUES ($1, $2, $3, 1, $4)`,
		record.ProductID, record.LocationID, record.Quantity, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	record.Version = 1
	record.UpdatedAt = now
	return nil
}

// UpdateQuantity escribe la cantidad solo si la versión almacenada es expectedVersion.
func (r *StockRecordRepo) UpdateQuantity(ctx context.Context, record *entity.StockRecord, expectedVersion int64) error {
	now := time.Now()
	var version int64
	err := r.q.QueryRow(ctx, `
		UPDATE stock_records SET quantity = $3, version = version + 1, updated_at = $4
		WHERE product_id = $1 AND location_id = $2 AND version = $5
		RETURNING version`,
		record.ProductID, record.LocationID, record.Quantity, now, expectedVersion,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, gerr := r.Get(ctx, record.ProductID, record.LocationID)
			if gerr != nil {
				return gerr
			}
			if existing == nil {
				return domain.ErrNotFound
			}
			return domain.ErrConflict
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: ubicación %s", domain.ErrInsufficientStock, record.LocationID)
		}
		return fmt.Errorf("update stock record: %w", err)
	}
	record.Version = version
	record.UpdatedAt = now
	return nil
}
