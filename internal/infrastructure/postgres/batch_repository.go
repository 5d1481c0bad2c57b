package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lotes sobre PostgreSQL. Las tallas se guardan como JSONB en el mismo registro,
// así el total y el desglose se escriben en una sola sentencia.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, product_id, COALESCE(supplier_id, ''), batch_number, expiry_date, created_date, quantity, sizes, version`

// Create persiste un lote nuevo con versión 1. ErrDuplicate si el número ya existe para el producto.
func (r *BatchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	sizes, err := encodeSizes(batch.Sizes)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO batches (id, product_id, supplier_id, batch_number, expiry_date, created_date, quantity, sizes, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)`
	_, err = r.q.Exec(ctx, query,
		batch.ID, batch.ProductID, nullable(batch.SupplierID), batch.BatchNumber,
		batch.ExpiryDate, batch.CreatedDate, batch.Quantity, sizes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	batch.Version = 1
	return nil
}

// GetByNumber obtiene un lote por producto y número; nil si no existe.
func (r *BatchRepo) GetByNumber(ctx context.Context, productID, batchNumber string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE product_id = $1 AND batch_number = $2`
	b, err := scanBatch(r.q.QueryRow(ctx, query, productID, batchNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListByProduct lista los lotes del producto en orden de creación.
func (r *BatchRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE product_id = $1 ORDER BY created_date, batch_number`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateQuantities escribe cantidad y tallas solo si la versión almacenada es expectedVersion.
// ErrConflict si otra sesión escribió antes; ErrNotFound si el lote no existe.
func (r *BatchRepo) UpdateQuantities(ctx context.Context, batch *entity.Batch, expectedVersion int64) error {
	sizes, err := encodeSizes(batch.Sizes)
	if err != nil {
		return err
	}
	query := `
		UPDATE batches SET quantity = $3, sizes = $4, version = version + 1
		WHERE product_id = $1 AND batch_number = $2 AND version = $5
		RETURNING version`
	var version int64
	err = r.q.QueryRow(ctx, query, batch.ProductID, batch.BatchNumber, batch.Quantity, sizes, expectedVersion).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrConflict(ctx, batch)
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: lote %s", domain.ErrInsufficientStock, batch.BatchNumber)
		}
		return fmt.Errorf("update batch: %w", err)
	}
	batch.Version = version
	return nil
}

func (r *BatchRepo) missOrConflict(ctx context.Context, batch *entity.Batch) error {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM batches WHERE product_id = $1 AND batch_number = $2)`,
		batch.ProductID, batch.BatchNumber).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check batch: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	var sizes []byte
	if err := row.Scan(&b.ID, &b.ProductID, &b.SupplierID, &b.BatchNumber, &b.ExpiryDate,
		&b.CreatedDate, &b.Quantity, &sizes, &b.Version); err != nil {
		return nil, err
	}
	decoded, err := decodeSizes(sizes)
	if err != nil {
		return nil, err
	}
	b.Sizes = decoded
	return &b, nil
}
