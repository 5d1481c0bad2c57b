package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BatchRepository puerto de persistencia para lotes. Cada método es una llamada independiente
// (sin transacción multi-registro).
type BatchRepository interface {
	// Create persiste un lote nuevo con Version 1. Devuelve domain.ErrDuplicate si el número
	// de lote ya existe para el producto.
	Create(ctx context.Context, batch *entity.Batch) error
	// GetByNumber devuelve nil, nil si el lote no existe.
	GetByNumber(ctx context.Context, productID, batchNumber string) (*entity.Batch, error)
	// ListByProduct devuelve los lotes del producto en orden de creación (incluye agotados).
	ListByProduct(ctx context.Context, productID string) ([]*entity.Batch, error)
	// UpdateQuantities escribe Quantity y Sizes solo si la versión almacenada es expectedVersion;
	// si no, devuelve domain.ErrConflict sin escribir. En éxito incrementa batch.Version.
	UpdateQuantities(ctx context.Context, batch *entity.Batch, expectedVersion int64) error
}
