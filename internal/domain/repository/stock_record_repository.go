package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockRecordRepository puerto de persistencia para el stock por (producto, ubicación).
type StockRecordRepository interface {
	// Get devuelve nil, nil si no existe registro para el par.
	Get(ctx context.Context, productID, locationID string) (*entity.StockRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error)
	// Create inserta el registro con Version 1; domain.ErrConflict si ya existe.
	Create(ctx context.Context, record *entity.StockRecord) error
	// UpdateQuantity escritura condicional sobre la versión; domain.ErrConflict si cambió.
	UpdateQuantity(ctx context.Context, record *entity.StockRecord, expectedVersion int64) error
}
