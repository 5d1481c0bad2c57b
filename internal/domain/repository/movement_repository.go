package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementRepository diario de movimientos del ledger.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	UpdateStatus(ctx context.Context, id, status string) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error)
	// ListPending devuelve los pasos que quedaron sin aplicar ni compensar.
	ListPending(ctx context.Context, limit int) ([]*entity.Movement, error)
}
