package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementHistory consulta el diario de movimientos.
type MovementHistory struct {
	repos Repositories
}

// NewMovementHistory construye la consulta del diario.
func NewMovementHistory(repos Repositories) *MovementHistory {
	return &MovementHistory{repos: repos}
}

// ListMovements movimientos del producto, más recientes primero.
func (h *MovementHistory) ListMovements(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	if _, err := loadProduct(ctx, h.repos, productID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return h.repos.Movements.ListByProduct(ctx, productID, limit, offset)
}

// ListPending pasos de traslado o recepción que quedaron sin aplicar ni compensar.
func (h *MovementHistory) ListPending(ctx context.Context, limit int) ([]*entity.Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return h.repos.Movements.ListPending(ctx, limit)
}
