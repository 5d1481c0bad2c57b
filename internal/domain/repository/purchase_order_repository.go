package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// PurchaseOrderRepository puerto para órdenes de compra.
type PurchaseOrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// TransitionStatus cambia el estado solo si el actual es from (compare-and-set);
	// domain.ErrConflict si otro proceso lo cambió antes. completedAt se guarda si no es nil.
	TransitionStatus(ctx context.Context, id string, from, to entity.POStatus, completedAt *time.Time) error
}

// ReceiptRepository progreso por línea de la recepción de una orden.
type ReceiptRepository interface {
	// GetByPurchaseOrder devuelve nil, nil si la orden nunca se empezó a recibir.
	GetByPurchaseOrder(ctx context.Context, purchaseOrderID string) (*entity.Receipt, error)
	Save(ctx context.Context, receipt *entity.Receipt) error
}
