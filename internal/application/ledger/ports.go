package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Repositories agrupa los puertos de persistencia que usan los casos de uso del ledger.
// Cada llamada es independiente: el almacén no ofrece transacciones multi-registro.
type Repositories struct {
	Products  repository.ProductRepository
	Locations repository.LocationRepository
	Batches   repository.BatchRepository
	Stock     repository.StockRecordRepository
	Orders    repository.PurchaseOrderRepository
	Receipts  repository.ReceiptRepository
	Movements repository.MovementRepository
}

// Locker serializa los escritores de un mismo producto entre sesiones.
// unlock siempre es no-nil cuando err == nil.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ProductLockKey clave del lock de escritura por producto.
func ProductLockKey(productID string) string {
	return "ledger:product:" + productID + ":lock"
}

// OrderLockKey clave del lock de recepción por orden de compra.
func OrderLockKey(purchaseOrderID string) string {
	return "ledger:po:" + purchaseOrderID + ":lock"
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

func lockerOrNoop(l Locker) Locker {
	if l == nil {
		return noopLocker{}
	}
	return l
}

// journal escribe el diario de movimientos. Un fallo al marcar el estado no revierte
// la operación: solo se registra en el log.
type journal struct {
	repo repository.MovementRepository
	log  zerolog.Logger
}

func (j journal) record(ctx context.Context, m *entity.Movement) error {
	if j.repo == nil {
		return nil
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	return j.repo.Create(ctx, m)
}

func (j journal) mark(ctx context.Context, m *entity.Movement, status string) {
	if j.repo == nil || m == nil || m.ID == "" {
		return
	}
	if err := j.repo.UpdateStatus(ctx, m.ID, status); err != nil {
		j.log.Warn().Err(err).
			Str("movement_id", m.ID).
			Str("status", status).
			Msg("no se pudo actualizar el estado del movimiento")
		return
	}
	m.Status = status
}
