package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TransferCoordinator mueve stock entre ubicaciones: debita el origen y acredita el destino.
// Ambos pasos quedan en el diario; si el crédito falla se compensa el débito.
type TransferCoordinator struct {
	repos   Repositories
	stock   *StockRecordStore
	locker  Locker
	journal journal
	log     zerolog.Logger
}

// NewTransferCoordinator construye el coordinador de traslados.
func NewTransferCoordinator(repos Repositories, locker Locker, log zerolog.Logger) *TransferCoordinator {
	return &TransferCoordinator{
		repos:   repos,
		stock:   NewStockRecordStore(repos),
		locker:  lockerOrNoop(locker),
		journal: journal{repo: repos.Movements, log: log},
		log:     log,
	}
}

// TransferInput traslado de Quantity unidades de un producto entre dos ubicaciones.
type TransferInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int
	Note           string
}

// TransferResult registros resultantes y transacción del diario.
type TransferResult struct {
	TransactionID string
	From          *entity.StockRecord
	To            *entity.StockRecord
}

// Transfer valida, debita el origen y acredita el destino. Los lotes no cambian.
//
// Errores: ErrInvalidArgument (cantidad ≤ 0 o mismo origen y destino), ErrNotFound,
// ErrInsufficientStock (sin escrituras), ErrPartialFailure si el crédito y la compensación fallan.
func (t *TransferCoordinator) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad a trasladar debe ser positiva", domain.ErrInvalidArgument)
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, fmt.Errorf("%w: origen y destino son la misma ubicación", domain.ErrInvalidArgument)
	}
	if _, err := loadProduct(ctx, t.repos, in.ProductID); err != nil {
		return nil, err
	}
	if err := t.stock.checkLocation(ctx, in.FromLocationID); err != nil {
		return nil, err
	}
	if err := t.stock.checkLocation(ctx, in.ToLocationID); err != nil {
		return nil, err
	}

	unlock, err := t.locker.Lock(ctx, ProductLockKey(in.ProductID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	src, err := t.stock.Get(ctx, in.ProductID, in.FromLocationID)
	if err != nil {
		return nil, err
	}
	if src.Quantity < in.Quantity {
		return nil, insufficientAt(in.FromLocationID, src.Quantity)
	}

	txID := uuid.NewString()
	out := t.leg(txID, entity.MovementTransferOut, in.ProductID, in.FromLocationID, -in.Quantity, in.Note)
	inLeg := t.leg(txID, entity.MovementTransferIn, in.ProductID, in.ToLocationID, in.Quantity, in.Note)
	if err := t.journal.record(ctx, out); err != nil {
		return nil, err
	}
	if err := t.journal.record(ctx, inLeg); err != nil {
		t.journal.mark(ctx, out, entity.MovementFailed)
		return nil, err
	}

	from, err := t.stock.ApplyDelta(ctx, in.ProductID, in.FromLocationID, -in.Quantity)
	if err != nil {
		t.journal.mark(ctx, out, entity.MovementFailed)
		t.journal.mark(ctx, inLeg, entity.MovementFailed)
		return nil, err
	}
	t.journal.mark(ctx, out, entity.MovementApplied)

	to, err := t.stock.ApplyDelta(ctx, in.ProductID, in.ToLocationID, in.Quantity)
	if err != nil {
		return nil, t.compensate(ctx, in, txID, out, inLeg, err)
	}
	t.journal.mark(ctx, inLeg, entity.MovementApplied)

	t.log.Info().
		Str("transaction_id", txID).
		Str("product_id", in.ProductID).
		Str("from", in.FromLocationID).
		Str("to", in.ToLocationID).
		Int("quantity", in.Quantity).
		Msg("traslado aplicado")
	return &TransferResult{TransactionID: txID, From: from, To: to}, nil
}

// compensate devuelve al origen lo debitado cuando el crédito al destino falló.
func (t *TransferCoordinator) compensate(ctx context.Context, in TransferInput, txID string, out, inLeg *entity.Movement, cause error) error {
	if _, err := t.stock.ApplyDelta(ctx, in.ProductID, in.FromLocationID, in.Quantity); err != nil {
		t.log.Error().Err(err).
			Str("transaction_id", txID).
			Str("product_id", in.ProductID).
			Msg("traslado sin compensar: el origen quedó debitado")
		return fmt.Errorf("%w: traslado %s debitado en %s sin acreditar en %s: %w",
			domain.ErrPartialFailure, txID, in.FromLocationID, in.ToLocationID, errors.Join(cause, err))
	}
	t.journal.mark(ctx, out, entity.MovementCompensated)
	t.journal.mark(ctx, inLeg, entity.MovementFailed)
	comp := t.leg(txID, entity.MovementCompensation, in.ProductID, in.FromLocationID, in.Quantity, "reversión de traslado")
	comp.Status = entity.MovementApplied
	if err := t.journal.record(ctx, comp); err != nil {
		t.log.Warn().Err(err).Str("transaction_id", txID).Msg("no se pudo registrar la compensación")
	}
	return cause
}

func (t *TransferCoordinator) leg(txID, kind, productID, locationID string, delta int, note string) *entity.Movement {
	return &entity.Movement{
		TransactionID: txID,
		Kind:          kind,
		ProductID:     productID,
		LocationID:    locationID,
		Delta:         delta,
		Status:        entity.MovementPending,
		Note:          note,
	}
}
