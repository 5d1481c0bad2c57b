package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// AdjustmentEngine aplica deltas con signo a lotes (total o por talla) y, cuando se indica
// ubicación, al registro de stock correspondiente. Serializa escritores por producto con Locker.
type AdjustmentEngine struct {
	repos   Repositories
	stock   *StockRecordStore
	locker  Locker
	journal journal
	now     func() time.Time
}

// NewAdjustmentEngine construye el motor. locker puede ser nil (sin lock distribuido).
func NewAdjustmentEngine(repos Repositories, locker Locker, log zerolog.Logger) *AdjustmentEngine {
	return &AdjustmentEngine{
		repos:   repos,
		stock:   NewStockRecordStore(repos),
		locker:  lockerOrNoop(locker),
		journal: journal{repo: repos.Movements, log: log},
		now:     time.Now,
	}
}

// AdjustInput ajuste manual de un lote. Size vacío ajusta el total de un lote sin tallas.
// LocationID solo lo usa AdjustAtLocation.
type AdjustInput struct {
	ProductID   string
	BatchNumber string
	LocationID  string
	Delta       int
	Size        string
	Note        string
}

// Adjust suma Delta al lote (o a la talla). No toca registros de stock por ubicación.
func (e *AdjustmentEngine) Adjust(ctx context.Context, in AdjustInput) (*entity.Batch, error) {
	if in.BatchNumber == "" {
		return nil, fmt.Errorf("%w: número de lote requerido", domain.ErrValidation)
	}
	unlock, err := e.locker.Lock(ctx, ProductLockKey(in.ProductID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	product, err := loadProduct(ctx, e.repos, in.ProductID)
	if err != nil {
		return nil, err
	}
	batch, err := e.applyToBatch(ctx, product, in.BatchNumber, in.Delta, in.Size)
	if err != nil {
		return nil, err
	}
	e.recordApplied(ctx, uuid.NewString(), entity.MovementAdjustment, in.ProductID, "", batch.BatchNumber, in.Size, in.Delta, in.Note)
	return batch, nil
}

// AdjustAtLocation ajusta el lote y el registro de stock de la ubicación. Si la escritura del
// registro falla se revierte el lote; si la reversión también falla devuelve ErrPartialFailure.
func (e *AdjustmentEngine) AdjustAtLocation(ctx context.Context, in AdjustInput) (*entity.Batch, error) {
	if in.BatchNumber == "" {
		return nil, fmt.Errorf("%w: número de lote requerido", domain.ErrValidation)
	}
	if err := e.stock.checkLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}
	unlock, err := e.locker.Lock(ctx, ProductLockKey(in.ProductID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	product, err := loadProduct(ctx, e.repos, in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.Delta < 0 {
		if err := e.requireAt(ctx, in.ProductID, in.LocationID, -in.Delta); err != nil {
			return nil, err
		}
	}
	batch, err := e.applyToBatch(ctx, product, in.BatchNumber, in.Delta, in.Size)
	if err != nil {
		return nil, err
	}
	if _, err := e.stock.ApplyDelta(ctx, in.ProductID, in.LocationID, in.Delta); err != nil {
		if _, cerr := e.applyToBatch(ctx, product, in.BatchNumber, -in.Delta, in.Size); cerr != nil {
			return nil, fmt.Errorf("%w: lote %s ajustado pero la ubicación %s no: %w",
				domain.ErrPartialFailure, in.BatchNumber, in.LocationID, errors.Join(err, cerr))
		}
		return nil, err
	}
	e.recordApplied(ctx, uuid.NewString(), entity.MovementAdjustment, in.ProductID, in.LocationID, batch.BatchNumber, in.Size, in.Delta, in.Note)
	return batch, nil
}

// AddStockInput entrada manual de stock. Si el lote ya existe se extiende; si no, se crea.
type AddStockInput struct {
	ProductID   string
	LocationID  string
	BatchNumber string
	SupplierID  string
	ExpiryDate  time.Time
	Sizes       []entity.BatchSize
	Quantity    int
	Note        string
}

// AddStock crea o extiende el lote y acredita la ubicación con el total recibido.
// Si la ubicación no se acredita se deshace lo sumado al lote; ErrPartialFailure solo
// cuando tampoco se pudo deshacer.
func (e *AdjustmentEngine) AddStock(ctx context.Context, in AddStockInput) (*entity.Batch, error) {
	if err := e.stock.checkLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}
	unlock, err := e.locker.Lock(ctx, ProductLockKey(in.ProductID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	product, err := loadProduct(ctx, e.repos, in.ProductID)
	if err != nil {
		return nil, err
	}
	intake := batchIntake{
		number:     in.BatchNumber,
		supplierID: in.SupplierID,
		expiry:     in.ExpiryDate,
		sizes:      in.Sizes,
		quantity:   in.Quantity,
	}
	batch, added, err := e.receiveIntoBatch(ctx, product, intake)
	if err != nil {
		return nil, err
	}
	if _, err := e.stock.ApplyDelta(ctx, in.ProductID, in.LocationID, added); err != nil {
		if rerr := e.revertIntake(ctx, product, intake); rerr != nil {
			return nil, fmt.Errorf("%w: lote %s recibido pero la ubicación %s no se acreditó: %w",
				domain.ErrPartialFailure, batch.BatchNumber, in.LocationID, errors.Join(err, rerr))
		}
		return nil, err
	}
	e.recordApplied(ctx, uuid.NewString(), entity.MovementStockIn, in.ProductID, in.LocationID, batch.BatchNumber, "", added, in.Note)
	return batch, nil
}

// StockOutInput salida de stock desde una ubicación; los lotes se eligen por FEFO.
type StockOutInput struct {
	ProductID  string
	LocationID string
	Quantity   int
	Size       string
	Note       string
}

// StockOutResult lotes descontados y registro resultante de la ubicación.
type StockOutResult struct {
	Draws  []domledger.Draw
	Record *entity.StockRecord
}

// StockOut descuenta Quantity de la ubicación y de los lotes con vencimiento más próximo.
// Si un paso falla se revierten los lotes ya descontados.
func (e *AdjustmentEngine) StockOut(ctx context.Context, in StockOutInput) (*StockOutResult, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidArgument)
	}
	if err := e.stock.checkLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}
	unlock, err := e.locker.Lock(ctx, ProductLockKey(in.ProductID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	product, err := loadProduct(ctx, e.repos, in.ProductID)
	if err != nil {
		return nil, err
	}
	if err := e.requireAt(ctx, in.ProductID, in.LocationID, in.Quantity); err != nil {
		return nil, err
	}
	batches, err := e.repos.Batches.ListByProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	plan, err := domledger.PlanDraw(batches, in.Quantity, in.Size)
	if err != nil {
		return nil, err
	}

	txID := uuid.NewString()
	var applied []domledger.Draw
	rollback := func(cause error) error {
		var errs []error
		for i := len(applied) - 1; i >= 0; i-- {
			d := applied[i]
			if _, err := e.applyToBatch(ctx, product, d.BatchNumber, d.Quantity, d.Size); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("%w: salida de stock incompleta: %w", domain.ErrPartialFailure, errors.Join(append([]error{cause}, errs...)...))
		}
		return cause
	}
	for _, d := range plan {
		if _, err := e.applyToBatch(ctx, product, d.BatchNumber, -d.Quantity, d.Size); err != nil {
			return nil, rollback(err)
		}
		applied = append(applied, d)
	}
	rec, err := e.stock.ApplyDelta(ctx, in.ProductID, in.LocationID, -in.Quantity)
	if err != nil {
		return nil, rollback(err)
	}
	for _, d := range plan {
		e.recordApplied(ctx, txID, entity.MovementStockOut, in.ProductID, in.LocationID, d.BatchNumber, d.Size, -d.Quantity, in.Note)
	}
	return &StockOutResult{Draws: plan, Record: rec}, nil
}

// batchIntake mercancía que entra a un lote (recepción o entrada manual).
type batchIntake struct {
	number     string
	supplierID string
	expiry     time.Time
	sizes      []entity.BatchSize
	quantity   int
}

// receiveIntoBatch crea el lote si no existe o le suma la mercancía si ya existe.
// Devuelve el lote resultante y el total de unidades agregadas. El caller tiene el lock del producto.
func (e *AdjustmentEngine) receiveIntoBatch(ctx context.Context, product *entity.Product, in batchIntake) (*entity.Batch, int, error) {
	if in.number == "" {
		return nil, 0, fmt.Errorf("%w: número de lote requerido", domain.ErrValidation)
	}
	existing, err := e.repos.Batches.GetByNumber(ctx, product.ID, in.number)
	if err != nil {
		return nil, 0, err
	}
	if existing == nil {
		spec := domledger.BatchSpec{
			ProductID:   product.ID,
			SupplierID:  in.supplierID,
			BatchNumber: in.number,
			ExpiryDate:  in.expiry,
			Sizes:       in.sizes,
		}
		if len(in.sizes) == 0 {
			q := in.quantity
			spec.Quantity = &q
		}
		batch, err := domledger.NewBatch(product, spec, e.now())
		if err != nil {
			return nil, 0, err
		}
		if batch.Quantity <= 0 {
			return nil, 0, fmt.Errorf("%w: la cantidad recibida debe ser positiva", domain.ErrValidation)
		}
		if err := e.repos.Batches.Create(ctx, batch); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return nil, 0, fmt.Errorf("%w: el lote %s se creó en paralelo", domain.ErrConflict, in.number)
			}
			return nil, 0, err
		}
		return batch, batch.Quantity, nil
	}

	next := existing
	added := 0
	if len(in.sizes) > 0 {
		sizes, err := domledger.NormalizeSizes(product.SizeProfile, in.sizes)
		if err != nil {
			return nil, 0, err
		}
		for _, s := range sizes {
			if s.Quantity == 0 {
				continue
			}
			if next, err = domledger.ApplyDelta(next, s.Quantity, s.Size, product.SizeProfile); err != nil {
				return nil, 0, err
			}
			added += s.Quantity
		}
	} else {
		if in.quantity <= 0 {
			return nil, 0, fmt.Errorf("%w: la cantidad recibida debe ser positiva", domain.ErrValidation)
		}
		if next, err = domledger.ApplyDelta(next, in.quantity, "", product.SizeProfile); err != nil {
			return nil, 0, err
		}
		added = in.quantity
	}
	if added == 0 {
		return nil, 0, fmt.Errorf("%w: la cantidad recibida debe ser positiva", domain.ErrValidation)
	}
	if err := e.repos.Batches.UpdateQuantities(ctx, next, existing.Version); err != nil {
		return nil, 0, err
	}
	return next, added, nil
}

// applyToBatch lee el lote, calcula el nuevo estado y lo escribe condicionado a la versión leída.
func (e *AdjustmentEngine) applyToBatch(ctx context.Context, product *entity.Product, number string, delta int, size string) (*entity.Batch, error) {
	batch, err := e.repos.Batches.GetByNumber(ctx, product.ID, number)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: lote %s del producto %s", domain.ErrNotFound, number, product.ID)
	}
	next, err := domledger.ApplyDelta(batch, delta, size, product.SizeProfile)
	if err != nil {
		return nil, err
	}
	if err := e.repos.Batches.UpdateQuantities(ctx, next, batch.Version); err != nil {
		return nil, err
	}
	return next, nil
}

func (e *AdjustmentEngine) requireAt(ctx context.Context, productID, locationID string, qty int) error {
	rec, err := e.stock.Get(ctx, productID, locationID)
	if err != nil {
		return err
	}
	if rec.Quantity < qty {
		return insufficientAt(locationID, rec.Quantity)
	}
	return nil
}

func (e *AdjustmentEngine) recordApplied(ctx context.Context, txID, kind, productID, locationID, batchNumber, size string, delta int, note string) {
	m := &entity.Movement{
		TransactionID: txID,
		Kind:          kind,
		ProductID:     productID,
		LocationID:    locationID,
		BatchNumber:   batchNumber,
		Size:          size,
		Delta:         delta,
		Status:        entity.MovementApplied,
		Note:          note,
	}
	if err := e.journal.record(ctx, m); err != nil {
		e.journal.log.Warn().Err(err).Str("product_id", productID).Str("kind", kind).Msg("no se pudo registrar el movimiento")
	}
}
