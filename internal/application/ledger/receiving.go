package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// ReceivingConfig valores por defecto de la recepción.
type ReceivingConfig struct {
	BatchPrefix         string        // prefijo del número de lote generado (B)
	DefaultExpiryMonths int           // vencimiento por defecto si la línea no lo indica (12)
	StaleAfter          time.Duration // una orden en RECEIVING sin progreso durante este tiempo se puede retomar (5m)
}

// GenerateBatchNumber número de lote derivado del instante de recepción: <prefijo>-<unix millis>.
func GenerateBatchNumber(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "B"
	}
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// ReceivingWorkflow convierte las líneas de una orden de compra en lotes (y stock por ubicación).
// Estados: PENDING → RECEIVING → COMPLETED | FAILED_PARTIAL; FAILED_PARTIAL → RECEIVING al reintentar.
// Una orden que quedó en RECEIVING (caída del proceso, fallo al marcar FAILED_PARTIAL) se retoma
// como FAILED_PARTIAL cuando su recepción lleva StaleAfter sin actualizarse.
type ReceivingWorkflow struct {
	repos  Repositories
	engine *AdjustmentEngine
	cfg    ReceivingConfig
	log    zerolog.Logger
	now    func() time.Time
}

// NewReceivingWorkflow construye el flujo de recepción sobre el motor de ajustes.
func NewReceivingWorkflow(repos Repositories, engine *AdjustmentEngine, cfg ReceivingConfig, log zerolog.Logger) *ReceivingWorkflow {
	if cfg.BatchPrefix == "" {
		cfg.BatchPrefix = "B"
	}
	if cfg.DefaultExpiryMonths <= 0 {
		cfg.DefaultExpiryMonths = 12
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	return &ReceivingWorkflow{repos: repos, engine: engine, cfg: cfg, log: log, now: time.Now}
}

// ReceiveLineInput línea recibida. Con Sizes, Quantity puede omitirse (0) o debe coincidir con la suma.
type ReceiveLineInput struct {
	ProductID  string
	Quantity   int
	ExpiryDate time.Time
	Sizes      []entity.BatchSize
}

// ReceiveInput recepción de una orden. BatchNumber vacío genera uno para todo el evento;
// Lines vacío recibe las líneas de la orden tal cual. LocationID opcional acredita esa ubicación.
type ReceiveInput struct {
	PurchaseOrderID string
	BatchNumber     string
	LocationID      string
	Lines           []ReceiveLineInput
}

// ReceiveResult estado final de la orden y del progreso de recepción.
type ReceiveResult struct {
	Order   *entity.PurchaseOrder
	Receipt *entity.Receipt
}

// Receive aplica las líneas pendientes de la recepción. Las líneas ya aplicadas en un intento
// anterior se saltan, por lo que reintentar tras ErrPartialFailure no duplica cantidades.
// Productos y tallas de las líneas se validan antes de pasar la orden a RECEIVING.
//
// Errores: ErrNotFound, ErrInvalidState (orden completada o en recepción activa), ErrValidation,
// ErrConflict (otra sesión cambió el estado), ErrPartialFailure (falló una línea con otras ya
// aplicadas; la orden queda FAILED_PARTIAL). Si no se aplicó ninguna línea se devuelve la causa.
func (w *ReceivingWorkflow) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	if in.PurchaseOrderID == "" {
		return nil, fmt.Errorf("%w: purchase_order_id requerido", domain.ErrValidation)
	}
	unlock, err := w.engine.locker.Lock(ctx, OrderLockKey(in.PurchaseOrderID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	po, err := w.repos.Orders.GetByID(ctx, in.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, in.PurchaseOrderID)
	}
	if po.Status == entity.POStatusReceiving {
		if err := w.takeOver(ctx, po); err != nil {
			return nil, err
		}
	}
	if !po.Status.CanStartReceiving() {
		return nil, fmt.Errorf("%w: la orden %s está en estado %s", domain.ErrInvalidState, po.ID, po.Status)
	}

	receipt, err := w.prepareReceipt(ctx, po, in)
	if err != nil {
		return nil, err
	}
	if err := w.checkLines(ctx, receipt); err != nil {
		return nil, err
	}
	if receipt.LocationID != "" {
		if err := w.engine.stock.checkLocation(ctx, receipt.LocationID); err != nil {
			return nil, err
		}
	}

	if err := w.repos.Orders.TransitionStatus(ctx, po.ID, po.Status, entity.POStatusReceiving, nil); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: la orden %s cambió de estado durante la recepción", domain.ErrConflict, po.ID)
		}
		return nil, err
	}
	po.Status = entity.POStatusReceiving

	receipt.Attempts++
	receipt.UpdatedAt = w.now()
	if err := w.repos.Receipts.Save(ctx, receipt); err != nil {
		return nil, w.fail(ctx, po, receipt, err)
	}

	for _, i := range receipt.Pending() {
		line := &receipt.Lines[i]
		if err := w.applyLine(ctx, po, receipt, line); err != nil {
			line.Status = entity.ReceiptLineFailed
			line.Error = err.Error()
			w.log.Warn().Err(err).
				Str("purchase_order_id", po.ID).
				Str("product_id", line.ProductID).
				Int("line", i).
				Msg("línea de recepción fallida")
			return nil, w.fail(ctx, po, receipt, fmt.Errorf("línea %d: %w", i, err))
		}
		line.Status = entity.ReceiptLineApplied
		line.Error = ""
		receipt.UpdatedAt = w.now()
		if err := w.repos.Receipts.Save(ctx, receipt); err != nil {
			return nil, w.fail(ctx, po, receipt, err)
		}
	}

	completedAt := w.now()
	if err := w.repos.Orders.TransitionStatus(ctx, po.ID, entity.POStatusReceiving, entity.POStatusCompleted, &completedAt); err != nil {
		return nil, w.fail(ctx, po, receipt, err)
	}
	po.Status = entity.POStatusCompleted
	po.CompletedAt = &completedAt
	receipt.CompletedAt = &completedAt
	receipt.UpdatedAt = completedAt
	if err := w.repos.Receipts.Save(ctx, receipt); err != nil {
		w.log.Warn().Err(err).Str("purchase_order_id", po.ID).Msg("no se pudo cerrar el registro de recepción")
	}

	w.log.Info().
		Str("purchase_order_id", po.ID).
		Str("batch_number", receipt.BatchNumber).
		Int("lines", len(receipt.Lines)).
		Msg("orden de compra recibida")
	return &ReceiveResult{Order: po, Receipt: receipt}, nil
}

// Receipt devuelve el progreso de recepción de la orden. ErrNotFound si nunca se intentó.
func (w *ReceivingWorkflow) Receipt(ctx context.Context, purchaseOrderID string) (*entity.Receipt, error) {
	r, err := w.repos.Receipts.GetByPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: la orden %s no tiene recepciones", domain.ErrNotFound, purchaseOrderID)
	}
	return r, nil
}

// takeOver pasa a FAILED_PARTIAL una orden en RECEIVING cuya recepción no avanza desde hace
// StaleAfter (o que nunca llegó a guardarse). Con la recepción viva devuelve ErrInvalidState.
func (w *ReceivingWorkflow) takeOver(ctx context.Context, po *entity.PurchaseOrder) error {
	receipt, err := w.repos.Receipts.GetByPurchaseOrder(ctx, po.ID)
	if err != nil {
		return err
	}
	if receipt != nil {
		if idle := w.now().Sub(receipt.UpdatedAt); idle < w.cfg.StaleAfter {
			return fmt.Errorf("%w: la orden %s está en estado %s (última actividad hace %s)",
				domain.ErrInvalidState, po.ID, po.Status, idle.Round(time.Second))
		}
	}
	if err := w.repos.Orders.TransitionStatus(ctx, po.ID, entity.POStatusReceiving, entity.POStatusFailedPartial, nil); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("%w: la orden %s cambió de estado durante la recepción", domain.ErrConflict, po.ID)
		}
		return err
	}
	w.log.Warn().
		Str("purchase_order_id", po.ID).
		Msg("recepción abandonada en RECEIVING; se retoma")
	po.Status = entity.POStatusFailedPartial
	return nil
}

// checkLines valida productos y tallas de las líneas pendientes sin escribir nada.
func (w *ReceivingWorkflow) checkLines(ctx context.Context, receipt *entity.Receipt) error {
	for _, i := range receipt.Pending() {
		line := receipt.Lines[i]
		product, err := loadProduct(ctx, w.repos, line.ProductID)
		if err != nil {
			return fmt.Errorf("línea %d: %w", i, err)
		}
		if err := domledger.CheckProfile(product); err != nil {
			return fmt.Errorf("línea %d: %w", i, err)
		}
		if len(line.Sizes) > 0 {
			if _, err := domledger.NormalizeSizes(product.SizeProfile, line.Sizes); err != nil {
				return fmt.Errorf("línea %d: %w", i, err)
			}
		} else if product.HasSizes() {
			return fmt.Errorf("%w: línea %d: el producto %s maneja tallas (%s); indique el desglose",
				domain.ErrValidation, i, product.ID, product.SizeProfile)
		}
	}
	return nil
}

// prepareReceipt crea el registro de recepción o reutiliza el de un intento anterior.
// En un reintento las líneas se emparejan por posición y solo se actualizan las no aplicadas.
func (w *ReceivingWorkflow) prepareReceipt(ctx context.Context, po *entity.PurchaseOrder, in ReceiveInput) (*entity.Receipt, error) {
	now := w.now()
	lines, err := w.buildLines(po, in.Lines, now)
	if err != nil {
		return nil, err
	}

	receipt, err := w.repos.Receipts.GetByPurchaseOrder(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		number := in.BatchNumber
		if number == "" {
			number = GenerateBatchNumber(w.cfg.BatchPrefix, now)
		}
		return &entity.Receipt{
			PurchaseOrderID: po.ID,
			BatchNumber:     number,
			LocationID:      in.LocationID,
			Lines:           lines,
			StartedAt:       now,
			UpdatedAt:       now,
		}, nil
	}

	if in.BatchNumber != "" && in.BatchNumber != receipt.BatchNumber {
		return nil, fmt.Errorf("%w: la recepción de la orden %s usa el lote %s", domain.ErrValidation, po.ID, receipt.BatchNumber)
	}
	if in.LocationID != "" && in.LocationID != receipt.LocationID {
		return nil, fmt.Errorf("%w: la recepción de la orden %s no puede cambiar de ubicación", domain.ErrValidation, po.ID)
	}
	if len(in.Lines) > 0 {
		if len(lines) != len(receipt.Lines) {
			return nil, fmt.Errorf("%w: se esperaban %d líneas", domain.ErrValidation, len(receipt.Lines))
		}
		for i := range receipt.Lines {
			if lines[i].ProductID != receipt.Lines[i].ProductID {
				return nil, fmt.Errorf("%w: la línea %d corresponde al producto %s", domain.ErrValidation, i, receipt.Lines[i].ProductID)
			}
			if receipt.Lines[i].Status != entity.ReceiptLineApplied {
				receipt.Lines[i] = lines[i]
			}
		}
	}
	return receipt, nil
}

// buildLines valida las líneas recibidas; sin líneas toma las de la orden.
func (w *ReceivingWorkflow) buildLines(po *entity.PurchaseOrder, inputs []ReceiveLineInput, now time.Time) ([]entity.ReceiptLine, error) {
	if len(inputs) == 0 {
		for _, l := range po.Lines {
			in := ReceiveLineInput{ProductID: l.ProductID, Quantity: l.Quantity}
			if l.Size != "" {
				in.Sizes = []entity.BatchSize{{Size: l.Size, Quantity: l.Quantity}}
			}
			inputs = append(inputs, in)
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: la orden %s no tiene líneas", domain.ErrValidation, po.ID)
	}
	defaultExpiry := now.AddDate(0, w.cfg.DefaultExpiryMonths, 0)
	lines := make([]entity.ReceiptLine, 0, len(inputs))
	for i, in := range inputs {
		if in.ProductID == "" {
			return nil, fmt.Errorf("%w: línea %d sin producto", domain.ErrValidation, i)
		}
		qty := in.Quantity
		if len(in.Sizes) > 0 {
			sum := 0
			for _, s := range in.Sizes {
				if s.Quantity < 0 {
					return nil, fmt.Errorf("%w: línea %d: cantidad negativa para la talla %s", domain.ErrValidation, i, s.Size)
				}
				sum += s.Quantity
			}
			if qty != 0 && qty != sum {
				return nil, fmt.Errorf("%w: línea %d: la cantidad %d no coincide con la suma de tallas %d", domain.ErrValidation, i, qty, sum)
			}
			qty = sum
		}
		if qty <= 0 {
			return nil, fmt.Errorf("%w: línea %d: la cantidad debe ser positiva", domain.ErrValidation, i)
		}
		expiry := in.ExpiryDate
		if expiry.IsZero() {
			expiry = defaultExpiry
		}
		lines = append(lines, entity.ReceiptLine{
			ProductID:  in.ProductID,
			Quantity:   qty,
			ExpiryDate: expiry,
			Sizes:      append([]entity.BatchSize(nil), in.Sizes...),
			Status:     entity.ReceiptLinePending,
		})
	}
	return lines, nil
}

// applyLine crea o extiende el lote de la línea y acredita la ubicación de la recepción.
// Si el crédito falla se revierte lo agregado al lote para que el reintento no lo duplique.
func (w *ReceivingWorkflow) applyLine(ctx context.Context, po *entity.PurchaseOrder, receipt *entity.Receipt, line *entity.ReceiptLine) error {
	e := w.engine
	unlock, err := e.locker.Lock(ctx, ProductLockKey(line.ProductID))
	if err != nil {
		return err
	}
	defer unlock()

	product, err := loadProduct(ctx, w.repos, line.ProductID)
	if err != nil {
		return err
	}
	intake := batchIntake{
		number:     receipt.BatchNumber,
		supplierID: po.SupplierID,
		expiry:     line.ExpiryDate,
		sizes:      line.Sizes,
		quantity:   line.Quantity,
	}
	batch, added, err := e.receiveIntoBatch(ctx, product, intake)
	if err != nil {
		return err
	}
	if receipt.LocationID != "" {
		if _, err := e.stock.ApplyDelta(ctx, line.ProductID, receipt.LocationID, added); err != nil {
			if rerr := e.revertIntake(ctx, product, intake); rerr != nil {
				return fmt.Errorf("lote %s recibido sin acreditar la ubicación %s: %w", batch.BatchNumber, receipt.LocationID, errors.Join(err, rerr))
			}
			return err
		}
	}
	e.recordApplied(ctx, receipt.ID, entity.MovementReceipt, line.ProductID, receipt.LocationID, batch.BatchNumber, "", added, "OC "+po.ID)
	return nil
}

// fail deja la orden en FAILED_PARTIAL y persiste el progreso para el reintento.
// ErrPartialFailure solo si alguna línea quedó aplicada.
func (w *ReceivingWorkflow) fail(ctx context.Context, po *entity.PurchaseOrder, receipt *entity.Receipt, cause error) error {
	receipt.UpdatedAt = w.now()
	if err := w.repos.Receipts.Save(ctx, receipt); err != nil {
		w.log.Error().Err(err).Str("purchase_order_id", po.ID).Msg("no se pudo guardar el progreso de recepción")
	}
	if err := w.repos.Orders.TransitionStatus(ctx, po.ID, entity.POStatusReceiving, entity.POStatusFailedPartial, nil); err != nil {
		w.log.Error().Err(err).Str("purchase_order_id", po.ID).Msg("no se pudo marcar la orden como FAILED_PARTIAL")
	} else {
		po.Status = entity.POStatusFailedPartial
	}
	if len(receipt.Pending()) == len(receipt.Lines) {
		return fmt.Errorf("orden %s: %w", po.ID, cause)
	}
	return fmt.Errorf("%w: orden %s: %w", domain.ErrPartialFailure, po.ID, cause)
}

// revertIntake resta del lote lo que receiveIntoBatch le sumó.
func (e *AdjustmentEngine) revertIntake(ctx context.Context, product *entity.Product, in batchIntake) error {
	batch, err := e.repos.Batches.GetByNumber(ctx, product.ID, in.number)
	if err != nil {
		return err
	}
	if batch == nil {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, in.number)
	}
	next := batch
	if len(in.sizes) > 0 {
		sizes, err := domledger.NormalizeSizes(product.SizeProfile, in.sizes)
		if err != nil {
			return err
		}
		for _, s := range sizes {
			if s.Quantity == 0 {
				continue
			}
			if next, err = domledger.ApplyDelta(next, -s.Quantity, s.Size, product.SizeProfile); err != nil {
				return err
			}
		}
	} else if next, err = domledger.ApplyDelta(next, -in.quantity, "", product.SizeProfile); err != nil {
		return err
	}
	return e.repos.Batches.UpdateQuantities(ctx, next, batch.Version)
}
