package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	domledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// Reconciler lo que la tarea de conciliación necesita de *ledger.Reconciler.
type Reconciler interface {
	Check(ctx context.Context, productID string) (domledger.Discrepancy, error)
	CheckAll(ctx context.Context) ([]domledger.Discrepancy, error)
}

// LowStockLister lo que el barrido necesita de *ledger.LowStockEvaluator.
type LowStockLister interface {
	ListLow(ctx context.Context) ([]ledger.LowStockItem, error)
}

// ReconcileJob ejecuta la conciliación y deja los descuadres en el log.
type ReconcileJob struct {
	reconciler Reconciler
	log        zerolog.Logger
}

// NewReconcileJob construye el handler.
func NewReconcileJob(r Reconciler, log zerolog.Logger) *ReconcileJob {
	return &ReconcileJob{reconciler: r, log: log}
}

// Handle procesa TaskReconcile.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
		}
	}

	var unbalanced []domledger.Discrepancy
	if payload.ProductID != "" {
		d, err := j.reconciler.Check(ctx, payload.ProductID)
		if err != nil {
			return err
		}
		if !d.Balanced() {
			unbalanced = append(unbalanced, d)
		}
	} else {
		list, err := j.reconciler.CheckAll(ctx)
		if err != nil {
			return err
		}
		unbalanced = list
	}

	for _, d := range unbalanced {
		j.log.Warn().
			Str("job", TaskReconcile).
			Str("product_id", d.ProductID).
			Int("difference", d.Difference()).
			Msg("descuadre entre lotes y ubicaciones")
	}
	j.log.Info().Str("job", TaskReconcile).Int("unbalanced", len(unbalanced)).Msg("conciliación ejecutada")
	return nil
}

// LowStockJob registra los productos con stock bajo para alertas externas.
type LowStockJob struct {
	lister LowStockLister
	log    zerolog.Logger
}

// NewLowStockJob construye el handler.
func NewLowStockJob(l LowStockLister, log zerolog.Logger) *LowStockJob {
	return &LowStockJob{lister: l, log: log}
}

// Handle procesa TaskLowStockScan.
func (j *LowStockJob) Handle(ctx context.Context, _ *asynq.Task) error {
	items, err := j.lister.ListLow(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		j.log.Warn().
			Str("job", TaskLowStockScan).
			Str("product_id", it.ProductID).
			Str("sku", it.SKU).
			Int("total", it.Total).
			Int("threshold", it.Threshold).
			Msg("stock bajo")
	}
	return nil
}
