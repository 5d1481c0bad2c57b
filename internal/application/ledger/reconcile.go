package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// Reconciler compara las dos particiones del stock de un producto: suma de lotes
// contra suma de registros por ubicación.
type Reconciler struct {
	repos   Repositories
	workers int
	log     zerolog.Logger
}

// NewReconciler construye el conciliador.
func NewReconciler(repos Repositories, workers int, log zerolog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 4
	}
	return &Reconciler{repos: repos, workers: workers, log: log}
}

// Check concilia un producto.
func (r *Reconciler) Check(ctx context.Context, productID string) (domledger.Discrepancy, error) {
	if _, err := loadProduct(ctx, r.repos, productID); err != nil {
		return domledger.Discrepancy{}, err
	}
	return r.check(ctx, productID)
}

// CheckAll concilia todo el catálogo y devuelve solo los productos descuadrados.
func (r *Reconciler) CheckAll(ctx context.Context) ([]domledger.Discrepancy, error) {
	var (
		mu  sync.Mutex
		out []domledger.Discrepancy
	)
	err := forEachProduct(ctx, r.repos, r.workers, func(ctx context.Context, p *entity.Product) error {
		d, err := r.check(ctx, p.ID)
		if err != nil {
			return err
		}
		if d.Balanced() {
			return nil
		}
		r.log.Warn().
			Str("product_id", p.ID).
			Int("batch_total", d.BatchTotal).
			Int("location_total", d.LocationTotal).
			Msg("stock descuadrado entre lotes y ubicaciones")
		mu.Lock()
		out = append(out, d)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *Reconciler) check(ctx context.Context, productID string) (domledger.Discrepancy, error) {
	batches, err := r.repos.Batches.ListByProduct(ctx, productID)
	if err != nil {
		return domledger.Discrepancy{}, err
	}
	records, err := r.repos.Stock.ListByProduct(ctx, productID)
	if err != nil {
		return domledger.Discrepancy{}, err
	}
	return domledger.Reconcile(productID, batches, records), nil
}
