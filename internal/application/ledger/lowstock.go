package ledger

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

const productPageSize = 200

// LowStockItem producto en o por debajo de su umbral.
type LowStockItem struct {
	ProductID string
	SKU       string
	Name      string
	Total     int
	Threshold int
}

// LowStockEvaluator evalúa el umbral de stock bajo sobre el total de todas las ubicaciones.
type LowStockEvaluator struct {
	repos   Repositories
	workers int
}

// NewLowStockEvaluator construye el evaluador. workers limita las lecturas concurrentes en ListLow.
func NewLowStockEvaluator(repos Repositories, workers int) *LowStockEvaluator {
	if workers <= 0 {
		workers = 4
	}
	return &LowStockEvaluator{repos: repos, workers: workers}
}

// IsLow indica si el total del producto es menor o igual a su umbral.
func (l *LowStockEvaluator) IsLow(ctx context.Context, productID string) (bool, int, error) {
	product, err := loadProduct(ctx, l.repos, productID)
	if err != nil {
		return false, 0, err
	}
	records, err := l.repos.Stock.ListByProduct(ctx, productID)
	if err != nil {
		return false, 0, err
	}
	return domledger.IsLow(product, records), domledger.TotalQuantity(records), nil
}

// ListLow recorre el catálogo y devuelve los productos con stock bajo, ordenados por SKU.
func (l *LowStockEvaluator) ListLow(ctx context.Context) ([]LowStockItem, error) {
	var (
		mu  sync.Mutex
		out []LowStockItem
	)
	err := forEachProduct(ctx, l.repos, l.workers, func(ctx context.Context, p *entity.Product) error {
		records, err := l.repos.Stock.ListByProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		if !domledger.IsLow(p, records) {
			return nil
		}
		mu.Lock()
		out = append(out, LowStockItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Total:     domledger.TotalQuantity(records),
			Threshold: p.LowStockThreshold,
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// forEachProduct pagina el catálogo y ejecuta fn por producto con concurrencia acotada.
func forEachProduct(ctx context.Context, repos Repositories, workers int, fn func(context.Context, *entity.Product) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for offset := 0; ; offset += productPageSize {
		page, err := repos.Products.List(gctx, productPageSize, offset)
		if err != nil {
			_ = g.Wait()
			return err
		}
		for _, p := range page {
			g.Go(func() error { return fn(gctx, p) })
		}
		if len(page) < productPageSize {
			break
		}
	}
	return g.Wait()
}
