package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

var errStoreDown = errors.New("almacén no disponible")

type fixture struct {
	store *memory.Store
	repos ledger.Repositories
	svc   *ledger.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	st.PutProduct(&entity.Product{ID: "p-shoe", Name: "Zapato", SKU: "ZAP-01", LowStockThreshold: 3, SizeProfile: entity.SizeProfileAdult})
	st.PutProduct(&entity.Product{ID: "p-gel", Name: "Gel", SKU: "GEL-01", LowStockThreshold: 5})
	st.PutProduct(&entity.Product{ID: "p-cream", Name: "Crema", SKU: "CRE-01", LowStockThreshold: 2})
	st.PutLocation(&entity.Location{ID: "L1", Name: "Bodega"})
	st.PutLocation(&entity.Location{ID: "L2", Name: "Tienda"})

	f := &fixture{store: st, repos: reposFor(st)}
	f.svc = ledger.NewService(f.repos, nil, ledger.Config{Workers: 2}, zerolog.Nop())
	return f
}

func reposFor(st *memory.Store) ledger.Repositories {
	return st.Repositories()
}

// rebuild recrea los casos de uso con los repositorios actuales del fixture.
func (f *fixture) rebuild() {
	f.rebuildWith(ledger.Config{Workers: 2})
}

func (f *fixture) rebuildWith(cfg ledger.Config) {
	f.svc = ledger.NewService(f.repos, nil, cfg, zerolog.Nop())
}

func (f *fixture) qty(t *testing.T, productID, locationID string) int {
	t.Helper()
	rec, err := f.svc.Stock.Get(context.Background(), productID, locationID)
	if err != nil {
		t.Fatalf("leer stock: %v", err)
	}
	return rec.Quantity
}

func (f *fixture) batch(t *testing.T, productID, number string) *entity.Batch {
	t.Helper()
	b, err := f.repos.Batches.GetByNumber(context.Background(), productID, number)
	if err != nil {
		t.Fatalf("leer lote: %v", err)
	}
	return b
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// flakyStock falla las escrituras sobre ubicaciones concretas.
type flakyStock struct {
	repository.StockRecordRepository

	mu sync.Mutex
	// failing ubicación -> número de escrituras exitosas permitidas antes de fallar (-1: nunca falla)
	failing map[string]int
}

func (f *flakyStock) allow(locationID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.failing[locationID]
	if !ok || n < 0 {
		return true
	}
	if n == 0 {
		return false
	}
	f.failing[locationID] = n - 1
	return true
}

func (f *flakyStock) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = map[string]int{}
}

func (f *flakyStock) Create(ctx context.Context, rec *entity.StockRecord) error {
	if !f.allow(rec.LocationID) {
		return errStoreDown
	}
	return f.StockRecordRepository.Create(ctx, rec)
}

func (f *flakyStock) UpdateQuantity(ctx context.Context, rec *entity.StockRecord, expected int64) error {
	if !f.allow(rec.LocationID) {
		return errStoreDown
	}
	return f.StockRecordRepository.UpdateQuantity(ctx, rec, expected)
}

// stuckOrders no puede marcar órdenes como FAILED_PARTIAL.
type stuckOrders struct {
	repository.PurchaseOrderRepository
}

func (o stuckOrders) TransitionStatus(ctx context.Context, id string, from, to entity.POStatus, completedAt *time.Time) error {
	if to == entity.POStatusFailedPartial {
		return errStoreDown
	}
	return o.PurchaseOrderRepository.TransitionStatus(ctx, id, from, to, completedAt)
}

// recordingLocker cuenta las claves bloqueadas.
type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	held map[string]bool
}

func (l *recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, errors.New("lock reentrante: " + key)
	}
	l.held[key] = true
	l.keys = append(l.keys, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
