package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
)

// NewRepositories cablea todos los adaptadores del ledger sobre el pool.
func NewRepositories(pool *pgxpool.Pool) ledger.Repositories {
	return ledger.Repositories{
		Products:  NewProductRepository(pool),
		Locations: NewLocationRepository(pool),
		Batches:   NewBatchRepository(pool),
		Stock:     NewStockRecordRepository(pool),
		Orders:    NewPurchaseOrderRepository(pool, pool),
		Receipts:  NewReceiptRepository(pool, pool),
		Movements: NewMovementRepository(pool),
	}
}
