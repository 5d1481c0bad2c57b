package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestIsLow_UmbralInclusivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutStockRecord(&entity.StockRecord{ProductID: "p-gel", LocationID: "L1", Quantity: 3})
	f.store.PutStockRecord(&entity.StockRecord{ProductID: "p-gel", LocationID: "L2", Quantity: 2})

	low, total, err := f.svc.LowStock.IsLow(ctx, "p-gel")
	require.NoError(t, err)
	assert.True(t, low, "5 <= 5 es stock bajo")
	assert.Equal(t, 5, total)

	_, _, err = f.svc.LowStock.IsLow(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListLow(t *testing.T) {
	f := newFixture(t)
	f.store.PutStockRecord(&entity.StockRecord{ProductID: "p-gel", LocationID: "L1", Quantity: 9})
	f.store.PutStockRecord(&entity.StockRecord{ProductID: "p-shoe", LocationID: "L1", Quantity: 1})

	items, err := f.svc.LowStock.ListLow(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "CRE-01", items[0].SKU, "sin registros cuenta como cero")
	assert.Equal(t, "ZAP-01", items[1].SKU)
	assert.Equal(t, 1, items[1].Total)
}

func TestReconciler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutBatch(&entity.Batch{ProductID: "p-gel", BatchNumber: "G1", Quantity: 6})
	f.store.PutStockRecord(&entity.StockRecord{ProductID: "p-gel", LocationID: "L1", Quantity: 4})
	f.store.PutBatch(&entity.Batch{ProductID: "p-cream", BatchNumber: "C1", Quantity: 2})
	f.store.PutStockRecord(&entity.StockRecord{ProductID: "p-cream", LocationID: "L2", Quantity: 2})

	d, err := f.svc.Reconciler.Check(ctx, "p-gel")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Difference())

	all, err := f.svc.Reconciler.CheckAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "p-gel", all[0].ProductID)
}
