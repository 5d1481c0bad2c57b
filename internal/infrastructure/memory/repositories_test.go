package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func TestBatchRepo_EscrituraCondicionalPorVersion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Batches()

	b := &entity.Batch{ProductID: "p1", BatchNumber: "B1", Quantity: 5}
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, int64(1), b.Version)
	assert.ErrorIs(t, repo.Create(ctx, &entity.Batch{ProductID: "p1", BatchNumber: "B1"}), domain.ErrDuplicate)

	first, _ := repo.GetByNumber(ctx, "p1", "B1")
	second, _ := repo.GetByNumber(ctx, "p1", "B1")

	first.Quantity = 4
	require.NoError(t, repo.UpdateQuantities(ctx, first, 1))
	assert.Equal(t, int64(2), first.Version)

	second.Quantity = 1
	assert.ErrorIs(t, repo.UpdateQuantities(ctx, second, 1), domain.ErrConflict, "la segunda sesión leyó una versión vieja")

	stored, _ := repo.GetByNumber(ctx, "p1", "B1")
	assert.Equal(t, 4, stored.Quantity)
}

func TestStockRecordRepo_CrearYActualizar(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().StockRecords()

	missing, err := repo.Get(ctx, "p1", "L1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	rec := &entity.StockRecord{ProductID: "p1", LocationID: "L1"}
	require.NoError(t, repo.Create(ctx, rec))
	assert.ErrorIs(t, repo.Create(ctx, &entity.StockRecord{ProductID: "p1", LocationID: "L1"}), domain.ErrConflict)

	rec.Quantity = 7
	require.NoError(t, repo.UpdateQuantity(ctx, rec, 1))
	assert.ErrorIs(t, repo.UpdateQuantity(ctx, rec, 1), domain.ErrConflict)

	list, err := repo.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].Quantity)
}

func TestPurchaseOrderRepo_TransicionCompareAndSet(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	st.PutPurchaseOrder(&entity.PurchaseOrder{ID: "po", Status: entity.POStatusPending})
	repo := st.PurchaseOrders()

	require.NoError(t, repo.TransitionStatus(ctx, "po", entity.POStatusPending, entity.POStatusReceiving, nil))
	assert.ErrorIs(t, repo.TransitionStatus(ctx, "po", entity.POStatusPending, entity.POStatusReceiving, nil), domain.ErrConflict)
	assert.ErrorIs(t, repo.TransitionStatus(ctx, "nope", entity.POStatusPending, entity.POStatusReceiving, nil), domain.ErrNotFound)
}

func TestMovementRepo_PendientesYPaginado(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Movements()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.Movement{ProductID: "p1", Delta: i + 1, Status: entity.MovementPending}))
	}
	all, err := repo.ListByProduct(ctx, "p1", 2, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 3, all[0].Delta, "más recientes primero")

	require.NoError(t, repo.UpdateStatus(ctx, all[0].ID, entity.MovementApplied))
	pending, err := repo.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
