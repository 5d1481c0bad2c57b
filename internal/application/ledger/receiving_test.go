package ledger_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func pendingPO(id string, lines ...entity.POLine) *entity.PurchaseOrder {
	return &entity.PurchaseOrder{ID: id, SupplierID: "sup-1", Status: entity.POStatusPending, Lines: lines}
}

func orderStatus(t *testing.T, f *fixture, id string) entity.POStatus {
	t.Helper()
	po, err := f.repos.Orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	return po.Status
}

// Escenario: OC con P1 (5) y P2 (3); se crean dos lotes y la orden queda COMPLETED.
func TestReceive_DosLineasCompleta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutPurchaseOrder(pendingPO("po-1",
		entity.POLine{ProductID: "p-gel", Quantity: 5},
		entity.POLine{ProductID: "p-cream", Quantity: 3},
	))
	in := ledger.ReceiveInput{
		PurchaseOrderID: "po-1",
		BatchNumber:     "B-100",
		LocationID:      "L1",
		Lines: []ledger.ReceiveLineInput{
			{ProductID: "p-gel", Quantity: 5, ExpiryDate: date(2027, 3, 1)},
			{ProductID: "p-cream", Quantity: 3, ExpiryDate: date(2027, 4, 1)},
		},
	}

	res, err := f.svc.Receiving.Receive(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCompleted, res.Order.Status)
	require.NotNil(t, res.Order.CompletedAt)
	assert.Empty(t, res.Receipt.Pending())

	gel := f.batch(t, "p-gel", "B-100")
	require.NotNil(t, gel)
	assert.Equal(t, 5, gel.Quantity)
	assert.Equal(t, "sup-1", gel.SupplierID)
	assert.Equal(t, date(2027, 3, 1), gel.ExpiryDate)
	assert.Equal(t, 3, f.batch(t, "p-cream", "B-100").Quantity)
	assert.Equal(t, 5, f.qty(t, "p-gel", "L1"))
	assert.Equal(t, entity.POStatusCompleted, orderStatus(t, f, "po-1"))

	// re-recibir una orden completada no duplica cantidades
	_, err = f.svc.Receiving.Receive(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 5, f.batch(t, "p-gel", "B-100").Quantity)
}

func TestReceive_FallaParcialYReintentoIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutPurchaseOrder(pendingPO("po-2",
		entity.POLine{ProductID: "p-gel", Quantity: 5},
		entity.POLine{ProductID: "p-cream", Quantity: 2},
	))
	flaky := &flakyStock{StockRecordRepository: f.store.StockRecords(), failing: map[string]int{"L1": 1}}
	f.repos.Stock = flaky
	f.rebuild()
	in := ledger.ReceiveInput{PurchaseOrderID: "po-2", BatchNumber: "B-200", LocationID: "L1"}

	_, err := f.svc.Receiving.Receive(ctx, in)
	require.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.ErrorIs(t, err, errStoreDown, "la causa se conserva")
	assert.Equal(t, entity.POStatusFailedPartial, orderStatus(t, f, "po-2"))
	assert.Equal(t, 5, f.batch(t, "p-gel", "B-200").Quantity, "la primera línea no se revierte")
	assert.Equal(t, 0, f.batch(t, "p-cream", "B-200").Quantity, "la línea fallida se revierte")

	receipt, err := f.svc.Receiving.Receipt(ctx, "po-2")
	require.NoError(t, err)
	assert.Equal(t, entity.ReceiptLineApplied, receipt.Lines[0].Status)
	assert.Equal(t, entity.ReceiptLineFailed, receipt.Lines[1].Status)
	assert.NotEmpty(t, receipt.Lines[1].Error)

	flaky.heal()
	res, err := f.svc.Receiving.Receive(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCompleted, res.Order.Status)
	assert.Equal(t, 2, res.Receipt.Attempts)
	assert.Equal(t, 5, f.batch(t, "p-gel", "B-200").Quantity, "el reintento no duplica la línea aplicada")
	assert.Equal(t, 2, f.batch(t, "p-cream", "B-200").Quantity)
	assert.Equal(t, 5, f.qty(t, "p-gel", "L1"))
	assert.Equal(t, 2, f.qty(t, "p-cream", "L1"))
}

// Una orden que no pudo marcarse FAILED_PARTIAL queda en RECEIVING; pasado el plazo sin
// actividad el reintento la retoma y completa sin duplicar.
func TestReceive_RetomaOrdenAbandonadaEnRecepcion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutPurchaseOrder(pendingPO("po-6",
		entity.POLine{ProductID: "p-gel", Quantity: 5},
		entity.POLine{ProductID: "p-cream", Quantity: 3},
	))
	flaky := &flakyStock{StockRecordRepository: f.store.StockRecords(), failing: map[string]int{"L2": 1}}
	f.repos.Stock = flaky
	f.repos.Orders = stuckOrders{PurchaseOrderRepository: f.store.PurchaseOrders()}
	f.rebuild()
	in := ledger.ReceiveInput{PurchaseOrderID: "po-6", BatchNumber: "B-600", LocationID: "L2"}

	_, err := f.svc.Receiving.Receive(ctx, in)
	require.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.Equal(t, entity.POStatusReceiving, orderStatus(t, f, "po-6"))

	// recepción reciente: se considera en curso
	_, err = f.svc.Receiving.Receive(ctx, in)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Contains(t, err.Error(), "RECEIVING")

	flaky.heal()
	f.repos.Orders = f.store.PurchaseOrders()
	f.rebuildWith(ledger.Config{Workers: 2, Receiving: ledger.ReceivingConfig{StaleAfter: time.Nanosecond}})
	time.Sleep(time.Millisecond)

	res, err := f.svc.Receiving.Receive(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCompleted, res.Order.Status)
	assert.Equal(t, entity.POStatusCompleted, orderStatus(t, f, "po-6"))
	assert.Equal(t, 2, res.Receipt.Attempts)
	assert.Equal(t, 5, f.batch(t, "p-gel", "B-600").Quantity)
	assert.Equal(t, 3, f.batch(t, "p-cream", "B-600").Quantity)
	assert.Equal(t, 5, f.qty(t, "p-gel", "L2"))
	assert.Equal(t, 3, f.qty(t, "p-cream", "L2"))
}

func TestReceive_ValidaLineasAntesDeEmpezar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutProduct(&entity.Product{ID: "p-odd", Name: "Raro", SKU: "ODD-01", SizeProfile: entity.SizeProfile("xl")})

	cases := []struct {
		name string
		line entity.POLine
		want error
	}{
		{"producto inexistente", entity.POLine{ProductID: "p-new", Quantity: 2}, domain.ErrNotFound},
		{"talla fuera del perfil", entity.POLine{ProductID: "p-shoe", Quantity: 2, Size: "12"}, domain.ErrValidation},
		{"producto con tallas sin desglose", entity.POLine{ProductID: "p-shoe", Quantity: 2}, domain.ErrValidation},
		{"perfil desconocido", entity.POLine{ProductID: "p-odd", Quantity: 2}, domain.ErrValidation},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := "po-v" + strconv.Itoa(i)
			f.store.PutPurchaseOrder(pendingPO(id, entity.POLine{ProductID: "p-gel", Quantity: 1}, tc.line))

			_, err := f.svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: id, BatchNumber: "B-" + id})
			require.ErrorIs(t, err, tc.want)
			assert.NotErrorIs(t, err, domain.ErrPartialFailure)
			assert.Equal(t, entity.POStatusPending, orderStatus(t, f, id))
			assert.Nil(t, f.batch(t, "p-gel", "B-"+id), "no se aplica ninguna línea")
		})
	}
}

func TestReceive_SinLineasAplicadasDevuelveCausa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutPurchaseOrder(pendingPO("po-7", entity.POLine{ProductID: "p-gel", Quantity: 4}))
	flaky := &flakyStock{StockRecordRepository: f.store.StockRecords(), failing: map[string]int{"L1": 0}}
	f.repos.Stock = flaky
	f.rebuild()
	in := ledger.ReceiveInput{PurchaseOrderID: "po-7", BatchNumber: "B-700", LocationID: "L1"}

	_, err := f.svc.Receiving.Receive(ctx, in)
	require.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, domain.ErrPartialFailure)
	assert.Equal(t, entity.POStatusFailedPartial, orderStatus(t, f, "po-7"), "la orden queda reintentable")
	assert.Equal(t, 0, f.batch(t, "p-gel", "B-700").Quantity)

	flaky.heal()
	_, err = f.svc.Receiving.Receive(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 4, f.batch(t, "p-gel", "B-700").Quantity)
	assert.Equal(t, 4, f.qty(t, "p-gel", "L1"))
}

func TestReceive_TomaLockPorOrden(t *testing.T) {
	f := newFixture(t)
	f.store.PutPurchaseOrder(pendingPO("po-8", entity.POLine{ProductID: "p-gel", Quantity: 1}))
	locker := &recordingLocker{}
	svc := ledger.NewService(f.repos, locker, ledger.Config{Workers: 2}, zerolog.Nop())

	_, err := svc.Receiving.Receive(context.Background(), ledger.ReceiveInput{PurchaseOrderID: "po-8"})
	require.NoError(t, err)
	assert.Equal(t, []string{ledger.OrderLockKey("po-8"), ledger.ProductLockKey("p-gel")}, locker.keys)
	assert.Empty(t, locker.held)
}

func TestReceive_ExtiendeLoteExistente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutBatch(&entity.Batch{ProductID: "p-shoe", BatchNumber: "B-300", Quantity: 2,
		Sizes: []entity.BatchSize{{Size: "6", Quantity: 2}}})
	f.store.PutPurchaseOrder(pendingPO("po-3", entity.POLine{ProductID: "p-shoe", Quantity: 3, Size: "7"}))

	_, err := f.svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: "po-3", BatchNumber: "B-300"})
	require.NoError(t, err)

	b := f.batch(t, "p-shoe", "B-300")
	assert.Equal(t, 5, b.Quantity)
	assert.Equal(t, 3, b.SizeQuantity("7"))
}

func TestReceive_NumeroYVencimientoPorDefecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutPurchaseOrder(pendingPO("po-4", entity.POLine{ProductID: "p-gel", Quantity: 1}))

	before := time.Now()
	res, err := f.svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: "po-4"})
	require.NoError(t, err)
	assert.Regexp(t, `^B-\d+$`, res.Receipt.BatchNumber)

	b := f.batch(t, "p-gel", res.Receipt.BatchNumber)
	require.NotNil(t, b)
	assert.False(t, b.ExpiryDate.Before(before.AddDate(1, 0, 0).Add(-time.Minute)), "vencimiento por defecto a 12 meses")
}

func TestReceive_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.store.PutPurchaseOrder(&entity.PurchaseOrder{ID: "po-r", Status: entity.POStatusReceiving, Lines: []entity.POLine{{ProductID: "p-gel", Quantity: 1}}})
	require.NoError(t, f.repos.Receipts.Save(ctx, &entity.Receipt{PurchaseOrderID: "po-r", BatchNumber: "B-r", UpdatedAt: time.Now()}))
	_, err = f.svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: "po-r"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	f.store.PutPurchaseOrder(pendingPO("po-5", entity.POLine{ProductID: "p-gel", Quantity: 1}))
	_, err = f.svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: "po-5",
		Lines: []ledger.ReceiveLineInput{{ProductID: "p-gel", Quantity: 0}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, entity.POStatusPending, orderStatus(t, f, "po-5"), "la validación falla antes de cambiar el estado")

	_, err = f.svc.Receiving.Receipt(ctx, "po-5")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateBatchNumber(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "B-1700000000123", ledger.GenerateBatchNumber("", now))
	assert.Equal(t, "LOT-1700000000123", ledger.GenerateBatchNumber("LOT", now))
}
