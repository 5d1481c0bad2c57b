//go:build integration

package postgres_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:15",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		log.Fatalf("no se pudo iniciar postgres: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}
	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	if err := postgres.Migrate(ctx, testPool, zerolog.Nop()); err != nil {
		log.Fatalf("migraciones: %v", err)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func seed(t *testing.T, productID string, profile entity.SizeProfile) {
	t.Helper()
	ctx := context.Background()
	_, err := testPool.Exec(ctx, `INSERT INTO products (id, name, sku, low_stock_threshold, size_profile) VALUES ($1, $1, $1, 2, $2)`,
		productID, string(profile))
	require.NoError(t, err)
	for _, loc := range []string{"L1", "L2"} {
		_, err := testPool.Exec(ctx, `INSERT INTO locations (id, name) VALUES ($1, $1) ON CONFLICT (id) DO NOTHING`, loc)
		require.NoError(t, err)
	}
}

func newService() (*ledger.Service, ledger.Repositories) {
	repos := postgres.NewRepositories(testPool)
	return ledger.NewService(repos, nil, ledger.Config{Workers: 2}, zerolog.Nop()), repos
}

func TestBatchRepo_VersionYTallasJSONB(t *testing.T) {
	seed(t, "it-shoe", entity.SizeProfileAdult)
	ctx := context.Background()
	repo := postgres.NewBatchRepository(testPool)

	b := &entity.Batch{
		ProductID: "it-shoe", BatchNumber: "B1", ExpiryDate: time.Now().AddDate(1, 0, 0), CreatedDate: time.Now(),
		Quantity: 5, Sizes: []entity.BatchSize{{Size: "6", Quantity: 2}, {Size: "7", Quantity: 3}},
	}
	require.NoError(t, repo.Create(ctx, b))
	assert.ErrorIs(t, repo.Create(ctx, &entity.Batch{ProductID: "it-shoe", BatchNumber: "B1", ExpiryDate: time.Now()}), domain.ErrDuplicate)

	got, err := repo.GetByNumber(ctx, "it-shoe", "B1")
	require.NoError(t, err)
	assert.Equal(t, b.Sizes, got.Sizes)

	got.Quantity, got.Sizes[1].Quantity = 4, 2
	require.NoError(t, repo.UpdateQuantities(ctx, got, 1))
	assert.Equal(t, int64(2), got.Version)
	assert.ErrorIs(t, repo.UpdateQuantities(ctx, got, 1), domain.ErrConflict)
}

func TestTransfer_SobrePostgres(t *testing.T) {
	seed(t, "it-gel", entity.SizeProfileNone)
	ctx := context.Background()
	svc, repos := newService()
	require.NoError(t, repos.Stock.Create(ctx, &entity.StockRecord{ProductID: "it-gel", LocationID: "L1", Quantity: 10}))

	_, err := svc.Transfers.Transfer(ctx, ledger.TransferInput{ProductID: "it-gel", FromLocationID: "L1", ToLocationID: "L2", Quantity: 4})
	require.NoError(t, err)
	_, err = svc.Transfers.Transfer(ctx, ledger.TransferInput{ProductID: "it-gel", FromLocationID: "L1", ToLocationID: "L2", Quantity: 10})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	l1, err := svc.Stock.Get(ctx, "it-gel", "L1")
	require.NoError(t, err)
	l2, err := svc.Stock.Get(ctx, "it-gel", "L2")
	require.NoError(t, err)
	assert.Equal(t, 6, l1.Quantity)
	assert.Equal(t, 4, l2.Quantity)

	movs, err := svc.History.ListMovements(ctx, "it-gel", 10, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 2)
}

func TestReceive_SobrePostgres(t *testing.T) {
	seed(t, "it-a", entity.SizeProfileNone)
	seed(t, "it-b", entity.SizeProfileNone)
	ctx := context.Background()
	svc, _ := newService()
	orders := postgres.NewPurchaseOrderRepository(testPool, testPool)
	require.NoError(t, orders.Create(ctx, &entity.PurchaseOrder{ID: "it-po", SupplierID: "sup", Lines: []entity.POLine{
		{ProductID: "it-a", Quantity: 5}, {ProductID: "it-b", Quantity: 3},
	}}))

	res, err := svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: "it-po", LocationID: "L1"})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCompleted, res.Order.Status)

	receipt, err := svc.Receiving.Receipt(ctx, "it-po")
	require.NoError(t, err)
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, entity.ReceiptLineApplied, receipt.Lines[1].Status)

	d, err := svc.Reconciler.Check(ctx, "it-a")
	require.NoError(t, err)
	assert.True(t, d.Balanced())
	assert.Equal(t, 5, d.BatchTotal)

	_, err = svc.Receiving.Receive(ctx, ledger.ReceiveInput{PurchaseOrderID: "it-po"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
