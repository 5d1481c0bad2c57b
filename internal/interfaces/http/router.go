package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
)

// ReconcileEnqueuer encola conciliaciones en el worker. Lo implementa *jobs.Client.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, productID string) (string, error)
}

// RouterDeps dependencias para el router. Jobs nil ejecuta la conciliación en línea.
type RouterDeps struct {
	Ledger *ledger.Service
	Jobs   ReconcileEnqueuer
	Logger zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/ledger", RequestLogger(deps.Logger))

	ledgerHandler := NewLedgerHandler(deps.Ledger, deps.Jobs, deps.Logger)
	receivingHandler := NewReceivingHandler(deps.Ledger.Receiving, deps.Logger)

	// Lotes
	api.Post("/batches", ledgerHandler.CreateBatch)
	api.Get("/products/:productId/batches", ledgerHandler.ListBatches)
	api.Get("/products/:productId/batches/available", ledgerHandler.AvailableBatch)

	// Movimientos de stock
	api.Post("/adjustments", ledgerHandler.Adjust)
	api.Post("/stock-in", ledgerHandler.StockIn)
	api.Post("/stock-out", ledgerHandler.StockOut)
	api.Post("/transfers", ledgerHandler.Transfer)

	// Consultas
	api.Get("/products/:productId/stock", ledgerHandler.ProductStock)
	api.Get("/products/:productId/low-stock", ledgerHandler.ProductLowStock)
	api.Get("/low-stock", ledgerHandler.LowStock)
	api.Get("/products/:productId/reconciliation", ledgerHandler.Reconciliation)
	api.Post("/reconciliation", ledgerHandler.RunReconciliation)
	api.Get("/products/:productId/movements", ledgerHandler.Movements)
	api.Get("/movements/pending", ledgerHandler.PendingMovements)

	// Recepción de órdenes de compra
	api.Post("/purchase-orders/:id/receive", receivingHandler.Receive)
	api.Get("/purchase-orders/:id/receipt", receivingHandler.Receipt)
}
