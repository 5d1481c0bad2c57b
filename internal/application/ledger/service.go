package ledger

import "github.com/rs/zerolog"

// Config parámetros de los casos de uso del ledger.
type Config struct {
	Receiving ReceivingConfig
	Workers   int // concurrencia de los recorridos de catálogo (stock bajo, conciliación)
}

// Service agrupa los casos de uso del ledger sobre un mismo juego de repositorios.
type Service struct {
	Catalog    *BatchCatalog
	Stock      *StockRecordStore
	Engine     *AdjustmentEngine
	Transfers  *TransferCoordinator
	Receiving  *ReceivingWorkflow
	LowStock   *LowStockEvaluator
	Reconciler *Reconciler
	History    *MovementHistory
}

// NewService cablea los casos de uso. locker puede ser nil.
func NewService(repos Repositories, locker Locker, cfg Config, log zerolog.Logger) *Service {
	engine := NewAdjustmentEngine(repos, locker, log)
	return &Service{
		Catalog:    NewBatchCatalog(repos),
		Stock:      NewStockRecordStore(repos),
		Engine:     engine,
		Transfers:  NewTransferCoordinator(repos, locker, log),
		Receiving:  NewReceivingWorkflow(repos, engine, cfg.Receiving, log),
		LowStock:   NewLowStockEvaluator(repos, cfg.Workers),
		Reconciler: NewReconciler(repos, cfg.Workers, log),
		History:    NewMovementHistory(repos),
	}
}
