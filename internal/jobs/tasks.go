package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola de tareas del ledger.
	QueueDefault = "ledger"
	// TaskReconcile concilia lotes contra registros por ubicación.
	TaskReconcile = "ledger:reconcile"
	// TaskLowStockScan recorre el catálogo buscando productos en o bajo su umbral.
	TaskLowStockScan = "ledger:low_stock_scan"
)

// ReconcilePayload ProductID vacío concilia todo el catálogo.
type ReconcilePayload struct {
	ProductID string `json:"product_id,omitempty"`
}

// NewReconcileTask construye la tarea de conciliación.
func NewReconcileTask(productID string) (*asynq.Task, error) {
	data, err := json.Marshal(ReconcilePayload{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcile, data), nil
}

// NewLowStockScanTask construye la tarea de barrido de stock bajo.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}
