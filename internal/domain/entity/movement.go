package entity

import "time"

// Tipos de movimiento del ledger.
const (
	MovementAdjustment   = "ADJUSTMENT"
	MovementStockIn      = "STOCK_IN"
	MovementStockOut     = "STOCK_OUT"
	MovementTransferOut  = "TRANSFER_OUT"
	MovementTransferIn   = "TRANSFER_IN"
	MovementCompensation = "COMPENSATION"
	MovementReceipt      = "RECEIPT"
)

// Estados de un movimiento en el diario.
const (
	MovementPending     = "PENDING"
	MovementApplied     = "APPLIED"
	MovementCompensated = "COMPENSATED"
	MovementFailed      = "FAILED"
)

// Movement entrada del diario de movimientos. Las operaciones de varios pasos (traslado,
// recepción) registran cada paso para que una falla intermedia quede visible y compensable.
type Movement struct {
	ID            string
	TransactionID string // agrupa los pasos de una misma operación
	Kind          string
	ProductID     string
	LocationID    string // vacío si el paso solo toca el catálogo de lotes
	BatchNumber   string
	Size          string
	Delta         int
	Status        string
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
