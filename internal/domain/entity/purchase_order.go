package entity

import "time"

// POStatus estados de una orden de compra durante la recepción.
type POStatus string

const (
	POStatusPending       POStatus = "PENDING"
	POStatusReceiving     POStatus = "RECEIVING"
	POStatusCompleted     POStatus = "COMPLETED"
	POStatusFailedPartial POStatus = "FAILED_PARTIAL"
)

// CanStartReceiving indica si desde este estado se puede iniciar (o reintentar) una recepción.
func (s POStatus) CanStartReceiving() bool {
	return s == POStatusPending || s == POStatusFailedPartial
}

// POLine línea de una orden de compra.
type POLine struct {
	ProductID string
	Quantity  int
	Size      string // opcional
}

// PurchaseOrder orden de compra a un proveedor. Inmutable una vez COMPLETED.
type PurchaseOrder struct {
	ID          string
	SupplierID  string
	Status      POStatus
	Lines       []POLine
	CreatedAt   time.Time
	CompletedAt *time.Time
}
