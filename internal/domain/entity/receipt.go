package entity

import "time"

// ReceiptLineStatus progreso de una línea de recepción.
type ReceiptLineStatus string

const (
	ReceiptLinePending ReceiptLineStatus = "PENDING"
	ReceiptLineApplied ReceiptLineStatus = "APPLIED"
	ReceiptLineFailed  ReceiptLineStatus = "FAILED"
)

// ReceiptLine línea recibida: se convierte en un lote nuevo o extiende uno existente.
type ReceiptLine struct {
	ProductID  string
	Quantity   int
	ExpiryDate time.Time
	Sizes      []BatchSize
	Status     ReceiptLineStatus
	Error      string
}

// Receipt registra el progreso de la recepción de una orden de compra, línea por línea,
// para que un reintento tras una falla parcial no vuelva a aplicar lo ya aplicado.
type Receipt struct {
	ID              string
	PurchaseOrderID string
	BatchNumber     string
	LocationID      string
	Lines           []ReceiptLine
	Attempts        int
	StartedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// Pending devuelve los índices de las líneas que aún no se han aplicado.
func (r *Receipt) Pending() []int {
	var idx []int
	for i, l := range r.Lines {
		if l.Status != ReceiptLineApplied {
			idx = append(idx, i)
		}
	}
	return idx
}
