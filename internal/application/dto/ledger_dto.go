package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DateLayout formato de fechas de vencimiento en la API.
const DateLayout = "2006-01-02"

// SizeQuantityDTO cantidad por talla.
type SizeQuantityDTO struct {
	Size     string `json:"size" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// CreateBatchRequest body para POST /api/ledger/batches.
type CreateBatchRequest struct {
	ProductID   string            `json:"product_id" validate:"required"`
	SupplierID  string            `json:"supplier_id,omitempty"`
	BatchNumber string            `json:"batch_number" validate:"required"`
	ExpiryDate  string            `json:"expiry_date" validate:"required"`
	Sizes       []SizeQuantityDTO `json:"sizes,omitempty" validate:"dive"`
	Quantity    *int              `json:"quantity,omitempty"`
}

// AdjustmentRequest body para POST /api/ledger/adjustments.
// Con LocationID el ajuste mueve también el stock de la ubicación.
type AdjustmentRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	BatchNumber string `json:"batch_number" validate:"required"`
	LocationID  string `json:"location_id,omitempty"`
	Delta       int    `json:"delta" validate:"required"`
	Size        string `json:"size,omitempty"`
	Note        string `json:"note,omitempty" validate:"max=500"`
}

// StockInRequest body para POST /api/ledger/stock-in.
type StockInRequest struct {
	ProductID   string            `json:"product_id" validate:"required"`
	LocationID  string            `json:"location_id" validate:"required"`
	BatchNumber string            `json:"batch_number" validate:"required"`
	SupplierID  string            `json:"supplier_id,omitempty"`
	ExpiryDate  string            `json:"expiry_date" validate:"required"`
	Sizes       []SizeQuantityDTO `json:"sizes,omitempty" validate:"dive"`
	Quantity    int               `json:"quantity" validate:"min=0"`
	Note        string            `json:"note,omitempty" validate:"max=500"`
}

// StockOutRequest body para POST /api/ledger/stock-out.
type StockOutRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	Size       string `json:"size,omitempty"`
	Note       string `json:"note,omitempty" validate:"max=500"`
}

// TransferRequest body para POST /api/ledger/transfers.
type TransferRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	FromLocationID string `json:"from_location_id" validate:"required"`
	ToLocationID   string `json:"to_location_id" validate:"required,nefield=FromLocationID"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	Note           string `json:"note,omitempty" validate:"max=500"`
}

// ReceiveLineRequest línea recibida; sin expiry_date se usa el vencimiento por defecto.
type ReceiveLineRequest struct {
	ProductID  string            `json:"product_id" validate:"required"`
	Quantity   int               `json:"quantity" validate:"min=0"`
	ExpiryDate string            `json:"expiry_date,omitempty"`
	Sizes      []SizeQuantityDTO `json:"sizes,omitempty" validate:"dive"`
}

// ReceiveRequest body para POST /api/ledger/purchase-orders/:id/receive.
// Sin líneas se reciben las de la orden.
type ReceiveRequest struct {
	BatchNumber string               `json:"batch_number,omitempty"`
	LocationID  string               `json:"location_id" validate:"required"`
	Lines       []ReceiveLineRequest `json:"lines,omitempty" validate:"dive"`
}

// BatchResponse lote.
type BatchResponse struct {
	ID          string            `json:"id"`
	ProductID   string            `json:"product_id"`
	SupplierID  string            `json:"supplier_id,omitempty"`
	BatchNumber string            `json:"batch_number"`
	ExpiryDate  string            `json:"expiry_date"`
	CreatedDate time.Time         `json:"created_date"`
	Quantity    int               `json:"quantity"`
	Sizes       []SizeQuantityDTO `json:"sizes,omitempty"`
}

// StockRecordResponse stock de un producto en una ubicación.
type StockRecordResponse struct {
	ProductID  string    `json:"product_id"`
	LocationID string    `json:"location_id"`
	Quantity   int       `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// ProductStockResponse stock por ubicación y total de un producto.
type ProductStockResponse struct {
	ProductID string                `json:"product_id"`
	Total     int                   `json:"total"`
	Locations []StockRecordResponse `json:"locations"`
}

// DrawResponse unidades tomadas de un lote en una salida.
type DrawResponse struct {
	BatchNumber string `json:"batch_number"`
	Size        string `json:"size,omitempty"`
	Quantity    int    `json:"quantity"`
}

// StockOutResponse resultado de una salida FEFO.
type StockOutResponse struct {
	Draws  []DrawResponse      `json:"draws"`
	Record StockRecordResponse `json:"record"`
}

// TransferResponse resultado de un traslado.
type TransferResponse struct {
	TransactionID string              `json:"transaction_id"`
	From          StockRecordResponse `json:"from"`
	To            StockRecordResponse `json:"to"`
}

// LowStockResponse estado de stock bajo de un producto.
type LowStockResponse struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name,omitempty"`
	Total     int    `json:"total"`
	Threshold int    `json:"threshold,omitempty"`
	Low       bool   `json:"low"`
}

// ReconciliationResponse comparación lotes contra ubicaciones.
type ReconciliationResponse struct {
	ProductID     string `json:"product_id"`
	BatchTotal    int    `json:"batch_total"`
	LocationTotal int    `json:"location_total"`
	Difference    int    `json:"difference"`
	Balanced      bool   `json:"balanced"`
}

// MovementResponse entrada del diario.
type MovementResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	ProductID     string    `json:"product_id"`
	LocationID    string    `json:"location_id,omitempty"`
	BatchNumber   string    `json:"batch_number,omitempty"`
	Size          string    `json:"size,omitempty"`
	Delta         int       `json:"delta"`
	Status        string    `json:"status"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReceiptLineResponse progreso de una línea recibida.
type ReceiptLineResponse struct {
	ProductID  string            `json:"product_id"`
	Quantity   int               `json:"quantity"`
	ExpiryDate string            `json:"expiry_date"`
	Sizes      []SizeQuantityDTO `json:"sizes,omitempty"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
}

// ReceiptResponse progreso de la recepción de una orden.
type ReceiptResponse struct {
	ID              string                `json:"id"`
	PurchaseOrderID string                `json:"purchase_order_id"`
	OrderStatus     string                `json:"order_status,omitempty"`
	BatchNumber     string                `json:"batch_number"`
	LocationID      string                `json:"location_id"`
	Attempts        int                   `json:"attempts"`
	Lines           []ReceiptLineResponse `json:"lines"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
}

// ToSizes convierte el desglose de la API al de dominio.
func ToSizes(in []SizeQuantityDTO) []entity.BatchSize {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.BatchSize, len(in))
	for i, s := range in {
		out[i] = entity.BatchSize{Size: s.Size, Quantity: s.Quantity}
	}
	return out
}

func fromSizes(in []entity.BatchSize) []SizeQuantityDTO {
	if len(in) == 0 {
		return nil
	}
	out := make([]SizeQuantityDTO, len(in))
	for i, s := range in {
		out[i] = SizeQuantityDTO{Size: s.Size, Quantity: s.Quantity}
	}
	return out
}

// NewBatchResponse mapea un lote.
func NewBatchResponse(b *entity.Batch) BatchResponse {
	return BatchResponse{
		ID:          b.ID,
		ProductID:   b.ProductID,
		SupplierID:  b.SupplierID,
		BatchNumber: b.BatchNumber,
		ExpiryDate:  b.ExpiryDate.Format(DateLayout),
		CreatedDate: b.CreatedDate,
		Quantity:    b.Quantity,
		Sizes:       fromSizes(b.Sizes),
	}
}

// NewStockRecordResponse mapea un registro de stock.
func NewStockRecordResponse(r *entity.StockRecord) StockRecordResponse {
	if r == nil {
		return StockRecordResponse{}
	}
	return StockRecordResponse{
		ProductID:  r.ProductID,
		LocationID: r.LocationID,
		Quantity:   r.Quantity,
		UpdatedAt:  r.UpdatedAt,
	}
}

// NewMovementResponse mapea una entrada del diario.
func NewMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		Kind:          m.Kind,
		ProductID:     m.ProductID,
		LocationID:    m.LocationID,
		BatchNumber:   m.BatchNumber,
		Size:          m.Size,
		Delta:         m.Delta,
		Status:        m.Status,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
	}
}

// NewReceiptResponse mapea el progreso de una recepción. order puede ser nil.
func NewReceiptResponse(r *entity.Receipt, order *entity.PurchaseOrder) ReceiptResponse {
	out := ReceiptResponse{
		ID:              r.ID,
		PurchaseOrderID: r.PurchaseOrderID,
		BatchNumber:     r.BatchNumber,
		LocationID:      r.LocationID,
		Attempts:        r.Attempts,
		CompletedAt:     r.CompletedAt,
		Lines:           make([]ReceiptLineResponse, len(r.Lines)),
	}
	if order != nil {
		out.OrderStatus = string(order.Status)
	}
	for i, l := range r.Lines {
		out.Lines[i] = ReceiptLineResponse{
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			ExpiryDate: l.ExpiryDate.Format(DateLayout),
			Sizes:      fromSizes(l.Sizes),
			Status:     string(l.Status),
			Error:      l.Error,
		}
	}
	return out
}
