package entity

import "time"

// BatchSize cantidad de una talla dentro de un lote.
type BatchSize struct {
	Size     string
	Quantity int
}

// Batch representa una recepción de stock de un producto (número de lote, proveedor y vencimiento).
// Si Sizes no está vacío, Quantity == suma de Sizes[*].Quantity.
// Un lote nunca se elimina: se agota hasta cero y queda visible para auditoría y vencimientos.
type Batch struct {
	ID          string
	ProductID   string
	SupplierID  string // opcional, no se valida en el ledger
	BatchNumber string // único por producto
	ExpiryDate  time.Time
	CreatedDate time.Time
	Quantity    int
	Sizes       []BatchSize
	Version     int64 // control de concurrencia optimista
}

// HasSizes indica si el lote está desglosado por talla.
func (b *Batch) HasSizes() bool {
	return len(b.Sizes) > 0
}

// SizeIndex devuelve la posición de la talla en Sizes, o -1.
func (b *Batch) SizeIndex(size string) int {
	for i, s := range b.Sizes {
		if s.Size == size {
			return i
		}
	}
	return -1
}

// SizeQuantity devuelve la cantidad disponible de una talla (0 si no existe).
func (b *Batch) SizeQuantity(size string) int {
	if i := b.SizeIndex(size); i >= 0 {
		return b.Sizes[i].Quantity
	}
	return 0
}

// SumSizes suma las cantidades de todas las tallas.
func (b *Batch) SumSizes() int {
	total := 0
	for _, s := range b.Sizes {
		total += s.Quantity
	}
	return total
}

// Clone devuelve una copia profunda (los repositorios en memoria y el motor de ajustes
// nunca mutan el lote recibido).
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	c := *b
	if b.Sizes != nil {
		c.Sizes = make([]BatchSize, len(b.Sizes))
		copy(c.Sizes, b.Sizes)
	}
	return &c
}
