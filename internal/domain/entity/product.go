package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. Es de solo lectura para el ledger:
// se crea y edita fuera de este núcleo.
type Product struct {
	ID                string
	Name              string
	SKU               string
	Barcode           string
	Category          string
	Price             decimal.Decimal // precio de venta
	CostPrice         decimal.Decimal
	LowStockThreshold int         // >= 0; stock total <= umbral se considera bajo
	SizeProfile       SizeProfile // vacío si el producto no maneja tallas
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasSizes indica si el producto tiene un perfil de tallas asignado.
func (p *Product) HasSizes() bool {
	return p != nil && p.SizeProfile != SizeProfileNone
}
