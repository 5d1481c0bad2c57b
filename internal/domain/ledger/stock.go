package ledger

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// TotalQuantity suma las cantidades de los registros de stock (ignora nil).
func TotalQuantity(records []*entity.StockRecord) int {
	total := 0
	for _, r := range records {
		if r != nil {
			total += r.Quantity
		}
	}
	return total
}

// BatchTotal suma las cantidades de los lotes (ignora nil).
func BatchTotal(batches []*entity.Batch) int {
	total := 0
	for _, b := range batches {
		if b != nil {
			total += b.Quantity
		}
	}
	return total
}

// IsLow indica si el stock total del producto está en o por debajo de su umbral.
// Entrada mal formada (producto nil o umbral negativo) se trata como "no bajo"; nunca falla.
func IsLow(product *entity.Product, records []*entity.StockRecord) bool {
	if product == nil || product.LowStockThreshold < 0 {
		return false
	}
	return TotalQuantity(records) <= product.LowStockThreshold
}

// Discrepancy resultado de conciliar la vista por lotes con la vista por ubicación.
type Discrepancy struct {
	ProductID     string
	BatchTotal    int
	LocationTotal int
}

// Difference lotes menos ubicaciones (positivo: faltan unidades en ubicaciones).
func (d Discrepancy) Difference() int {
	return d.BatchTotal - d.LocationTotal
}

// Balanced indica si ambas particiones reconcilian al mismo total.
func (d Discrepancy) Balanced() bool {
	return d.Difference() == 0
}

// Reconcile compara ambas particiones del mismo total para un producto.
func Reconcile(productID string, batches []*entity.Batch, records []*entity.StockRecord) Discrepancy {
	return Discrepancy{
		ProductID:     productID,
		BatchTotal:    BatchTotal(batches),
		LocationTotal: TotalQuantity(records),
	}
}
