// Package memory implementa los puertos del ledger en memoria. Sirve como vista en caché
// para desarrollo sin base de datos y como doble de pruebas de los casos de uso.
package memory

import (
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Store agrupa el estado en memoria de todos los repositorios.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	locations map[string]*entity.Location
	batches   map[string][]*entity.Batch // productID -> lotes en orden de creación
	stock     map[string]*entity.StockRecord
	orders    map[string]*entity.PurchaseOrder
	receipts  map[string]*entity.Receipt
	movements []*entity.Movement
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]*entity.Product),
		locations: make(map[string]*entity.Location),
		batches:   make(map[string][]*entity.Batch),
		stock:     make(map[string]*entity.StockRecord),
		orders:    make(map[string]*entity.PurchaseOrder),
		receipts:  make(map[string]*entity.Receipt),
	}
}

// PutProduct registra (o reemplaza) un producto del catálogo.
func (s *Store) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.products[p.ID] = &c
}

// PutLocation registra (o reemplaza) una ubicación.
func (s *Store) PutLocation(l *entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *l
	s.locations[l.ID] = &c
}

// PutPurchaseOrder registra (o reemplaza) una orden de compra.
func (s *Store) PutPurchaseOrder(po *entity.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[po.ID] = clonePO(po)
}

// PutStockRecord fija la cantidad de un registro de stock (carga inicial de datos).
func (s *Store) PutStockRecord(r *entity.StockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *r
	if c.Version == 0 {
		c.Version = 1
	}
	s.stock[stockKey(r.ProductID, r.LocationID)] = &c
}

// PutBatch inserta un lote sin validaciones (carga inicial de datos).
func (s *Store) PutBatch(b *entity.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := b.Clone()
	if c.Version == 0 {
		c.Version = 1
	}
	s.batches[b.ProductID] = append(s.batches[b.ProductID], c)
}

// Products devuelve el repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Locations devuelve el repositorio de ubicaciones.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }

// Batches devuelve el repositorio de lotes.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{s: s} }

// StockRecords devuelve el repositorio de stock por ubicación.
func (s *Store) StockRecords() *StockRecordRepo { return &StockRecordRepo{s: s} }

// PurchaseOrders devuelve el repositorio de órdenes de compra.
func (s *Store) PurchaseOrders() *PurchaseOrderRepo { return &PurchaseOrderRepo{s: s} }

// Receipts devuelve el repositorio de progreso de recepciones.
func (s *Store) Receipts() *ReceiptRepo { return &ReceiptRepo{s: s} }

// Movements devuelve el diario de movimientos.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Repositories agrupa los repositorios del store para los casos de uso.
func (s *Store) Repositories() ledger.Repositories {
	return ledger.Repositories{
		Products:  s.Products(),
		Locations: s.Locations(),
		Batches:   s.Batches(),
		Stock:     s.StockRecords(),
		Orders:    s.PurchaseOrders(),
		Receipts:  s.Receipts(),
		Movements: s.Movements(),
	}
}

func stockKey(productID, locationID string) string {
	return productID + "|" + locationID
}

func clonePO(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *po
	c.Lines = append([]entity.POLine(nil), po.Lines...)
	if po.CompletedAt != nil {
		t := *po.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func cloneReceipt(r *entity.Receipt) *entity.Receipt {
	c := *r
	c.Lines = make([]entity.ReceiptLine, len(r.Lines))
	for i, l := range r.Lines {
		l.Sizes = append([]entity.BatchSize(nil), l.Sizes...)
		c.Lines[i] = l
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
