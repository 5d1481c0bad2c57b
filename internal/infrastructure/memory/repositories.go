package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.LocationRepository      = (*LocationRepo)(nil)
	_ repository.BatchRepository         = (*BatchRepo)(nil)
	_ repository.StockRecordRepository   = (*StockRecordRepo)(nil)
	_ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)
	_ repository.ReceiptRepository       = (*ReceiptRepo)(nil)
	_ repository.MovementRepository      = (*MovementRepo)(nil)
)

// ProductRepo productos en memoria.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.products))
	for id := range r.s.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]*entity.Product, 0, len(ids))
	for _, id := range ids {
		c := *r.s.products[id]
		out = append(out, &c)
	}
	return out, nil
}

// LocationRepo ubicaciones en memoria.
type LocationRepo struct{ s *Store }

func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *LocationRepo) List(_ context.Context) ([]*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// BatchRepo lotes en memoria con control de versión.
type BatchRepo struct{ s *Store }

func (r *BatchRepo) Create(_ context.Context, batch *entity.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.batches[batch.ProductID] {
		if b.BatchNumber == batch.BatchNumber {
			return domain.ErrDuplicate
		}
	}
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	batch.Version = 1
	r.s.batches[batch.ProductID] = append(r.s.batches[batch.ProductID], batch.Clone())
	return nil
}

func (r *BatchRepo) GetByNumber(_ context.Context, productID, batchNumber string) (*entity.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.batches[productID] {
		if b.BatchNumber == batchNumber {
			return b.Clone(), nil
		}
	}
	return nil, nil
}

func (r *BatchRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := r.s.batches[productID]
	out := make([]*entity.Batch, 0, len(list))
	for _, b := range list {
		out = append(out, b.Clone())
	}
	return out, nil
}

func (r *BatchRepo) UpdateQuantities(_ context.Context, batch *entity.Batch, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, b := range r.s.batches[batch.ProductID] {
		if b.BatchNumber != batch.BatchNumber {
			continue
		}
		if b.Version != expectedVersion {
			return domain.ErrConflict
		}
		stored := b.Clone()
		stored.Quantity = batch.Quantity
		stored.Sizes = append([]entity.BatchSize(nil), batch.Sizes...)
		stored.Version = expectedVersion + 1
		r.s.batches[batch.ProductID][i] = stored
		batch.Version = stored.Version
		return nil
	}
	return domain.ErrNotFound
}

// StockRecordRepo stock por ubicación en memoria.
type StockRecordRepo struct{ s *Store }

func (r *StockRecordRepo) Get(_ context.Context, productID, locationID string) (*entity.StockRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.stock[stockKey(productID, locationID)]
	if !ok {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

func (r *StockRecordRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockRecord
	for _, rec := range r.s.stock {
		if rec.ProductID == productID {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (r *StockRecordRepo) Create(_ context.Context, record *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := stockKey(record.ProductID, record.LocationID)
	if _, exists := r.s.stock[key]; exists {
		return domain.ErrConflict
	}
	record.Version = 1
	record.UpdatedAt = time.Now()
	c := *record
	r.s.stock[key] = &c
	return nil
}

func (r *StockRecordRepo) UpdateQuantity(_ context.Context, record *entity.StockRecord, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := stockKey(record.ProductID, record.LocationID)
	stored, ok := r.s.stock[key]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrConflict
	}
	record.Version = expectedVersion + 1
	record.UpdatedAt = time.Now()
	c := *record
	r.s.stock[key] = &c
	return nil
}

// PurchaseOrderRepo órdenes de compra en memoria.
type PurchaseOrderRepo struct{ s *Store }

func (r *PurchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	po, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return clonePO(po), nil
}

func (r *PurchaseOrderRepo) TransitionStatus(_ context.Context, id string, from, to entity.POStatus, completedAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	po, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if po.Status != from {
		return domain.ErrConflict
	}
	po.Status = to
	if completedAt != nil {
		t := *completedAt
		po.CompletedAt = &t
	}
	return nil
}

// ReceiptRepo progreso de recepciones en memoria.
type ReceiptRepo struct{ s *Store }

func (r *ReceiptRepo) GetByPurchaseOrder(_ context.Context, purchaseOrderID string) (*entity.Receipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.receipts[purchaseOrderID]
	if !ok {
		return nil, nil
	}
	return cloneReceipt(rec), nil
}

func (r *ReceiptRepo) Save(_ context.Context, receipt *entity.Receipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	r.s.receipts[receipt.PurchaseOrderID] = cloneReceipt(receipt)
	return nil
}

// MovementRepo diario de movimientos en memoria.
type MovementRepo struct{ s *Store }

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	c := *m
	r.s.movements = append(r.s.movements, &c)
	return nil
}

func (r *MovementRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.movements {
		if m.ID == id {
			m.Status = status
			m.UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Movement
	// más recientes primero
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if m := r.s.movements[i]; m.ProductID == productID {
			c := *m
			out = append(out, &c)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MovementRepo) ListPending(_ context.Context, limit int) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if m.Status != entity.MovementPending {
			continue
		}
		c := *m
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
