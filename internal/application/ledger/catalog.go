package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// BatchCatalog mantiene y valida los lotes de cada producto.
type BatchCatalog struct {
	repos Repositories
	now   func() time.Time
}

// NewBatchCatalog construye el catálogo de lotes.
func NewBatchCatalog(repos Repositories) *BatchCatalog {
	return &BatchCatalog{repos: repos, now: time.Now}
}

// CreateBatchInput entrada para crear un lote. Se indica Sizes o Quantity (o ambos, coincidentes).
type CreateBatchInput struct {
	ProductID   string
	SupplierID  string
	BatchNumber string
	ExpiryDate  time.Time
	Sizes       []entity.BatchSize
	Quantity    *int
}

// CreateBatch valida y persiste un lote nuevo. ErrValidation si el número de lote ya existe
// para el producto o si tallas y cantidad no cuadran.
func (c *BatchCatalog) CreateBatch(ctx context.Context, in CreateBatchInput) (*entity.Batch, error) {
	product, err := c.product(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	batch, err := domledger.NewBatch(product, domledger.BatchSpec{
		ProductID:   in.ProductID,
		SupplierID:  in.SupplierID,
		BatchNumber: in.BatchNumber,
		ExpiryDate:  in.ExpiryDate,
		Sizes:       in.Sizes,
		Quantity:    in.Quantity,
	}, c.now())
	if err != nil {
		return nil, err
	}
	existing, err := c.repos.Batches.GetByNumber(ctx, product.ID, batch.BatchNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicateBatch(product.ID, batch.BatchNumber)
	}
	if err := c.repos.Batches.Create(ctx, batch); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, duplicateBatch(product.ID, batch.BatchNumber)
		}
		return nil, err
	}
	return batch, nil
}

// FindBatchWithAvailableQuantity devuelve el primer lote (por creación) con stock positivo en la
// talla indicada, o en el total si size es vacío. ErrNotFound si ninguno tiene stock.
func (c *BatchCatalog) FindBatchWithAvailableQuantity(ctx context.Context, productID, size string) (*entity.Batch, error) {
	batches, err := c.repos.Batches.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	b := domledger.FirstAvailable(batches, size)
	if b == nil {
		if size != "" {
			return nil, fmt.Errorf("%w: ningún lote del producto %s tiene stock en talla %s", domain.ErrNotFound, productID, size)
		}
		return nil, fmt.Errorf("%w: ningún lote del producto %s tiene stock", domain.ErrNotFound, productID)
	}
	return b, nil
}

// ListBatches lista los lotes del producto en orden de creación, incluidos los agotados.
func (c *BatchCatalog) ListBatches(ctx context.Context, productID string) ([]*entity.Batch, error) {
	if _, err := c.product(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := c.repos.Batches.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	domledger.SortByCreation(batches)
	return batches, nil
}

func (c *BatchCatalog) product(ctx context.Context, id string) (*entity.Product, error) {
	return loadProduct(ctx, c.repos, id)
}

func loadProduct(ctx context.Context, repos Repositories, id string) (*entity.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrValidation)
	}
	p, err := repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return p, nil
}

func duplicateBatch(productID, number string) error {
	return fmt.Errorf("%w: el lote %s ya existe para el producto %s", domain.ErrValidation, number, productID)
}
