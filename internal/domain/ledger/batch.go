package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BatchSpec datos para crear un lote. Se indica Sizes o Quantity; si se indican ambos,
// Quantity debe coincidir con la suma de las tallas.
type BatchSpec struct {
	ProductID   string
	SupplierID  string
	BatchNumber string
	ExpiryDate  time.Time
	Sizes       []entity.BatchSize
	Quantity    *int
}

// NewBatch valida la especificación contra el producto y construye el lote.
// La unicidad del número de lote por producto la verifica el caller contra el repositorio.
func NewBatch(product *entity.Product, spec BatchSpec, now time.Time) (*entity.Batch, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: producto requerido", domain.ErrValidation)
	}
	if err := CheckProfile(product); err != nil {
		return nil, err
	}
	if spec.ProductID != "" && spec.ProductID != product.ID {
		return nil, fmt.Errorf("%w: el lote no corresponde al producto %s", domain.ErrValidation, product.ID)
	}
	number := strings.TrimSpace(spec.BatchNumber)
	if number == "" {
		return nil, fmt.Errorf("%w: número de lote requerido", domain.ErrValidation)
	}
	if spec.ExpiryDate.IsZero() {
		return nil, fmt.Errorf("%w: fecha de vencimiento requerida", domain.ErrValidation)
	}

	batch := &entity.Batch{
		ProductID:   product.ID,
		SupplierID:  spec.SupplierID,
		BatchNumber: number,
		ExpiryDate:  spec.ExpiryDate,
		CreatedDate: now,
	}

	if len(spec.Sizes) > 0 {
		sizes, err := NormalizeSizes(product.SizeProfile, spec.Sizes)
		if err != nil {
			return nil, err
		}
		batch.Sizes = sizes
		batch.Quantity = batch.SumSizes()
		if spec.Quantity != nil && *spec.Quantity != batch.Quantity {
			return nil, fmt.Errorf("%w: la cantidad %d no coincide con la suma de tallas %d",
				domain.ErrValidation, *spec.Quantity, batch.Quantity)
		}
		return batch, nil
	}

	if spec.Quantity == nil {
		return nil, fmt.Errorf("%w: indique tallas o cantidad", domain.ErrValidation)
	}
	if *spec.Quantity < 0 {
		return nil, fmt.Errorf("%w: la cantidad no puede ser negativa", domain.ErrValidation)
	}
	if product.HasSizes() && *spec.Quantity > 0 {
		return nil, fmt.Errorf("%w: el producto %s maneja tallas (%s); indique el desglose",
			domain.ErrValidation, product.ID, product.SizeProfile)
	}
	batch.Quantity = *spec.Quantity
	return batch, nil
}

// NormalizeSizes valida las tallas (no negativas, únicas, dentro del perfil) y las ordena
// según el perfil. Sin perfil se conserva el orden recibido.
func NormalizeSizes(profile entity.SizeProfile, sizes []entity.BatchSize) ([]entity.BatchSize, error) {
	if !profile.Valid() {
		return nil, unknownProfile(profile)
	}
	seen := make(map[string]struct{}, len(sizes))
	out := make([]entity.BatchSize, 0, len(sizes))
	for _, s := range sizes {
		label := strings.TrimSpace(s.Size)
		if label == "" {
			return nil, fmt.Errorf("%w: talla vacía", domain.ErrValidation)
		}
		if s.Quantity < 0 {
			return nil, fmt.Errorf("%w: cantidad negativa para la talla %s", domain.ErrValidation, label)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: talla %s repetida", domain.ErrValidation, label)
		}
		if profile != entity.SizeProfileNone && profile.Position(label) < 0 {
			return nil, fmt.Errorf("%w: la talla %s no pertenece al perfil %s", domain.ErrValidation, label, profile)
		}
		seen[label] = struct{}{}
		out = append(out, entity.BatchSize{Size: label, Quantity: s.Quantity})
	}
	if profile != entity.SizeProfileNone {
		sort.SliceStable(out, func(i, j int) bool {
			return profile.Position(out[i].Size) < profile.Position(out[j].Size)
		})
	}
	return out, nil
}

// CheckProfile rechaza productos con un perfil de tallas desconocido: no podrían recibir
// ni cantidad sin desglose ni ninguna talla.
func CheckProfile(product *entity.Product) error {
	if product != nil && !product.SizeProfile.Valid() {
		return unknownProfile(product.SizeProfile)
	}
	return nil
}

func unknownProfile(profile entity.SizeProfile) error {
	return fmt.Errorf("%w: perfil de tallas desconocido %q", domain.ErrValidation, profile)
}

// SortByCreation ordena lotes por fecha de creación (y número de lote como desempate).
func SortByCreation(batches []*entity.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.CreatedDate.Equal(b.CreatedDate) {
			return a.CreatedDate.Before(b.CreatedDate)
		}
		return a.BatchNumber < b.BatchNumber
	})
}

// FirstAvailable devuelve el primer lote (por orden de creación) con cantidad positiva
// en la talla indicada, o en el total si size es vacío. nil si ninguno tiene stock.
func FirstAvailable(batches []*entity.Batch, size string) *entity.Batch {
	ordered := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b != nil {
			ordered = append(ordered, b)
		}
	}
	SortByCreation(ordered)
	for _, b := range ordered {
		if available(b, size) > 0 {
			return b
		}
	}
	return nil
}

func available(b *entity.Batch, size string) int {
	if size == "" {
		return b.Quantity
	}
	return b.SizeQuantity(size)
}
