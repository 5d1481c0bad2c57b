package ledger

import (
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ApplyDelta calcula el lote resultante de sumar delta (con signo) al lote, a nivel de
// lote completo o de una talla. No muta el lote recibido: si la operación falla el estado
// queda intacto.
//
// Reglas:
//   - size vacío sobre un lote con tallas: ErrInvalidSize (hay que indicar la talla).
//   - talla inexistente y delta > 0: se crea con cantidad 0 (en orden de perfil si aplica).
//   - talla inexistente y delta < 0: ErrInvalidSize.
//   - resultado negativo: ErrInsufficientStock.
func ApplyDelta(b *entity.Batch, delta int, size string, profile entity.SizeProfile) (*entity.Batch, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: lote requerido", domain.ErrNotFound)
	}
	if delta == 0 {
		return nil, fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrValidation)
	}
	if !profile.Valid() {
		return nil, unknownProfile(profile)
	}
	next := b.Clone()

	if size == "" {
		if next.HasSizes() {
			return nil, fmt.Errorf("%w: el lote %s está desglosado por talla; indique la talla",
				domain.ErrInvalidSize, b.BatchNumber)
		}
		qty := next.Quantity + delta
		if qty < 0 {
			return nil, fmt.Errorf("%w: no se puede retirar más del stock disponible del lote %s (%d)",
				domain.ErrInsufficientStock, b.BatchNumber, b.Quantity)
		}
		next.Quantity = qty
		return next, nil
	}

	if profile != entity.SizeProfileNone && profile.Position(size) < 0 {
		return nil, fmt.Errorf("%w: la talla %s no pertenece al perfil %s", domain.ErrInvalidSize, size, profile)
	}

	idx := next.SizeIndex(size)
	if idx < 0 {
		if delta < 0 {
			return nil, fmt.Errorf("%w: el lote %s no tiene la talla %s", domain.ErrInvalidSize, b.BatchNumber, size)
		}
		if !next.HasSizes() && next.Quantity > 0 {
			return nil, fmt.Errorf("%w: el lote %s no está desglosado por talla", domain.ErrInvalidSize, b.BatchNumber)
		}
		next.Sizes = append(next.Sizes, entity.BatchSize{Size: size})
		if profile != entity.SizeProfileNone {
			sort.SliceStable(next.Sizes, func(i, j int) bool {
				return profile.Position(next.Sizes[i].Size) < profile.Position(next.Sizes[j].Size)
			})
		}
		idx = next.SizeIndex(size)
	}

	qty := next.Sizes[idx].Quantity + delta
	if qty < 0 {
		return nil, fmt.Errorf("%w: no se puede retirar más del stock disponible para la talla %s (%d)",
			domain.ErrInsufficientStock, size, next.Sizes[idx].Quantity)
	}
	next.Sizes[idx].Quantity = qty
	next.Quantity = next.SumSizes()
	return next, nil
}
