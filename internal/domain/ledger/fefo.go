package ledger

import (
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Draw cantidad a descontar de un lote concreto.
type Draw struct {
	BatchNumber string
	Size        string
	Quantity    int
}

// PlanDraw reparte qty unidades entre los lotes, primero los de vencimiento más próximo
// (FEFO) y luego por orden de creación. Si el total disponible no alcanza devuelve
// ErrInsufficientStock sin plan parcial.
func PlanDraw(batches []*entity.Batch, qty int, size string) ([]Draw, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidArgument)
	}
	ordered := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b != nil && available(b, size) > 0 {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if !a.CreatedDate.Equal(b.CreatedDate) {
			return a.CreatedDate.Before(b.CreatedDate)
		}
		return a.BatchNumber < b.BatchNumber
	})

	remaining := qty
	var plan []Draw
	for _, b := range ordered {
		if remaining == 0 {
			break
		}
		take := available(b, size)
		if take > remaining {
			take = remaining
		}
		plan = append(plan, Draw{BatchNumber: b.BatchNumber, Size: size, Quantity: take})
		remaining -= take
	}
	if remaining > 0 {
		if size != "" {
			return nil, fmt.Errorf("%w: faltan %d unidades de la talla %s en los lotes", domain.ErrInsufficientStock, remaining, size)
		}
		return nil, fmt.Errorf("%w: faltan %d unidades en los lotes", domain.ErrInsufficientStock, remaining)
	}
	return plan, nil
}
