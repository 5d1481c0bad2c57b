package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockRecordStore totales por (producto, ubicación). Es el único camino de escritura
// sobre los registros de stock junto con el coordinador de traslados.
type StockRecordStore struct {
	repos Repositories
}

// NewStockRecordStore construye el almacén de registros de stock.
func NewStockRecordStore(repos Repositories) *StockRecordStore {
	return &StockRecordStore{repos: repos}
}

// Get devuelve el registro; si la ubicación nunca tuvo stock devuelve uno en cero sin persistirlo.
func (s *StockRecordStore) Get(ctx context.Context, productID, locationID string) (*entity.StockRecord, error) {
	rec, err := s.repos.Stock.Get(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &entity.StockRecord{ProductID: productID, LocationID: locationID}, nil
	}
	return rec, nil
}

// ListByProduct devuelve los registros del producto en todas sus ubicaciones.
func (s *StockRecordStore) ListByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error) {
	return s.repos.Stock.ListByProduct(ctx, productID)
}

// ApplyDelta suma delta al registro (producto, ubicación) con escritura condicional sobre
// la versión leída. Crea el registro en cero si no existe y delta > 0.
// ErrInsufficientStock si el resultado sería negativo; ErrConflict si otra sesión escribió antes.
func (s *StockRecordStore) ApplyDelta(ctx context.Context, productID, locationID string, delta int) (*entity.StockRecord, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidArgument)
	}
	if err := s.checkLocation(ctx, locationID); err != nil {
		return nil, err
	}
	rec, err := s.repos.Stock.Get(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if delta < 0 {
			return nil, insufficientAt(locationID, 0)
		}
		rec = &entity.StockRecord{ProductID: productID, LocationID: locationID}
		if err := s.repos.Stock.Create(ctx, rec); err != nil {
			if !errors.Is(err, domain.ErrConflict) {
				return nil, err
			}
			// otra sesión lo creó primero: se usa el registro existente
			if rec, err = s.repos.Stock.Get(ctx, productID, locationID); err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, domain.ErrConflict
			}
		}
	}
	qty := rec.Quantity + delta
	if qty < 0 {
		return nil, insufficientAt(locationID, rec.Quantity)
	}
	expected := rec.Version
	rec.Quantity = qty
	if err := s.repos.Stock.UpdateQuantity(ctx, rec, expected); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *StockRecordStore) checkLocation(ctx context.Context, locationID string) error {
	if locationID == "" {
		return fmt.Errorf("%w: location_id requerido", domain.ErrValidation)
	}
	if s.repos.Locations == nil {
		return nil
	}
	loc, err := s.repos.Locations.GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, locationID)
	}
	return nil
}

func insufficientAt(locationID string, available int) error {
	return fmt.Errorf("%w: no se puede retirar más del stock disponible en la ubicación %s (%d)",
		domain.ErrInsufficientStock, locationID, available)
}
