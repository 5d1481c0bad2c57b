package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

var (
	testNow    = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testExpiry = time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
)

func intPtr(v int) *int { return &v }

func shoe() *entity.Product {
	return &entity.Product{ID: "p-shoe", Name: "Zapato", SizeProfile: entity.SizeProfileAdult, LowStockThreshold: 5}
}

func plain() *entity.Product {
	return &entity.Product{ID: "p-plain", Name: "Guantes", LowStockThreshold: 10}
}

func TestNewBatch_CalculaCantidadDesdeTallas(t *testing.T) {
	b, err := ledger.NewBatch(shoe(), ledger.BatchSpec{
		BatchNumber: "B1",
		ExpiryDate:  testExpiry,
		Sizes:       []entity.BatchSize{{Size: "7", Quantity: 3}, {Size: "6", Quantity: 2}},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 5, b.Quantity)
	assert.Equal(t, []entity.BatchSize{{Size: "6", Quantity: 2}, {Size: "7", Quantity: 3}}, b.Sizes,
		"las tallas deben quedar en el orden del perfil")
	assert.Equal(t, testNow, b.CreatedDate)
	assert.Equal(t, "p-shoe", b.ProductID)
}

func TestNewBatch_CantidadExplicitaDebeCoincidir(t *testing.T) {
	_, err := ledger.NewBatch(shoe(), ledger.BatchSpec{
		BatchNumber: "B1",
		ExpiryDate:  testExpiry,
		Sizes:       []entity.BatchSize{{Size: "6", Quantity: 2}},
		Quantity:    intPtr(3),
	}, testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)

	b, err := ledger.NewBatch(shoe(), ledger.BatchSpec{
		BatchNumber: "B1",
		ExpiryDate:  testExpiry,
		Sizes:       []entity.BatchSize{{Size: "6", Quantity: 2}},
		Quantity:    intPtr(2),
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Quantity)
}

func TestNewBatch_Rechazos(t *testing.T) {
	cases := []struct {
		name    string
		product *entity.Product
		spec    ledger.BatchSpec
	}{
		{"sin número de lote", plain(), ledger.BatchSpec{ExpiryDate: testExpiry, Quantity: intPtr(1)}},
		{"sin vencimiento", plain(), ledger.BatchSpec{BatchNumber: "B1", Quantity: intPtr(1)}},
		{"cantidad negativa", plain(), ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry, Quantity: intPtr(-1)}},
		{"sin tallas ni cantidad", plain(), ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry}},
		{"talla negativa", shoe(), ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry,
			Sizes: []entity.BatchSize{{Size: "6", Quantity: -2}}}},
		{"talla repetida", shoe(), ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry,
			Sizes: []entity.BatchSize{{Size: "6", Quantity: 1}, {Size: "6", Quantity: 1}}}},
		{"talla fuera de perfil", shoe(), ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry,
			Sizes: []entity.BatchSize{{Size: "12", Quantity: 1}}}},
		{"producto con tallas sin desglose", shoe(), ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry, Quantity: intPtr(4)}},
		{"producto de otro lote", plain(), ledger.BatchSpec{ProductID: "otro", BatchNumber: "B1", ExpiryDate: testExpiry, Quantity: intPtr(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.NewBatch(tc.product, tc.spec, testNow)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPerfilDesconocido(t *testing.T) {
	p := &entity.Product{ID: "p-x", SizeProfile: entity.SizeProfile("xl")}

	_, err := ledger.NewBatch(p, ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry, Quantity: intPtr(3)}, testNow)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), `"xl"`)

	_, err = ledger.NewBatch(p, ledger.BatchSpec{BatchNumber: "B1", ExpiryDate: testExpiry,
		Sizes: []entity.BatchSize{{Size: "6", Quantity: 1}}}, testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ledger.NormalizeSizes(p.SizeProfile, []entity.BatchSize{{Size: "6", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ledger.ApplyDelta(&entity.Batch{BatchNumber: "B1", Quantity: 2}, 1, "", p.SizeProfile)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.NoError(t, ledger.CheckProfile(shoe()))
	assert.ErrorIs(t, ledger.CheckProfile(p), domain.ErrValidation)
}

func TestNewBatch_SinPerfilConservaOrden(t *testing.T) {
	p := plain()
	b, err := ledger.NewBatch(p, ledger.BatchSpec{
		BatchNumber: "B1",
		ExpiryDate:  testExpiry,
		Sizes:       []entity.BatchSize{{Size: "15-inch", Quantity: 15}, {Size: "13-inch", Quantity: 10}},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "15-inch", b.Sizes[0].Size)
	assert.Equal(t, 25, b.Quantity)
}

func TestFirstAvailable_OrdenDeCreacion(t *testing.T) {
	older := &entity.Batch{BatchNumber: "B1", CreatedDate: testNow, Quantity: 0}
	middle := &entity.Batch{BatchNumber: "B2", CreatedDate: testNow.Add(time.Hour),
		Sizes: []entity.BatchSize{{Size: "6", Quantity: 1}}, Quantity: 1}
	newer := &entity.Batch{BatchNumber: "B3", CreatedDate: testNow.Add(2 * time.Hour),
		Sizes: []entity.BatchSize{{Size: "7", Quantity: 4}}, Quantity: 4}
	batches := []*entity.Batch{newer, older, middle}

	assert.Equal(t, "B2", ledger.FirstAvailable(batches, "").BatchNumber)
	assert.Equal(t, "B3", ledger.FirstAvailable(batches, "7").BatchNumber)
	assert.Nil(t, ledger.FirstAvailable(batches, "9"))
	assert.Nil(t, ledger.FirstAvailable(nil, ""))
}
