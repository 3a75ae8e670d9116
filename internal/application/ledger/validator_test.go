package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestValidateProducts_FaltantesNombrados(t *testing.T) {
	f := newFixture()

	_, err := f.validator.ValidateProducts(context.Background(), testTenant, []string{prodFIFO, "fantasma-1", "fantasma-2"})
	var missing *domain.ProductsNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ElementsMatch(t, []string{"fantasma-1", "fantasma-2"}, missing.MissingIDs)
}

func TestValidateProducts_VariableRechazado(t *testing.T) {
	f := newFixture()

	_, err := f.validator.ValidateProducts(context.Background(), testTenant, []string{prodVariable})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateProducts_DeduplicaIDs(t *testing.T) {
	f := newFixture()

	products, err := f.validator.ValidateProducts(context.Background(), testTenant, []string{prodFIFO, prodFIFO, prodLIFO})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestValidateProducts_ListaVaciaInvalida(t *testing.T) {
	f := newFixture()

	_, err := f.validator.ValidateProducts(context.Background(), testTenant, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateLocation_InactivaOAjena(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.validator.ValidateLocation(ctx, testTenant, locInactive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.validator.ValidateLocation(ctx, "otro-tenant", locA)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	loc, err := f.validator.ValidateLocation(ctx, testTenant, locA)
	require.NoError(t, err)
	assert.Equal(t, locA, loc.ID)
}

func TestValidateStockAvailability_AgregaDemandaPorProducto(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.balances.ApplyDelta(ctx, testTenant, prodFIFO, locA, 40, 0))

	// Dos líneas del mismo producto se suman antes de comparar.
	err := f.validator.ValidateStockAvailability(ctx, testTenant, locA, []ledger.AvailabilityItem{
		{ProductID: prodFIFO, Quantity: 25},
		{ProductID: prodFIFO, Quantity: 25},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(50), insufficient.Requested)

	assert.NoError(t, f.validator.ValidateStockAvailability(ctx, testTenant, locA, []ledger.AvailabilityItem{
		{ProductID: prodFIFO, Quantity: 20},
		{ProductID: prodFIFO, Quantity: 20},
	}))
}

func TestValidateStockAvailability_DescuentaReservado(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.balances.ApplyDelta(ctx, testTenant, prodFIFO, locA, 100, 60))

	err := f.validator.ValidateStockAvailability(ctx, testTenant, locA, []ledger.AvailabilityItem{
		{ProductID: prodFIFO, Quantity: 50},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(40), insufficient.Available)
}

func TestCheckAvailability_SinFilaEsCero(t *testing.T) {
	err := ledger.CheckAvailability(map[string]*entity.Balance{}, []ledger.AvailabilityItem{
		{ProductID: prodFIFO, Quantity: 1},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Zero(t, insufficient.OnHand)
	assert.Zero(t, insufficient.Available)
}
