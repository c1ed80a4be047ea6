package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/models"
)

type fakeCatalog struct {
	products map[uuid.UUID]models.Product
	calls    int
	err      error
}

func (f *fakeCatalog) ActiveProductsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var found []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok && p.IsActive {
			found = append(found, p)
		}
	}
	return found, nil
}

func catalogWith(products ...models.Product) *fakeCatalog {
	c := &fakeCatalog{products: map[uuid.UUID]models.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func product(price string, active bool) models.Product {
	p := models.Product{Name: "item " + price, Price: decimal.RequireFromString(price), IsActive: active}
	p.ID = uuid.New()
	return p
}

func TestPriceCartUsesCatalogPrices(t *testing.T) {
	chicken := product("120.00", true)
	cola := product("30.00", true)
	catalog := catalogWith(chicken, cola)

	cart, err := PriceCart(context.Background(), catalog, []CartItem{
		{ProductID: chicken.ID, Quantity: 2},
		{ProductID: cola.ID, Quantity: 3},
	}, config.DefaultOrderLimits())
	require.NoError(t, err)

	assert.True(t, cart.Total.Equal(decimal.RequireFromString("330.00")), cart.Total.String())
	require.Len(t, cart.Lines, 2)
	assert.True(t, cart.Lines[0].UnitPrice.Equal(chicken.Price))
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	items := cart.OrderItems()
	require.Len(t, items, 2)
	assert.Equal(t, cola.ID, items[1].ProductID)
	assert.True(t, items[1].Price.Equal(decimal.RequireFromString("30")))
}

func TestPriceCartFixedPointSum(t *testing.T) {
	a := product("0.10", true)
	b := product("0.20", true)

	cart, err := PriceCart(context.Background(), catalogWith(a, b), []CartItem{
		{ProductID: a.ID, Quantity: 1},
		{ProductID: b.ID, Quantity: 1},
	}, config.DefaultOrderLimits())
	require.NoError(t, err)
	assert.Equal(t, "0.30", cart.Total.StringFixed(2))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("0.3")))
}

func TestPriceCartRejectsMissingAndInactive(t *testing.T) {
	active := product("10.00", true)
	inactive := product("20.00", false)
	unknown := uuid.New()

	_, err := PriceCart(context.Background(), catalogWith(active, inactive), []CartItem{
		{ProductID: active.ID, Quantity: 1},
		{ProductID: inactive.ID, Quantity: 1},
		{ProductID: unknown, Quantity: 1},
	}, config.DefaultOrderLimits())
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{inactive.ID.String(), unknown.String()}, details["missingProductIds"])
}

func TestPriceCartDuplicateLines(t *testing.T) {
	p := product("5.00", true)

	cart, err := PriceCart(context.Background(), catalogWith(p), []CartItem{
		{ProductID: p.ID, Quantity: 1},
		{ProductID: p.ID, Quantity: 2},
	}, config.DefaultOrderLimits())
	require.NoError(t, err)
	assert.Equal(t, "15.00", cart.Total.StringFixed(2))
	assert.Len(t, cart.Lines, 2)
}

func TestPriceCartValidation(t *testing.T) {
	p := product("10.00", true)
	limits := config.DefaultOrderLimits()

	tooMany := make([]CartItem, limits.MaxCartItems+1)
	for i := range tooMany {
		tooMany[i] = CartItem{ProductID: p.ID, Quantity: 1}
	}

	tests := []struct {
		name  string
		items []CartItem
	}{
		{"empty cart", nil},
		{"too many lines", tooMany},
		{"zero quantity", []CartItem{{ProductID: p.ID, Quantity: 0}}},
		{"quantity above limit", []CartItem{{ProductID: p.ID, Quantity: 100}}},
		{"negative quantity", []CartItem{{ProductID: p.ID, Quantity: -1}}},
		{"missing product id", []CartItem{{Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := catalogWith(p)
			_, err := PriceCart(context.Background(), catalog, tt.items, limits)
			assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
			assert.Zero(t, catalog.calls, "catalog must not be queried")
		})
	}
}

func TestPriceCartTotalBounds(t *testing.T) {
	free := product("0.00", true)
	pricey := product("5000.00", true)
	limits := config.DefaultOrderLimits()

	_, err := PriceCart(context.Background(), catalogWith(free), []CartItem{{ProductID: free.ID, Quantity: 1}}, limits)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = PriceCart(context.Background(), catalogWith(pricey), []CartItem{{ProductID: pricey.ID, Quantity: 20}}, limits)
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "100000.00 exceeds the ceiling")

	cart, err := PriceCart(context.Background(), catalogWith(pricey), []CartItem{{ProductID: pricey.ID, Quantity: 19}}, limits)
	require.NoError(t, err)
	assert.Equal(t, "95000.00", cart.Total.StringFixed(2))
}

func TestPriceCartCatalogError(t *testing.T) {
	p := product("1.00", true)
	catalog := catalogWith(p)
	catalog.err = errors.New("connection reset")

	_, err := PriceCart(context.Background(), catalog, []CartItem{{ProductID: p.ID, Quantity: 1}}, config.DefaultOrderLimits())
	assert.True(t, apperr.Is(err, apperr.CodeInternal))
	assert.ErrorIs(t, err, catalog.err)
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]models.OrderStatus{
		{models.OrderStatusPending, models.OrderStatusPreparing},
		{models.OrderStatusPreparing, models.OrderStatusReady},
		{models.OrderStatusReady, models.OrderStatusDelivered},
		{models.OrderStatusPending, models.OrderStatusCancelled},
		{models.OrderStatusReady, models.OrderStatusCancelled},
		{models.OrderStatusDelivered, models.OrderStatusDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]models.OrderStatus{
		{models.OrderStatusPending, models.OrderStatusDelivered},
		{models.OrderStatusDelivered, models.OrderStatusCancelled},
		{models.OrderStatusCancelled, models.OrderStatusPending},
		{models.OrderStatusReady, models.OrderStatusPreparing},
		{"UNKNOWN", "UNKNOWN"},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}
